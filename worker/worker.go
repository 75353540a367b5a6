package worker

import (
	"github.com/avosk/shelfmark/model"
)

type Worker interface {
	Run(c <-chan model.Job)
}

package worker

import (
	"github.com/avosk/shelfmark/model"
)

type WorkPool interface {
	Push(job model.Job)
}

package model //import "github.com/avosk/shelfmark/model"

const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Job is one queued metadata refresh for a single book.
type Job struct {
	ID     int    `json:"id"`
	BookID int    `json:"book_id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}


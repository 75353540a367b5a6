package model //import "github.com/avosk/shelfmark/model"

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Status is the reading state of a book.
type Status string

const (
	StatusToRead   Status = "to_read"
	StatusReading  Status = "reading"
	StatusFinished Status = "finished"
)

func (s Status) Valid() bool {
	switch s {
	case StatusToRead, StatusReading, StatusFinished:
		return true
	}
	return false
}

type Book struct {
	ID          int        `json:"id"`
	UUID        string     `json:"uuid"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Description string     `json:"description,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	ISBN        string     `json:"isbn,omitempty"`
	Publisher   string     `json:"publisher,omitempty"`
	// PubDate is free text, source APIs return inconsistent formats.
	PubDate     string     `json:"pubdate,omitempty"`
	TotalPages  int        `json:"total_pages"`
	CurrentPage int        `json:"current_page"`
	Status      Status     `json:"status"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate checks the fields a caller controls before any write happens.
func (b *Book) Validate() error {
	if b.Title == "" {
		return errors.New("title is required")
	}
	if b.Author == "" {
		return errors.New("author is required")
	}
	if b.TotalPages < 0 {
		return errors.New("total pages cannot be negative")
	}
	if b.CurrentPage < 0 {
		return errors.New("current page cannot be negative")
	}
	if b.Status != "" && !b.Status.Valid() {
		return errors.Errorf("unknown status: %s", b.Status)
	}
	return nil
}

// ProgressPercentage returns how far through the book the reader is,
// clamped to 0..100. A book with unknown page count reports 0.
func (b *Book) ProgressPercentage() float64 {
	if b.TotalPages <= 0 {
		return 0
	}
	pct := float64(b.CurrentPage) / float64(b.TotalPages) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// PagesPerDay is the average reading speed since the start date. The +1 on
// the elapsed days avoids dividing by a zero-day window on the start day.
func (b *Book) PagesPerDay(now time.Time) float64 {
	if b.StartDate == nil || b.CurrentPage <= 0 {
		return 0
	}
	days := daysBetween(*b.StartDate, now)
	return float64(b.CurrentPage) / float64(days+1)
}

// EstimatedFinishDate projects when the book will be finished at the
// current reading speed. Callers pass a single captured now so this and
// DaysRemaining agree with each other.
func (b *Book) EstimatedFinishDate(now time.Time) *time.Time {
	if b.StartDate == nil || b.TotalPages <= 0 || b.CurrentPage <= 0 {
		return nil
	}
	if b.CurrentPage >= b.TotalPages {
		return &now
	}
	average := b.PagesPerDay(now)
	if average <= 0 {
		return nil
	}
	remaining := int(math.Ceil(float64(b.TotalPages-b.CurrentPage) / average))
	estimate := now.AddDate(0, 0, remaining)
	return &estimate
}

// DaysRemaining is the whole days between now and the estimated finish
// date, or nil when no estimate exists.
func (b *Book) DaysRemaining(now time.Time) *int {
	estimate := b.EstimatedFinishDate(now)
	if estimate == nil {
		return nil
	}
	days := daysBetween(now, *estimate)
	return &days
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// FindBook filters store queries. Nil fields are ignored.
type FindBook struct {
	ID   *int    `json:"id"`
	UUID *string `json:"uuid"`
	ISBN *string `json:"isbn"`
}

// SortKey selects the single sort dimension of a search.
type SortKey string

const (
	SortByTitle       SortKey = "title"
	SortByAuthor      SortKey = "author"
	SortByProgress    SortKey = "progress"
	SortByStartDate   SortKey = "start_date"
	SortByLastUpdated SortKey = "last_updated"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortByTitle, SortByAuthor, SortByProgress, SortByStartDate, SortByLastUpdated:
		return true
	}
	return false
}

// SearchFilters describes one local search session. Not persisted.
type SearchFilters struct {
	Statuses    []Status `json:"statuses"`
	Author      string   `json:"author"`
	HasProgress bool     `json:"has_progress"`
	SortBy      SortKey  `json:"sort_by"`
	Ascending   bool     `json:"ascending"`
}

// DefaultSearchFilters matches everything, most recently updated first.
func DefaultSearchFilters() SearchFilters {
	return SearchFilters{
		Statuses:  []Status{StatusToRead, StatusReading, StatusFinished},
		SortBy:    SortByLastUpdated,
		Ascending: false,
	}
}

func (f SearchFilters) AllowsStatus(s Status) bool {
	for _, allowed := range f.Statuses {
		if allowed == s {
			return true
		}
	}
	return false
}

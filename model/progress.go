package model

import "time"

// ApplyProgress moves a book to a new current page and resolves its status.
// Rules, in priority order:
//
//  1. page >= total pages (when known) forces finished, even over an
//     explicit override
//  2. any progress from to_read moves the book to reading
//  3. otherwise the explicit override wins, else the status is unchanged
//
// Entering reading stamps StartDate once; it is never overwritten here.
// The new page is clamped into [0, TotalPages] when the total is known.
func ApplyProgress(b *Book, page int, override *Status, now time.Time) {
	if page < 0 {
		page = 0
	}
	if b.TotalPages > 0 && page > b.TotalPages {
		page = b.TotalPages
	}
	b.CurrentPage = page

	switch {
	case b.TotalPages > 0 && page >= b.TotalPages:
		b.Status = StatusFinished
	case page > 0 && b.Status == StatusToRead:
		b.Status = StatusReading
	case override != nil:
		b.Status = *override
	}

	if b.Status == StatusReading && b.StartDate == nil {
		start := now
		b.StartDate = &start
	}
}

// ResetToRead is the "read again" action: back to the shelf, progress wiped.
// It bypasses ApplyProgress on purpose, the clamp-to-finished rule must not
// fire. StartDate stays as the record of the first read.
func ResetToRead(b *Book) {
	b.Status = StatusToRead
	b.CurrentPage = 0
}

// Package search filters and orders an in-memory book collection. The
// whole collection is small (tens to low thousands of records), so the
// engine is a plain predicate scan plus one stable sort, no index.
package search //import "github.com/avosk/shelfmark/search"

import (
	"sort"
	"strings"
	"time"

	"github.com/avosk/shelfmark/model"
)

// Search returns the books matching query and filters, ordered by the
// filter's sort key, plus the total match count. All enabled predicates
// must pass for a book to be included.
func Search(books []*model.Book, query string, filters model.SearchFilters) ([]*model.Book, int) {
	matched := make([]*model.Book, 0, len(books))
	for _, b := range books {
		if matches(b, query, filters) {
			matched = append(matched, b)
		}
	}

	sortBooks(matched, filters)
	return matched, len(matched)
}

func matches(b *model.Book, query string, filters model.SearchFilters) bool {
	if len(filters.Statuses) > 0 && !filters.AllowsStatus(b.Status) {
		return false
	}

	if query != "" {
		q := strings.ToLower(query)
		titleHit := strings.Contains(strings.ToLower(b.Title), q)
		authorHit := strings.Contains(strings.ToLower(b.Author), q)
		// ISBNs are numeric, so this one stays case-sensitive
		isbnHit := b.ISBN != "" && strings.Contains(b.ISBN, query)
		if !titleHit && !authorHit && !isbnHit {
			return false
		}
	}

	if filters.Author != "" {
		if !strings.Contains(strings.ToLower(b.Author), strings.ToLower(filters.Author)) {
			return false
		}
	}

	if filters.HasProgress && b.CurrentPage <= 0 {
		return false
	}

	return true
}

func sortBooks(books []*model.Book, filters model.SearchFilters) {
	sign := -1
	if filters.Ascending {
		sign = 1
	}

	sort.SliceStable(books, func(i, j int) bool {
		return sign*compare(books[i], books[j], filters.SortBy) < 0
	})
}

func compare(a, b *model.Book, key model.SortKey) int {
	switch key {
	case model.SortByTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case model.SortByAuthor:
		return strings.Compare(strings.ToLower(a.Author), strings.ToLower(b.Author))
	case model.SortByProgress:
		return compareFloat(a.ProgressPercentage(), b.ProgressPercentage())
	case model.SortByStartDate:
		return compareTime(timeOrEpoch(a.StartDate), timeOrEpoch(b.StartDate))
	default:
		// last_updated is also the fallback for an unknown key
		return compareTime(a.UpdatedAt, b.UpdatedAt)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// timeOrEpoch treats an unset timestamp as the epoch minimum so unset
// values sort first in ascending order.
func timeOrEpoch(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

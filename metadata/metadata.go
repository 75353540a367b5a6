// Package metadata looks up book records from external sources and maps
// them into one canonical shape. Sources have incompatible native shapes,
// so each gets its own adapter behind the Provider interface; the Resolver
// picks between them with fallback ordering.
package metadata //import "github.com/avosk/shelfmark/metadata"

import (
	"context"
	"strings"

	"github.com/avosk/shelfmark/util"
	"github.com/pkg/errors"
)

const (
	// UnknownTitle fills a record whose source omitted the title.
	UnknownTitle = "Unknown Title"
	// UnknownAuthor fills a record whose source had no usable author list.
	UnknownAuthor = "Unknown Author"
)

var (
	// ErrNoResult means the source answered but had nothing usable. An
	// unparseable payload is also reported as no result, never an error.
	ErrNoResult = errors.New("metadata: no result")
	// ErrNetwork covers transport failures and timeouts.
	ErrNetwork = errors.New("metadata: network failure")
	// ErrStale marks a lookup response overtaken by a newer request.
	ErrStale = errors.New("metadata: stale lookup discarded")
)

// Record is the canonical book shape produced after reconciling a source
// specific result.
type Record struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	PubDate     string `json:"pubdate,omitempty"`
	TotalPages  int    `json:"total_pages"`
	Source      string `json:"source"`
}

// Provider is one external metadata source.
type Provider interface {
	Name() string
	// LookupISBN returns the canonical record for an ISBN, or ErrNoResult.
	LookupISBN(ctx context.Context, isbn string) (*Record, error)
	// SearchText returns records matching a free-text query, possibly empty.
	SearchText(ctx context.Context, query string) ([]*Record, error)
}

// joinAuthors flattens a source author list, substituting the placeholder
// for a missing or all-blank list.
func joinAuthors(names []string) string {
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if s := strings.TrimSpace(name); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return UnknownAuthor
	}
	return strings.Join(kept, ", ")
}

func orUnknownTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return UnknownTitle
	}
	return title
}

// pickISBN prefers an explicit 13-digit identifier, then 10-digit, then
// whatever the caller supplied.
func pickISBN(isbn13, isbn10, supplied string) string {
	if c := util.CanonicalizeISBN(isbn13); c != "" {
		return c
	}
	if c := util.CanonicalizeISBN(isbn10); c != "" {
		return c
	}
	return util.CanonicalizeISBN(supplied)
}

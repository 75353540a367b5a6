package metadata

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Resolver queries the primary source and, only when it yields nothing
// usable, the fallback. Never both in parallel.
//
// Every lookup gets a monotonically increasing sequence tag. A response
// whose tag has been overtaken by a newer lookup is discarded (ErrStale)
// instead of clobbering a fresher result. Last-write-wins is not enough
// when responses arrive out of order.
type Resolver struct {
	primary  Provider
	fallback Provider
	seq      atomic.Uint64
}

// Result couples a lookup outcome with the tag of the request that
// produced it.
type Result struct {
	Record  *Record   `json:"record,omitempty"`
	Records []*Record `json:"records,omitempty"`
	Source  string    `json:"source"`
	Seq     uint64    `json:"seq"`
}

func NewResolver(primary, fallback Provider) *Resolver {
	return &Resolver{primary: primary, fallback: fallback}
}

// LookupISBN resolves one ISBN with fallback ordering.
func (r *Resolver) LookupISBN(ctx context.Context, isbn string) (*Result, error) {
	seq := r.seq.Add(1)

	record, err := r.primary.LookupISBN(ctx, isbn)
	if err == nil && record != nil {
		return r.finish(seq, record, r.primary.Name())
	}
	if err != nil && !errors.Is(err, ErrNoResult) && !errors.Is(err, ErrNetwork) {
		return nil, err
	}
	record, err = r.fallback.LookupISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	return r.finish(seq, record, r.fallback.Name())
}

// SearchText resolves a free-text query with fallback ordering. An empty
// primary result set also triggers the fallback.
func (r *Resolver) SearchText(ctx context.Context, query string) (*Result, error) {
	seq := r.seq.Add(1)

	records, err := r.primary.SearchText(ctx, query)
	if err == nil && len(records) > 0 {
		return r.finishList(seq, records, r.primary.Name())
	}
	if err != nil && !errors.Is(err, ErrNoResult) && !errors.Is(err, ErrNetwork) {
		return nil, err
	}

	records, err = r.fallback.SearchText(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.finishList(seq, records, r.fallback.Name())
}

func (r *Resolver) finish(seq uint64, record *Record, source string) (*Result, error) {
	if r.stale(seq) {
		return nil, ErrStale
	}
	return &Result{Record: record, Source: source, Seq: seq}, nil
}

func (r *Resolver) finishList(seq uint64, records []*Record, source string) (*Result, error) {
	if r.stale(seq) {
		return nil, ErrStale
	}
	return &Result{Records: records, Source: source, Seq: seq}, nil
}

// stale reports whether a newer lookup started after seq was issued.
func (r *Resolver) stale(seq uint64) bool {
	return r.seq.Load() != seq
}

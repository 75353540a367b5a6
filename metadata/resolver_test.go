package metadata

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
)

// fakeProvider scripts one source for resolver tests.
type fakeProvider struct {
	mu      sync.Mutex
	name    string
	record  *Record
	records []*Record
	err     error
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) LookupISBN(ctx context.Context, isbn string) (*Record, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func (f *fakeProvider) SearchText(ctx context.Context, query string) ([]*Record, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func TestResolverPrefersPrimary(t *testing.T) {
	primary := &fakeProvider{name: "primary", record: &Record{Title: "From Primary"}}
	fallback := &fakeProvider{name: "fallback", record: &Record{Title: "From Fallback"}}
	r := NewResolver(primary, fallback)

	result, err := r.LookupISBN(context.Background(), "9780000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Record.Title != "From Primary" || result.Source != "primary" {
		t.Errorf("expected primary result, got %+v", result)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback must not be queried when primary succeeds, calls=%d", fallback.calls)
	}
}

func TestResolverFallsBackOnNoResult(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: ErrNoResult}
	fallback := &fakeProvider{name: "fallback", record: &Record{Title: "From Fallback"}}
	r := NewResolver(primary, fallback)

	result, err := r.LookupISBN(context.Background(), "9780000000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Record.Title != "From Fallback" || result.Source != "fallback" {
		t.Errorf("expected fallback result, got %+v", result)
	}
}

func TestResolverFallsBackOnNetworkError(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.Wrap(ErrNetwork, "connect timeout")}
	fallback := &fakeProvider{name: "fallback", record: &Record{Title: "From Fallback"}}
	r := NewResolver(primary, fallback)

	result, err := r.LookupISBN(context.Background(), "9780000000000")
	if err != nil {
		t.Fatalf("primary network failure should be swallowed, got: %v", err)
	}
	if result.Source != "fallback" {
		t.Errorf("expected fallback source, got %s", result.Source)
	}
}

func TestResolverBothFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: ErrNetwork}
	fallback := &fakeProvider{name: "fallback", err: ErrNetwork}
	r := NewResolver(primary, fallback)

	_, err := r.LookupISBN(context.Background(), "9780000000000")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork when both sources fail, got: %v", err)
	}
}

func TestResolverSearchFallsBackOnEmpty(t *testing.T) {
	primary := &fakeProvider{name: "primary", records: nil}
	fallback := &fakeProvider{name: "fallback", records: []*Record{{Title: "Hit"}}}
	r := NewResolver(primary, fallback)

	result, err := r.SearchText(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Records) != 1 || result.Source != "fallback" {
		t.Errorf("expected fallback records, got %+v", result)
	}
}

// slowFirstProvider blocks its first lookup until released and answers
// later lookups immediately.
type slowFirstProvider struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *slowFirstProvider) Name() string { return "primary" }

func (p *slowFirstProvider) LookupISBN(ctx context.Context, isbn string) (*Record, error) {
	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.started)
		<-p.release
		return &Record{Title: "Old"}, nil
	}
	return &Record{Title: "New"}, nil
}

func (p *slowFirstProvider) SearchText(ctx context.Context, query string) ([]*Record, error) {
	return nil, ErrNoResult
}

func TestResolverDiscardsStaleResponse(t *testing.T) {
	primary := &slowFirstProvider{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	fallback := &fakeProvider{name: "fallback", err: ErrNoResult}
	r := NewResolver(primary, fallback)

	done := make(chan error, 1)
	go func() {
		_, err := r.LookupISBN(context.Background(), "9780000000001")
		done <- err
	}()
	<-primary.started

	// A newer request overtakes the blocked one
	result, err := r.LookupISBN(context.Background(), "9780000000002")
	if err != nil {
		t.Fatalf("fresh lookup failed: %v", err)
	}
	if result.Record.Title != "New" {
		t.Fatalf("unexpected fresh result: %+v", result)
	}

	close(primary.release)
	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("overtaken lookup must be discarded, got: %v", err)
	}
}

package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/avosk/shelfmark/config"
	"github.com/avosk/shelfmark/library"
	"github.com/avosk/shelfmark/log"
	"github.com/avosk/shelfmark/metadata"
	"github.com/avosk/shelfmark/model"
	"github.com/avosk/shelfmark/store"
	"github.com/avosk/shelfmark/store/db"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	log.Logger = zap.NewNop()
	config.GetDefaultOptions()
	os.Exit(m.Run())
}

type stubProvider struct {
	name    string
	record  *metadata.Record
	records []*metadata.Record
	err     error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) LookupISBN(ctx context.Context, isbn string) (*metadata.Record, error) {
	return p.record, p.err
}

func (p *stubProvider) SearchText(ctx context.Context, query string) ([]*metadata.Record, error) {
	return p.records, p.err
}

type recordingPool struct {
	mu   sync.Mutex
	jobs []model.Job
}

func (p *recordingPool) Push(job model.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
}

func (p *recordingPool) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

func testRouter(t *testing.T) (*mux.Router, *store.Store, *recordingPool) {
	t.Helper()

	d, err := db.NewDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := store.NewStore(d)

	resolver := metadata.NewResolver(
		&stubProvider{name: "googlebooks", record: &metadata.Record{Title: "The Hobbit", Author: "J.R.R. Tolkien"}},
		&stubProvider{name: "openlibrary", err: metadata.ErrNoResult},
	)
	service := library.NewService(s, resolver)

	pool := &recordingPool{}
	router := mux.NewRouter()
	Server(router, NewHandler(s, service, pool, "test-secret"))
	return router, s, pool
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func decodeBook(t *testing.T, w *httptest.ResponseRecorder) *model.Book {
	t.Helper()
	var book model.Book
	if err := json.Unmarshal(w.Body.Bytes(), &book); err != nil {
		t.Fatalf("decode book: %v (%s)", err, w.Body.String())
	}
	return &book
}

func TestAddBookEndpoint(t *testing.T) {
	router, _, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{
		"title": "The Hobbit", "author": "J.R.R. Tolkien", "isbn": "978-0547928227", "total_pages": 310,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	book := decodeBook(t, w)
	if book.ISBN != "9780547928227" {
		t.Errorf("expected canonical ISBN, got %q", book.ISBN)
	}

	// Same ISBN again comes back as the stored record, not a duplicate.
	w = doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{
		"title": "Different", "author": "Someone", "isbn": "9780547928227",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if dup := decodeBook(t, w); dup.ID != book.ID {
		t.Errorf("expected existing book %d, got %d", book.ID, dup.ID)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{"author": "no title"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing title, got %d", w.Code)
	}
}

func TestGetAndDeleteBookEndpoints(t *testing.T) {
	router, _, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{"title": "t", "author": "a"})
	book := decodeBook(t, w)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", book.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/books/%d", book.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", book.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestUpdateProgressEndpoint(t *testing.T) {
	router, _, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{
		"title": "t", "author": "a", "total_pages": 300,
	})
	book := decodeBook(t, w)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/progress", book.ID), map[string]interface{}{"page": 150})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := decodeBook(t, w)
	if updated.Status != model.StatusReading || updated.CurrentPage != 150 {
		t.Errorf("unexpected state: %s page %d", updated.Status, updated.CurrentPage)
	}
	if updated.StartDate == nil {
		t.Error("start date should be stamped")
	}

	// Reaching the last page forces finished.
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/progress", book.ID), map[string]interface{}{"page": 999})
	updated = decodeBook(t, w)
	if updated.Status != model.StatusFinished || updated.CurrentPage != 300 {
		t.Errorf("expected finished at page 300, got %s page %d", updated.Status, updated.CurrentPage)
	}

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/progress", book.ID), map[string]interface{}{"page": -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative page, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/books/9999/progress", map[string]interface{}{"page": 1})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing book, got %d", w.Code)
	}
}

func TestResetEndpointKeepsStartDate(t *testing.T) {
	router, _, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{
		"title": "t", "author": "a", "total_pages": 100,
	})
	book := decodeBook(t, w)
	// Pass through reading so the start date gets stamped before finishing.
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/progress", book.ID), map[string]interface{}{"page": 50})
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/progress", book.ID), map[string]interface{}{"page": 100})

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/reset", book.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	reset := decodeBook(t, w)
	if reset.Status != model.StatusToRead || reset.CurrentPage != 0 {
		t.Errorf("unexpected state after reset: %s page %d", reset.Status, reset.CurrentPage)
	}
	if reset.StartDate == nil {
		t.Error("reset must keep the historical start date")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{
		"title": "t", "author": "a", "total_pages": 200,
	})
	book := decodeBook(t, w)
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/progress", book.ID), map[string]interface{}{"page": 100})

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/books/%d/metrics", book.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var metrics bookMetricsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &metrics); err != nil {
		t.Fatal(err)
	}
	if metrics.ProgressPercentage != 50 {
		t.Errorf("expected 50%%, got %f", metrics.ProgressPercentage)
	}
	if metrics.PagesPerDay != 100 {
		t.Errorf("expected 100 pages/day on the first day, got %f", metrics.PagesPerDay)
	}
	if metrics.EstimatedFinishDate == nil || metrics.DaysRemaining == nil {
		t.Error("expected finish estimate for an in-progress book")
	}
}

func TestSearchEndpoint(t *testing.T) {
	router, _, _ := testRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{
		"title": "A Wizard of Earthsea", "author": "Ursula K. Le Guin", "total_pages": 200,
	})
	w := doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{
		"title": "Dune", "author": "Frank Herbert", "total_pages": 400,
	})
	dune := decodeBook(t, w)
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/progress", dune.ID), map[string]interface{}{"page": 10})

	w = doJSON(t, router, http.MethodGet, "/api/v1/books?q=earthsea", nil)
	var result searchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Total != 1 || result.Books[0].Title != "A Wizard of Earthsea" {
		t.Errorf("unexpected search result: %+v", result)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/books?status=reading", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Total != 1 || result.Books[0].ID != dune.ID {
		t.Errorf("unexpected status filter result: %+v", result)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/books?status=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/books?sort=title&order=asc", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Total != 2 || result.Books[0].Title != "A Wizard of Earthsea" {
		t.Errorf("unexpected sort result: %+v", result)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, _, _ := testRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{"title": "a", "author": "x"})
	w := doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{"title": "b", "author": "y", "total_pages": 100})
	book := decodeBook(t, w)
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/progress", book.ID), map[string]interface{}{"page": 100})

	w = doJSON(t, router, http.MethodGet, "/api/v1/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var stats library.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.ToRead != 1 || stats.Finished != 1 || stats.PagesRead != 100 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestLookupEndpoint(t *testing.T) {
	router, _, _ := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/lookup?isbn=9780547928227", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result metadata.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Source != "googlebooks" || result.Record.Title != "The Hobbit" {
		t.Errorf("unexpected lookup result: %+v", result)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/lookup?isbn=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed ISBN, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/lookup", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without parameters, got %d", w.Code)
	}
}

func TestRefreshEndpointsQueueJobs(t *testing.T) {
	router, s, pool := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/books", map[string]interface{}{
		"title": "t", "author": "a", "isbn": "9780547928227",
	})
	book := decodeBook(t, w)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/books/%d/refresh", book.ID), nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	// The push happens off the request goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for pool.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pool.count() != 1 {
		t.Fatalf("expected 1 queued job, got %d", pool.count())
	}

	pending, err := s.ListJobsByStatus(model.JobStatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].BookID != book.ID {
		t.Errorf("unexpected pending jobs: %+v", pending)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/books/refresh", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	var refresh refreshResponse
	if err := json.Unmarshal(w.Body.Bytes(), &refresh); err != nil {
		t.Fatal(err)
	}
	if refresh.Queued != 1 {
		t.Errorf("expected 1 book queued for bulk refresh, got %d", refresh.Queued)
	}
}

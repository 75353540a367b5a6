package worker // import "github.com/avosk/shelfmark/worker"

import (
	"context"
	"time"

	"github.com/avosk/shelfmark/log"
	"github.com/avosk/shelfmark/metadata"
	"github.com/avosk/shelfmark/model"
	"github.com/avosk/shelfmark/store"
	"go.uber.org/zap"
)

const JobTypeMetadataRefresh = "metadata_refresh"

// Lookuper resolves external metadata. Implemented by *metadata.Resolver.
type Lookuper interface {
	LookupISBN(ctx context.Context, isbn string) (*metadata.Result, error)
	SearchText(ctx context.Context, query string) (*metadata.Result, error)
}

type MetadataRefreshPool struct {
	queue chan model.Job
}

// NewMetadataRefreshPool creates a pool of background workers resolving
// missing book metadata.
func NewMetadataRefreshPool(store *store.Store, lookup Lookuper, timeout time.Duration, size int) *MetadataRefreshPool {
	pool := &MetadataRefreshPool{
		queue: make(chan model.Job),
	}

	for i := 0; i < size; i++ {
		worker := &MetadataRefreshWorker{id: i, store: store, lookup: lookup, timeout: timeout}
		go worker.Run(pool.queue)
	}

	return pool
}

// Implement WorkPool interface
func (p *MetadataRefreshPool) Push(job model.Job) {
	p.queue <- job
}

type MetadataRefreshWorker struct {
	id      int
	store   *store.Store
	lookup  Lookuper
	timeout time.Duration
}

func (w *MetadataRefreshWorker) Run(c <-chan model.Job) {
	log.Debug("MetadataRefreshWorker is running", zap.Int("worker_id", w.id))

	for {
		job := <-c

		log.Debug("Job received by worker",
			zap.Int("worker_id", w.id),
			zap.Int("job_id", job.ID),
			zap.Int("book_id", job.BookID))

		if err := w.store.UpdateJobStatus(job.ID, model.JobStatusRunning, ""); err != nil {
			log.Error("Failed to mark job running", zap.Int("job_id", job.ID), zap.Error(err))
		}

		if err := w.refresh(job); err != nil {
			log.Warn("Metadata refresh failed",
				zap.Int("job_id", job.ID),
				zap.Int("book_id", job.BookID),
				zap.Error(err))
			if err := w.store.UpdateJobStatus(job.ID, model.JobStatusFailed, err.Error()); err != nil {
				log.Error("Failed to mark job failed", zap.Int("job_id", job.ID), zap.Error(err))
			}
			continue
		}

		if err := w.store.UpdateJobStatus(job.ID, model.JobStatusDone, ""); err != nil {
			log.Error("Failed to mark job done", zap.Int("job_id", job.ID), zap.Error(err))
		}
	}
}

func (w *MetadataRefreshWorker) refresh(job model.Job) error {
	book, err := w.store.GetBook(&model.FindBook{ID: &job.BookID})
	if err != nil {
		return err
	}
	if book == nil {
		// Book removed since the job was queued, nothing to refresh.
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	record, err := w.resolve(ctx, book)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	if !ApplyRecord(book, record) {
		return nil
	}
	_, err = w.store.UpdateBook(book)
	return err
}

func (w *MetadataRefreshWorker) resolve(ctx context.Context, book *model.Book) (*metadata.Record, error) {
	if book.ISBN != "" {
		result, err := w.lookup.LookupISBN(ctx, book.ISBN)
		if err != nil {
			return nil, err
		}
		return result.Record, nil
	}

	result, err := w.lookup.SearchText(ctx, book.Title+" "+book.Author)
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, nil
	}
	return result.Records[0], nil
}

// ApplyRecord copies resolved metadata into empty book fields only; hand
// edited values always win over a refresh. Reports whether anything changed.
func ApplyRecord(book *model.Book, record *metadata.Record) bool {
	changed := false

	if book.Description == "" && record.Description != "" {
		book.Description = record.Description
		changed = true
	}
	if book.CoverURL == "" && record.CoverURL != "" {
		book.CoverURL = record.CoverURL
		changed = true
	}
	if book.Publisher == "" && record.Publisher != "" {
		book.Publisher = record.Publisher
		changed = true
	}
	if book.PubDate == "" && record.PubDate != "" {
		book.PubDate = record.PubDate
		changed = true
	}
	if book.TotalPages == 0 && record.TotalPages > 0 {
		book.TotalPages = record.TotalPages
		changed = true
	}
	if book.ISBN == "" && record.ISBN != "" {
		book.ISBN = record.ISBN
		changed = true
	}

	return changed
}

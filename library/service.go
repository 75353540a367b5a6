// Package library is the orchestration layer: it owns the add/progress/
// delete flows over the store, runs local searches, and drives external
// metadata lookups.
package library //import "github.com/avosk/shelfmark/library"

import (
	"context"
	"time"

	"github.com/avosk/shelfmark/log"
	"github.com/avosk/shelfmark/metadata"
	"github.com/avosk/shelfmark/model"
	"github.com/avosk/shelfmark/search"
	"github.com/avosk/shelfmark/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrNotFound   = errors.New("book not found")
	ErrValidation = errors.New("validation failed")
)

// BookStore is the persistence collaborator. Implemented by *store.Store.
type BookStore interface {
	AddBook(create *model.Book) (*model.Book, error)
	UpdateBook(update *model.Book) (*model.Book, error)
	GetBook(find *model.FindBook) (*model.Book, error)
	GetBookByISBN(isbn string) (*model.Book, error)
	ListBooks(find *model.FindBook) ([]*model.Book, error)
	RemoveBook(id int) (int64, error)
}

type Service struct {
	store    BookStore
	resolver *metadata.Resolver
	// now is swappable for tests
	now func() time.Time
}

func NewService(store BookStore, resolver *metadata.Resolver) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		now:      time.Now,
	}
}

// AddBook validates and persists a new book. When the ISBN is already in
// the collection the existing record comes back instead of a duplicate.
func (s *Service) AddBook(create *model.Book) (*model.Book, error) {
	if err := create.Validate(); err != nil {
		return nil, errors.Wrap(ErrValidation, err.Error())
	}

	if create.ISBN != "" {
		canonical := util.CanonicalizeISBN(create.ISBN)
		if canonical == "" {
			return nil, errors.Wrapf(ErrValidation, "malformed ISBN: %s", create.ISBN)
		}
		create.ISBN = canonical

		existing, err := s.store.GetBookByISBN(canonical)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			log.Debug("Book with this ISBN already in collection",
				zap.String("isbn", canonical),
				zap.Int("book_id", existing.ID))
			return existing, nil
		}
	}

	return s.store.AddBook(create)
}

func (s *Service) GetBook(id int) (*model.Book, error) {
	book, err := s.store.GetBook(&model.FindBook{ID: &id})
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errors.Wrapf(ErrNotFound, "book %d", id)
	}
	return book, nil
}

func (s *Service) ListBooks() ([]*model.Book, error) {
	return s.store.ListBooks(&model.FindBook{})
}

func (s *Service) DeleteBook(id int) error {
	affected, err := s.store.RemoveBook(id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.Wrapf(ErrNotFound, "book %d", id)
	}
	return nil
}

// UpdateProgress moves a book to a new page, resolves the status per the
// transition rules and persists the result. Nothing is written when the
// book does not exist.
func (s *Service) UpdateProgress(id, page int, override *model.Status) (*model.Book, error) {
	if page < 0 {
		return nil, errors.Wrap(ErrValidation, "page cannot be negative")
	}
	if override != nil && !override.Valid() {
		return nil, errors.Wrapf(ErrValidation, "unknown status: %s", *override)
	}

	book, err := s.GetBook(id)
	if err != nil {
		return nil, err
	}

	model.ApplyProgress(book, page, override, s.now())

	updated, err := s.store.UpdateBook(book)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errors.Wrapf(ErrNotFound, "book %d", id)
	}
	return updated, nil
}

// ResetToRead is the "read again" action.
func (s *Service) ResetToRead(id int) (*model.Book, error) {
	book, err := s.GetBook(id)
	if err != nil {
		return nil, err
	}

	model.ResetToRead(book)

	updated, err := s.store.UpdateBook(book)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errors.Wrapf(ErrNotFound, "book %d", id)
	}
	return updated, nil
}

// Search runs the local engine over the full collection.
func (s *Service) Search(query string, filters model.SearchFilters) ([]*model.Book, int, error) {
	if len(filters.Statuses) == 0 {
		filters.Statuses = model.DefaultSearchFilters().Statuses
	}
	if filters.SortBy == "" {
		filters.SortBy = model.SortByLastUpdated
	}
	if !filters.SortBy.Valid() {
		return nil, 0, errors.Wrapf(ErrValidation, "unknown sort key: %s", filters.SortBy)
	}

	books, err := s.store.ListBooks(&model.FindBook{})
	if err != nil {
		return nil, 0, err
	}

	result, total := search.Search(books, query, filters)
	return result, total, nil
}

// LookupISBN resolves external metadata for an ISBN, primary then fallback.
func (s *Service) LookupISBN(ctx context.Context, isbn string) (*metadata.Result, error) {
	canonical := util.CanonicalizeISBN(isbn)
	if canonical == "" {
		return nil, errors.Wrapf(ErrValidation, "malformed ISBN: %s", isbn)
	}
	return s.resolver.LookupISBN(ctx, canonical)
}

// SearchMetadata resolves a free-text metadata search.
func (s *Service) SearchMetadata(ctx context.Context, query string) (*metadata.Result, error) {
	if query == "" {
		return nil, errors.Wrap(ErrValidation, "query is required")
	}
	return s.resolver.SearchText(ctx, query)
}

// Stats summarizes the collection.
type Stats struct {
	Total     int `json:"total"`
	ToRead    int `json:"to_read"`
	Reading   int `json:"reading"`
	Finished  int `json:"finished"`
	PagesRead int `json:"pages_read"`
}

func (s *Service) Stats() (*Stats, error) {
	books, err := s.store.ListBooks(&model.FindBook{})
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(books)}
	for _, b := range books {
		switch b.Status {
		case model.StatusReading:
			stats.Reading++
		case model.StatusFinished:
			stats.Finished++
		default:
			stats.ToRead++
		}
		stats.PagesRead += b.CurrentPage
	}
	return stats, nil
}

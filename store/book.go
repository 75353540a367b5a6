package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/avosk/shelfmark/log"
	"github.com/avosk/shelfmark/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AddBook inserts a new book. The store assigns the UUID and both
// timestamps; ISBN uniqueness is the caller's concern.
func (s *Store) AddBook(create *model.Book) (*model.Book, error) {
	stmt := `
		INSERT INTO books (
			uuid,
			title,
			author,
			description,
			cover_url,
			isbn,
			publisher,
			pubdate,
			total_pages,
			current_page,
			status,
			start_date,
			created_at,
			updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		RETURNING id`

	now := time.Now().UTC()
	status := create.Status
	if status == "" {
		status = model.StatusToRead
	}

	args := []any{
		uuid.New().String(),
		create.Title,
		create.Author,
		create.Description,
		create.CoverURL,
		create.ISBN,
		create.Publisher,
		create.PubDate,
		create.TotalPages,
		create.CurrentPage,
		string(status),
		nullableTime(create.StartDate),
		now,
		now,
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var id int
	if err := tx.QueryRow(stmt, args...).Scan(&id); err != nil {
		log.Error("Failed to insert book", zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.getBookByID(id)
}

// UpdateBook writes back a mutated book and bumps updated_at.
func (s *Store) UpdateBook(update *model.Book) (*model.Book, error) {
	stmt := `
		UPDATE books
		SET
			title = ?,
			author = ?,
			description = ?,
			cover_url = ?,
			isbn = ?,
			publisher = ?,
			pubdate = ?,
			total_pages = ?,
			current_page = ?,
			status = ?,
			start_date = ?,
			updated_at = ?
		WHERE id = ?`

	args := []any{
		update.Title,
		update.Author,
		update.Description,
		update.CoverURL,
		update.ISBN,
		update.Publisher,
		update.PubDate,
		update.TotalPages,
		update.CurrentPage,
		string(update.Status),
		nullableTime(update.StartDate),
		time.Now().UTC(),
		update.ID,
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(stmt, args...)
	if err != nil {
		log.Error("Failed to update book", zap.Error(err))
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.bookCache.Delete(update.ID)
	return s.getBookByID(update.ID)
}

func (s *Store) GetBook(find *model.FindBook) (*model.Book, error) {
	if find.ID != nil {
		if cache, ok := s.bookCache.Load(*find.ID); ok {
			return cache.(*model.Book), nil
		}
	}

	list, err := s.ListBooks(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	book := list[0]
	s.bookCache.Store(book.ID, book)
	return book, nil
}

func (s *Store) GetBookByISBN(isbn string) (*model.Book, error) {
	return s.GetBook(&model.FindBook{ISBN: &isbn})
}

func (s *Store) ListBooks(find *model.FindBook) ([]*model.Book, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.UUID; v != nil {
		where, args = append(where, "uuid = ?"), append(args, *v)
	}
	if v := find.ISBN; v != nil {
		where, args = append(where, "isbn = ?"), append(args, *v)
	}

	query := `
        SELECT
            id,
            uuid,
            title,
            author,
            description,
            cover_url,
            isbn,
            publisher,
            pubdate,
            total_pages,
            current_page,
            status,
            start_date,
            created_at,
            updated_at
        FROM books
        WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query books", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			log.Error("Failed to scan book", zap.Error(err))
			return nil, err
		}
		list = append(list, book)
	}
	return list, rows.Err()
}

// ListBooksMissingMetadata returns books lacking a cover, publisher or page
// count, the candidates for a metadata refresh.
func (s *Store) ListBooksMissingMetadata() ([]*model.Book, error) {
	query := `
        SELECT
            id,
            uuid,
            title,
            author,
            description,
            cover_url,
            isbn,
            publisher,
            pubdate,
            total_pages,
            current_page,
            status,
            start_date,
            created_at,
            updated_at
        FROM books
        WHERE cover_url = '' OR publisher = '' OR total_pages = 0
        ORDER BY id`

	rows, err := s.db.Query(query)
	if err != nil {
		log.Error("Failed to query books missing metadata", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, book)
	}
	return list, rows.Err()
}

// RemoveBook deletes a book row. Returns the number of rows removed so the
// caller can tell a miss from a delete.
func (s *Store) RemoveBook(id int) (int64, error) {
	stmt := `DELETE FROM books WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(stmt, id)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.bookCache.Delete(id)
	return affected, nil
}

func (s *Store) getBookByID(id int) (*model.Book, error) {
	s.bookCache.Delete(id)
	book, err := s.GetBook(&model.FindBook{ID: &id})
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errors.Errorf("book %d vanished after write", id)
	}
	return book, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*model.Book, error) {
	var book model.Book
	var status string
	var startDate sql.NullTime
	if err := row.Scan(
		&book.ID,
		&book.UUID,
		&book.Title,
		&book.Author,
		&book.Description,
		&book.CoverURL,
		&book.ISBN,
		&book.Publisher,
		&book.PubDate,
		&book.TotalPages,
		&book.CurrentPage,
		&status,
		&startDate,
		&book.CreatedAt,
		&book.UpdatedAt,
	); err != nil {
		return nil, err
	}
	book.Status = model.Status(status)
	if startDate.Valid {
		t := startDate.Time
		book.StartDate = &t
	}
	return &book, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

package store

import (
	"database/sql"
	"sync"

	"github.com/avosk/shelfmark/store/db"
)

type Store struct {
	db        *db.DB
	dbLock    sync.Mutex
	bookCache sync.Map // map[int]*model.Book
}

func NewStore(db *db.DB) *Store {
	return &Store{
		db: db,
	}
}

func (s *Store) DBStats() sql.DBStats {
	return s.db.Stats()
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

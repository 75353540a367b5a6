package store

import (
	"github.com/avosk/shelfmark/model"
)

func (s *Store) AddJob(job model.Job) (*model.Job, error) {
	stmt := `
    INSERT INTO job (book_id, type, status, detail) VALUES (?, ?, ?, ?)
    RETURNING id, book_id, type, status, detail
    `

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var j model.Job
	if err := tx.QueryRow(stmt, job.BookID, job.Type, job.Status, job.Detail).Scan(
		&j.ID, &j.BookID, &j.Type, &j.Status, &j.Detail,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &j, nil
}

func (s *Store) UpdateJobStatus(id int, status, detail string) error {
	stmt := `UPDATE job SET status = ?, detail = ? WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt, status, detail, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListJobsByStatus(status string) ([]*model.Job, error) {
	stmt := `SELECT id, book_id, type, status, detail FROM job WHERE status = ? ORDER BY id`

	rows, err := s.db.Query(stmt, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Job, 0)
	for rows.Next() {
		var j model.Job
		if err := rows.Scan(&j.ID, &j.BookID, &j.Type, &j.Status, &j.Detail); err != nil {
			return nil, err
		}
		list = append(list, &j)
	}
	return list, rows.Err()
}

package store

import (
	"database/sql"
	"errors"
	"time"
)

// Export represents a frame still written to disk for a session.
// Joint is the joint under inspection when the frame was exported,
// empty when none; Angle is nil when the joint carried no angle.
type Export struct {
	ID        int64
	SessionID string
	Path      string
	Position  float64
	Width     int
	Height    int
	Joint     string
	Angle     *float64
	CreatedAt time.Time
}

// ExportRepository provides access to export history.
type ExportRepository struct {
	db *sql.DB
}

// Exports returns the export repository for this store.
func (s *Store) Exports() *ExportRepository {
	return &ExportRepository{db: s.db}
}

// Create inserts a new export record into the database.
func (r *ExportRepository) Create(e *Export) error {
	e.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO exports (session_id, path, position, width, height, joint, angle, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Path, e.Position, e.Width, e.Height, e.Joint, e.Angle, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id

	return nil
}

// GetByID retrieves an export record by its ID.
func (r *ExportRepository) GetByID(id int64) (*Export, error) {
	e := &Export{}

	err := r.db.QueryRow(
		`SELECT id, session_id, path, position, width, height, joint, angle, created_at
		 FROM exports WHERE id = ?`,
		id,
	).Scan(&e.ID, &e.SessionID, &e.Path, &e.Position, &e.Width, &e.Height, &e.Joint, &e.Angle, &e.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return e, nil
}

// ListBySession retrieves export history for a session, newest first.
func (r *ExportRepository) ListBySession(sessionID string) ([]*Export, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, path, position, width, height, joint, angle, created_at
		 FROM exports WHERE session_id = ? ORDER BY created_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExports(rows)
}

// List retrieves all export records, newest first.
func (r *ExportRepository) List() ([]*Export, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, path, position, width, height, joint, angle, created_at
		 FROM exports ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExports(rows)
}

func scanExports(rows *sql.Rows) ([]*Export, error) {
	var exports []*Export
	for rows.Next() {
		e := &Export{}

		err := rows.Scan(&e.ID, &e.SessionID, &e.Path, &e.Position, &e.Width, &e.Height, &e.Joint, &e.Angle, &e.CreatedAt)
		if err != nil {
			return nil, err
		}

		exports = append(exports, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exports, nil
}

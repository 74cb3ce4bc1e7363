package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session represents a review session stored in the database: one
// video file plus its review metadata.
type Session struct {
	ID        string
	Title     string
	VideoPath string
	Athlete   string
	Notes     string
	Duration  float64
	Width     int
	Height    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session into the database.
func (r *SessionRepository) Create(s *Session) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, title, video_path, athlete, notes, duration, width, height, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Title, s.VideoPath, s.Athlete, s.Notes, s.Duration, s.Width, s.Height, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	s := &Session{}

	err := r.db.QueryRow(
		`SELECT id, title, video_path, athlete, notes, duration, width, height, created_at, updated_at
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.Title, &s.VideoPath, &s.Athlete, &s.Notes, &s.Duration, &s.Width, &s.Height, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s, nil
}

// GetByVideoPath retrieves a session by the path of its video file.
func (r *SessionRepository) GetByVideoPath(path string) (*Session, error) {
	s := &Session{}

	err := r.db.QueryRow(
		`SELECT id, title, video_path, athlete, notes, duration, width, height, created_at, updated_at
		 FROM sessions WHERE video_path = ?`,
		path,
	).Scan(&s.ID, &s.Title, &s.VideoPath, &s.Athlete, &s.Notes, &s.Duration, &s.Width, &s.Height, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s, nil
}

// List retrieves all sessions from the database, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, title, video_path, athlete, notes, duration, width, height, created_at, updated_at
		 FROM sessions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s := &Session{}

		err := rows.Scan(&s.ID, &s.Title, &s.VideoPath, &s.Athlete, &s.Notes, &s.Duration, &s.Width, &s.Height, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Update updates an existing session in the database.
func (r *SessionRepository) Update(s *Session) error {
	s.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE sessions SET title = ?, video_path = ?, athlete = ?, notes = ?, duration = ?, width = ?, height = ?, updated_at = ?
		 WHERE id = ?`,
		s.Title, s.VideoPath, s.Athlete, s.Notes, s.Duration, s.Width, s.Height, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a session from the database by its ID. Pause points
// and export records cascade.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

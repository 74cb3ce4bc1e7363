package store

import (
	"database/sql"
	"errors"
	"time"
)

// PausePoint represents a scheduled automatic pause within a session.
// Suggested marks points produced by the motion scan rather than placed
// by the reviewer.
type PausePoint struct {
	ID        int64
	SessionID string
	Seconds   float64
	Label     string
	Suggested bool
	CreatedAt time.Time
}

// PausePointRepository provides CRUD operations for pause points.
type PausePointRepository struct {
	db *sql.DB
}

// PausePoints returns the pause point repository for this store.
func (s *Store) PausePoints() *PausePointRepository {
	return &PausePointRepository{db: s.db}
}

// Create inserts a new pause point into the database.
func (r *PausePointRepository) Create(p *PausePoint) error {
	p.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO pause_points (session_id, seconds, label, suggested, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.SessionID, p.Seconds, p.Label, p.Suggested, p.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id

	return nil
}

// GetByID retrieves a pause point by its ID.
func (r *PausePointRepository) GetByID(id int64) (*PausePoint, error) {
	p := &PausePoint{}
	var suggested int

	err := r.db.QueryRow(
		`SELECT id, session_id, seconds, label, suggested, created_at
		 FROM pause_points WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.SessionID, &p.Seconds, &p.Label, &suggested, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Suggested = suggested != 0
	return p, nil
}

// ListBySession retrieves all pause points for a session ordered by time.
func (r *PausePointRepository) ListBySession(sessionID string) ([]*PausePoint, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, seconds, label, suggested, created_at
		 FROM pause_points WHERE session_id = ? ORDER BY seconds ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []*PausePoint
	for rows.Next() {
		p := &PausePoint{}
		var suggested int

		err := rows.Scan(&p.ID, &p.SessionID, &p.Seconds, &p.Label, &suggested, &p.CreatedAt)
		if err != nil {
			return nil, err
		}

		p.Suggested = suggested != 0
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return points, nil
}

// SecondsBySession returns just the pause timestamps for a session in
// ascending order, the shape the playback schedule consumes.
func (r *PausePointRepository) SecondsBySession(sessionID string) ([]float64, error) {
	points, err := r.ListBySession(sessionID)
	if err != nil {
		return nil, err
	}

	seconds := make([]float64, len(points))
	for i, p := range points {
		seconds[i] = p.Seconds
	}
	return seconds, nil
}

// Delete removes a pause point by its ID.
func (r *PausePointRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM pause_points WHERE id = ?`, id)
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

// DeleteSuggested removes all motion-scan suggestions for a session,
// leaving reviewer-placed points untouched.
func (r *PausePointRepository) DeleteSuggested(sessionID string) error {
	_, err := r.db.Exec(
		`DELETE FROM pause_points WHERE session_id = ? AND suggested = 1`,
		sessionID,
	)
	return err
}

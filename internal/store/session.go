package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jhendrix/echo/internal/session"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session is a detection session row.
type Session struct {
	ID            string     `json:"id"`
	TargetProfile string     `json:"target_profile"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	ArrowCount    int        `json:"arrow_count"`
}

// SessionRepository provides persistence operations for sessions and
// their arrows.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session row.
func (r *SessionRepository) Create(id, targetProfile string, startedAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, target_profile, started_at) VALUES (?, ?, ?)`,
		id, targetProfile, startedAt,
	)
	return err
}

// Finish marks a session as ended.
func (r *SessionRepository) Finish(id string, endedAt time.Time) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		endedAt, id,
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

// GetByID retrieves a session with its arrow count.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	s := &Session{}
	var endedAt sql.NullTime

	err := r.db.QueryRow(
		`SELECT s.id, s.target_profile, s.started_at, s.ended_at, COUNT(a.id)
		 FROM sessions s LEFT JOIN arrows a ON a.session_id = s.id
		 WHERE s.id = ?
		 GROUP BY s.id`,
		id,
	).Scan(&s.ID, &s.TargetProfile, &s.StartedAt, &endedAt, &s.ArrowCount)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	return s, nil
}

// List retrieves all sessions, most recent first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT s.id, s.target_profile, s.started_at, s.ended_at, COUNT(a.id)
		 FROM sessions s LEFT JOIN arrows a ON a.session_id = s.id
		 GROUP BY s.id
		 ORDER BY s.started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s := &Session{}
		var endedAt sql.NullTime

		if err := rows.Scan(&s.ID, &s.TargetProfile, &s.StartedAt, &endedAt, &s.ArrowCount); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			s.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Prune deletes the oldest sessions beyond keep. Arrows are removed by
// the cascade.
func (r *SessionRepository) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := r.db.Exec(
		`DELETE FROM sessions WHERE id NOT IN (
			SELECT id FROM sessions ORDER BY started_at DESC LIMIT ?
		)`,
		keep,
	)
	return err
}

// SaveArrows appends accepted arrows to a session.
func (r *SessionRepository) SaveArrows(sessionID string, arrows []session.Arrow) error {
	if len(arrows) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO arrows (session_id, seq, x_cm, y_cm, distance_cm, angle_deg, score, pixel_x, pixel_y, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range arrows {
		if _, err := stmt.Exec(sessionID, a.ID, a.XCM, a.YCM, a.DistanceCM, a.AngleDeg, a.Score, a.PixelX, a.PixelY, a.Timestamp); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Arrows retrieves a session's arrows in acceptance order.
func (r *SessionRepository) Arrows(sessionID string) ([]session.Arrow, error) {
	rows, err := r.db.Query(
		`SELECT seq, x_cm, y_cm, distance_cm, angle_deg, score, pixel_x, pixel_y, timestamp
		 FROM arrows WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var arrows []session.Arrow
	for rows.Next() {
		var a session.Arrow
		if err := rows.Scan(&a.ID, &a.XCM, &a.YCM, &a.DistanceCM, &a.AngleDeg, &a.Score, &a.PixelX, &a.PixelY, &a.Timestamp); err != nil {
			return nil, err
		}
		arrows = append(arrows, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return arrows, nil
}

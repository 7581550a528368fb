package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Tally holds the per-session counters.
type Tally struct {
	Frames     int64
	Faces      int64
	EyesClosed int64
	Smiles     int64
	Dangers    int64
}

// Session represents one analysis run stored in the database.
type Session struct {
	ID             string
	Source         string
	EyeThreshold   float64
	SmileThreshold float64
	Tally
	StartedAt time.Time
	EndedAt   *time.Time
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. A random ID and the current start time
// are assigned when missing.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, source, eye_threshold, smile_threshold, frames, faces, eyes_closed, smiles, dangers, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Source, sess.EyeThreshold, sess.SmileThreshold,
		sess.Frames, sess.Faces, sess.EyesClosed, sess.Smiles, sess.Dangers,
		sess.StartedAt,
	)
	return err
}

// Finish stores the final counters and end time of a session.
func (r *SessionRepository) Finish(id string, tally Tally, endedAt time.Time) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET frames = ?, faces = ?, eyes_closed = ?, smiles = ?, dangers = ?, ended_at = ?
		 WHERE id = ?`,
		tally.Frames, tally.Faces, tally.EyesClosed, tally.Smiles, tally.Dangers, endedAt, id,
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

const sessionColumns = `id, source, eye_threshold, smile_threshold, frames, faces, eyes_closed, smiles, dangers, started_at, ended_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &sess.Source, &sess.EyeThreshold, &sess.SmileThreshold,
		&sess.Frames, &sess.Faces, &sess.EyesClosed, &sess.Smiles, &sess.Dangers,
		&sess.StartedAt, &ended)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves all sessions, most recent first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and its events.
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

package store

import (
	"context"
	"database/sql"
	"time"
)

// Event kinds accepted by the events table.
const (
	KindEyesClosed = "eyes_closed"
	KindSmile      = "smile"
	KindDanger     = "danger"
)

// Event is a heuristic flag turning on or off for one face.
type Event struct {
	ID        int64
	SessionID string
	Frame     int64
	Face      int
	Kind      string
	Active    bool
	LeftEye   float64
	RightEye  float64
	Mouth     float64
	CreatedAt time.Time
}

// EventRepository provides access to recorded events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an event and sets its ID.
func (r *EventRepository) Create(e *Event) error {
	return r.CreateContext(context.Background(), e)
}

// CreateContext is Create bounded by ctx.
func (r *EventRepository) CreateContext(ctx context.Context, e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO events (session_id, frame, face, kind, active, left_eye, right_eye, mouth, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Frame, e.Face, e.Kind, e.Active, e.LeftEye, e.RightEye, e.Mouth, e.CreatedAt,
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

// ListBySession retrieves the events of a session in frame order.
func (r *EventRepository) ListBySession(sessionID string) ([]*Event, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, frame, face, kind, active, left_eye, right_eye, mouth, created_at
		 FROM events
		 WHERE session_id = ?
		 ORDER BY frame, face, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Frame, &e.Face, &e.Kind, &e.Active,
			&e.LeftEye, &e.RightEye, &e.Mouth, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

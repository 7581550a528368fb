package alert

import (
	"context"

	"github.com/ayusman/facemesh/internal/store"
)

// StoreSink writes events to the events table.
type StoreSink struct {
	events *store.EventRepository
}

// NewStoreSink creates a sink writing through repo.
func NewStoreSink(repo *store.EventRepository) *StoreSink {
	return &StoreSink{events: repo}
}

// Name implements Sink.
func (s *StoreSink) Name() string {
	return "store"
}

// Send inserts ev.
func (s *StoreSink) Send(ctx context.Context, ev Event) error {
	return s.events.CreateContext(ctx, &store.Event{
		SessionID: ev.Session,
		Frame:     ev.Frame,
		Face:      ev.Face,
		Kind:      string(ev.Kind),
		Active:    ev.Active,
		LeftEye:   ev.Result.LeftEye,
		RightEye:  ev.Result.RightEye,
		Mouth:     ev.Result.Mouth,
		CreatedAt: ev.Time,
	})
}

package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/facemesh/internal/alert"
	"github.com/ayusman/facemesh/internal/heuristic"
	"github.com/ayusman/facemesh/internal/store"
)

// Recorder tallies frames and flags for a session and, when a repository
// is set, persists the session row.
type Recorder struct {
	sessions *store.SessionRepository
	session  store.Session
	log      logrus.FieldLogger

	mu    sync.Mutex
	tally store.Tally
}

// NewRecorder starts a session. sessions may be nil to only count.
func NewRecorder(sessions *store.SessionRepository, source string, th heuristic.Thresholds, log logrus.FieldLogger) (*Recorder, error) {
	r := &Recorder{
		sessions: sessions,
		session: store.Session{
			Source:         source,
			EyeThreshold:   th.EyeClosed,
			SmileThreshold: th.Smile,
			StartedAt:      time.Now(),
		},
		log: log,
	}

	if sessions != nil {
		if err := sessions.Create(&r.session); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		log.WithField("session", r.session.ID).Info("session recording")
	}

	return r, nil
}

// SessionID returns the stored session ID, empty when not persisted.
func (r *Recorder) SessionID() string {
	return r.session.ID
}

// ObserveFrame implements Observer.
func (r *Recorder) ObserveFrame(_ context.Context, analysis FrameAnalysis, _ *gocv.Mat) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tally.Frames++
	r.tally.Faces += int64(len(analysis.Faces))
	for _, res := range analysis.Faces {
		if res.EyesClosed {
			r.tally.EyesClosed++
		}
		if res.Smile {
			r.tally.Smiles++
		} else {
			r.tally.Dangers++
		}
	}
}

// Tally returns the counters so far.
func (r *Recorder) Tally() store.Tally {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tally
}

// Finish stores the final counters.
func (r *Recorder) Finish() error {
	if r.sessions == nil {
		return nil
	}
	if err := r.sessions.Finish(r.session.ID, r.Tally(), time.Now()); err != nil {
		return fmt.Errorf("finish session %s: %w", r.session.ID, err)
	}
	return nil
}

// Alerts feeds heuristic transitions to a dispatcher.
type Alerts struct {
	tracker    *alert.Tracker
	dispatcher *alert.Dispatcher
}

// NewAlerts creates an observer emitting events tagged with session.
func NewAlerts(session string, dispatcher *alert.Dispatcher) *Alerts {
	return &Alerts{
		tracker:    alert.NewTracker(session),
		dispatcher: dispatcher,
	}
}

// ObserveFrame implements Observer.
func (a *Alerts) ObserveFrame(ctx context.Context, analysis FrameAnalysis, _ *gocv.Mat) {
	events := a.tracker.Update(analysis.Frame, analysis.Faces)
	if len(events) == 0 {
		return
	}
	a.dispatcher.Dispatch(ctx, events)
}

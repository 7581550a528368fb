package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/facemesh/internal/alert"
	"github.com/ayusman/facemesh/internal/heuristic"
	"github.com/ayusman/facemesh/internal/logging"
	"github.com/ayusman/facemesh/internal/store"
)

var (
	smiling = heuristic.Result{Mouth: 0.12, LeftEye: 0.03, RightEye: 0.03, Smile: true}
	sleepy  = heuristic.Result{Mouth: 0.01, LeftEye: 0.005, RightEye: 0.005, EyesClosed: true}
)

func TestRecorder_Tally(t *testing.T) {
	r, err := NewRecorder(nil, "camera:0", heuristic.DefaultThresholds(), logging.Discard())
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	ctx := context.Background()
	r.ObserveFrame(ctx, FrameAnalysis{Frame: 1, Faces: []heuristic.Result{smiling, sleepy}}, nil)
	r.ObserveFrame(ctx, FrameAnalysis{Frame: 2}, nil)
	r.ObserveFrame(ctx, FrameAnalysis{Frame: 3, Faces: []heuristic.Result{sleepy}}, nil)

	want := store.Tally{Frames: 3, Faces: 3, EyesClosed: 2, Smiles: 1, Dangers: 2}
	if got := r.Tally(); got != want {
		t.Errorf("Tally() = %+v, want %+v", got, want)
	}

	if r.SessionID() != "" {
		t.Errorf("unpersisted recorder should have no session ID, got %q", r.SessionID())
	}
	if err := r.Finish(); err != nil {
		t.Errorf("Finish() without store error = %v", err)
	}
}

func TestRecorder_Persists(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "rec.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	r, err := NewRecorder(s.Sessions(), "Videos/2.mp4", heuristic.DefaultThresholds(), logging.Discard())
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	if r.SessionID() == "" {
		t.Fatal("persisted recorder should have a session ID")
	}

	r.ObserveFrame(context.Background(), FrameAnalysis{Frame: 1, Faces: []heuristic.Result{smiling}}, nil)
	if err := r.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	sess, err := s.Sessions().GetByID(r.SessionID())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sess.Source != "Videos/2.mp4" || sess.Frames != 1 || sess.Smiles != 1 {
		t.Errorf("unexpected session %+v", sess)
	}
	if sess.EyeThreshold != heuristic.DefaultEyeClosedThreshold {
		t.Errorf("eye threshold = %f", sess.EyeThreshold)
	}
	if sess.EndedAt == nil {
		t.Error("EndedAt should be set")
	}
}

type collectSink struct {
	mu     sync.Mutex
	events []alert.Event
}

func (c *collectSink) Name() string { return "collect" }

func (c *collectSink) Send(_ context.Context, ev alert.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func TestAlerts_ObserveFrame(t *testing.T) {
	d := alert.NewDispatcher(alert.DispatcherConfig{}, logging.Discard())
	sink := &collectSink{}
	d.AddRecorder(sink)

	obs := NewAlerts("sess-1", d)
	ctx := context.Background()

	obs.ObserveFrame(ctx, FrameAnalysis{Frame: 1, Faces: []heuristic.Result{smiling}}, nil)
	obs.ObserveFrame(ctx, FrameAnalysis{Frame: 2, Faces: []heuristic.Result{smiling}}, nil)
	obs.ObserveFrame(ctx, FrameAnalysis{Frame: 3, Faces: []heuristic.Result{sleepy}}, nil)

	kinds := make([]alert.Kind, 0, len(sink.events))
	for _, ev := range sink.events {
		if ev.Session != "sess-1" {
			t.Errorf("event without session: %+v", ev)
		}
		kinds = append(kinds, ev.Kind)
	}

	want := []alert.Kind{alert.KindSmile, alert.KindEyesClosed, alert.KindSmile, alert.KindDanger}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds = %v, want %v", kinds, want)
			break
		}
	}
}

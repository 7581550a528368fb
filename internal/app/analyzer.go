// Package app runs the capture, detect, evaluate and render loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/facemesh/internal/capture"
	"github.com/ayusman/facemesh/internal/detector"
	"github.com/ayusman/facemesh/internal/display"
	"github.com/ayusman/facemesh/internal/heuristic"
	"github.com/ayusman/facemesh/internal/render"
)

// FrameAnalysis is what the loop learned about one frame.
type FrameAnalysis struct {
	Frame  int64              `json:"frame"`
	Time   time.Time          `json:"time"`
	Faces  []heuristic.Result `json:"faces"`
	Motion float64            `json:"motion"`
}

// Observer is notified after every analyzed frame, before it is shown.
// The composite is only valid for the duration of the call.
type Observer interface {
	ObserveFrame(ctx context.Context, analysis FrameAnalysis, composite *gocv.Mat)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, analysis FrameAnalysis, composite *gocv.Mat)

// ObserveFrame calls f.
func (f ObserverFunc) ObserveFrame(ctx context.Context, analysis FrameAnalysis, composite *gocv.Mat) {
	f(ctx, analysis, composite)
}

// Config wires the analyzer. Source and Detector are required. A nil
// Display runs headless.
type Config struct {
	Source    capture.Source
	Detector  detector.Detector
	Evaluator *heuristic.Evaluator
	Renderer  *render.Renderer
	Display   display.Display
	Activity  *capture.ActivityMeter
	Observers []Observer
	Log       logrus.FieldLogger
}

// Analyzer owns the frame loop.
type Analyzer struct {
	source    capture.Source
	detector  detector.Detector
	evaluator *heuristic.Evaluator
	renderer  *render.Renderer
	display   display.Display
	activity  *capture.ActivityMeter
	observers []Observer
	log       logrus.FieldLogger
	frames    int64
}

// New validates cfg and fills in defaults for the evaluator and renderer.
func New(cfg Config) (*Analyzer, error) {
	if cfg.Source == nil {
		return nil, errors.New("app: source is required")
	}
	if cfg.Detector == nil {
		return nil, errors.New("app: detector is required")
	}

	a := &Analyzer{
		source:    cfg.Source,
		detector:  cfg.Detector,
		evaluator: cfg.Evaluator,
		renderer:  cfg.Renderer,
		display:   cfg.Display,
		activity:  cfg.Activity,
		observers: cfg.Observers,
		log:       cfg.Log,
	}
	if a.evaluator == nil {
		a.evaluator = heuristic.NewEvaluator(heuristic.DefaultThresholds())
	}
	if a.renderer == nil {
		a.renderer = render.New(render.DefaultOptions())
	}
	if a.log == nil {
		a.log = logrus.New()
	}
	a.log = a.log.WithField("source", cfg.Source.Target().String())

	return a, nil
}

// Frames returns the number of frames analyzed so far.
func (a *Analyzer) Frames() int64 {
	return a.frames
}

// Run opens the source and processes frames until the stream ends, the quit
// key is pressed, ctx is cancelled or the detector fails. The source and
// the display are released on every path. Only detector and open errors
// are returned.
func (a *Analyzer) Run(ctx context.Context) error {
	defer a.closeDisplay()

	if err := a.source.Open(); err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer a.closeSource()

	a.log.Info("capture started")

	for {
		select {
		case <-ctx.Done():
			a.log.Info("capture interrupted")
			return nil
		default:
		}

		frame, err := a.source.ReadFrame()
		if err != nil {
			a.log.WithError(err).Info("Failed to grab frame.")
			return nil
		}

		quit, err := a.step(ctx, frame)
		frame.Close()
		if err != nil {
			return err
		}
		if quit {
			a.log.Info("quit key pressed")
			return nil
		}
	}
}

func (a *Analyzer) closeSource() {
	if err := a.source.Close(); err != nil {
		a.log.WithError(err).Warn("close source")
	}
	a.log.WithField("frames", a.frames).Info("capture released")
}

// closeDisplay runs even when the source never opened.
func (a *Analyzer) closeDisplay() {
	if a.display == nil {
		return
	}
	if err := a.display.Close(); err != nil {
		a.log.WithError(err).Warn("close display")
	}
}

// step analyzes one frame, notifies observers and shows the composite.
// It reports whether the quit key was pressed.
func (a *Analyzer) step(ctx context.Context, frame *gocv.Mat) (bool, error) {
	analysis, composite, err := a.ProcessFrame(frame)
	if err != nil {
		return false, err
	}
	defer composite.Close()

	for _, o := range a.observers {
		o.ObserveFrame(ctx, analysis, &composite)
	}

	if a.display == nil {
		return false, nil
	}
	a.display.Show(&composite)
	return display.IsQuit(a.display.PollKey()), nil
}

// ProcessFrame converts the BGR frame to RGB for the detector, evaluates
// every face and renders the composite. frame is not modified. On success
// the caller closes the returned Mat; on error it must not be used.
func (a *Analyzer) ProcessFrame(frame *gocv.Mat) (FrameAnalysis, gocv.Mat, error) {
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(*frame, &rgb, gocv.ColorBGRToRGB)

	faces, err := a.detector.Detect(&rgb)
	if err != nil {
		return FrameAnalysis{}, gocv.Mat{}, fmt.Errorf("detect faces: %w", err)
	}

	results := a.evaluator.EvaluateAll(faces)
	composite := a.renderer.Compose(*frame, faces, results)

	a.frames++
	analysis := FrameAnalysis{
		Frame: a.frames,
		Time:  time.Now(),
		Faces: results,
	}
	if a.activity != nil {
		if pct, ok := a.activity.Measure(frame); ok {
			analysis.Motion = pct
		}
	}

	if len(results) > 0 {
		a.log.WithFields(logrus.Fields{
			"frame": analysis.Frame,
			"faces": len(results),
		}).Debug("faces evaluated")
	}

	return analysis, composite, nil
}

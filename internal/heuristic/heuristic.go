// Package heuristic evaluates eye-closed and smile flags from face landmarks.
package heuristic

import (
	"math"

	"github.com/ayusman/facemesh/internal/detector"
)

// Default thresholds in normalized landmark units.
const (
	DefaultEyeClosedThreshold = 0.017
	DefaultSmileThreshold     = 0.017
)

// Thresholds holds the distance thresholds used by the Evaluator.
type Thresholds struct {
	// EyeClosed is the eyelid gap below which an eye counts as closed.
	EyeClosed float64
	// Smile is the mouth-corner distance above which a face counts as smiling.
	Smile float64
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EyeClosed: DefaultEyeClosedThreshold,
		Smile:     DefaultSmileThreshold,
	}
}

// Result is the evaluation of a single face in a single frame.
type Result struct {
	LeftEye    float64 `json:"left_eye"`
	RightEye   float64 `json:"right_eye"`
	Mouth      float64 `json:"mouth"`
	EyesClosed bool    `json:"eyes_closed"`
	Smile      bool    `json:"smile"`
}

// Danger is the inverse of Smile. A face that is not smiling is reported
// as danger.
func (r Result) Danger() bool {
	return !r.Smile
}

// Distance returns the Euclidean distance between two landmarks in the
// image plane. Depth is ignored.
func Distance(a, b detector.Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Evaluator applies fixed thresholds to face landmarks.
// It keeps no state between calls.
type Evaluator struct {
	thresholds Thresholds
}

// NewEvaluator creates an Evaluator with the given thresholds.
func NewEvaluator(t Thresholds) *Evaluator {
	return &Evaluator{thresholds: t}
}

// Thresholds returns the thresholds the evaluator was built with.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate computes the eyelid and mouth-corner distances of a face and
// compares them to the thresholds. Both comparisons are strict.
func (e *Evaluator) Evaluate(face *detector.FaceLandmarks) Result {
	r := Result{
		RightEye: Distance(face.Points[detector.RightEyeUpper], face.Points[detector.RightEyeLower]),
		LeftEye:  Distance(face.Points[detector.LeftEyeUpper], face.Points[detector.LeftEyeLower]),
		Mouth:    Distance(face.Points[detector.MouthLeft], face.Points[detector.MouthRight]),
	}

	r.EyesClosed = r.LeftEye < e.thresholds.EyeClosed || r.RightEye < e.thresholds.EyeClosed
	r.Smile = r.Mouth > e.thresholds.Smile

	return r
}

// EvaluateAll evaluates every face independently.
func (e *Evaluator) EvaluateAll(faces []detector.FaceLandmarks) []Result {
	results := make([]Result, len(faces))
	for i := range faces {
		results[i] = e.Evaluate(&faces[i])
	}
	return results
}

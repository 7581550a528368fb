package detector

import "gocv.io/x/gocv"

// Detector defines the interface for face landmark detection implementations.
type Detector interface {
	// Detect analyzes an RGB video frame and returns the landmarks of every
	// detected face. Returns an empty slice if no faces are detected.
	Detect(frame *gocv.Mat) ([]FaceLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for face mesh detection.
type Config struct {
	// MaxFaces is the maximum number of faces to detect (default: 4).
	MaxFaces int
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64
	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
	// ScriptPath overrides the lookup of facemesh_service.py.
	ScriptPath string
	// Python overrides the interpreter used to run the service script.
	Python string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxFaces:        4,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

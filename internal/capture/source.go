// Package capture provides video frame sources backed by GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultCameraID is the device index of the live camera.
const DefaultCameraID = 0

var (
	// ErrSourceNotOpen is returned when trying to read from a source that is not open.
	ErrSourceNotOpen = errors.New("source is not open")
	// ErrEndOfStream is returned when a source has no more frames, either
	// because a file ended or a device stopped delivering.
	ErrEndOfStream = errors.New("end of stream")
)

// Target identifies what to capture from: a camera device or a video file.
type Target struct {
	DeviceID int
	Path     string
}

// CameraTarget returns a Target for the given camera device.
func CameraTarget(deviceID int) Target {
	return Target{DeviceID: deviceID}
}

// FileTarget returns a Target for the given video file.
func FileTarget(path string) Target {
	return Target{Path: path}
}

// IsCamera reports whether the target is a camera device.
func (t Target) IsCamera() bool {
	return t.Path == ""
}

// String returns "camera:<id>" or the file path.
func (t Target) String() string {
	if t.IsCamera() {
		return "camera:" + strconv.Itoa(t.DeviceID)
	}
	return t.Path
}

// Source defines the interface for frame sources.
type Source interface {
	Open() error
	Close() error
	// ReadFrame returns the next BGR frame. The caller closes it.
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
	Target() Target
}

// videoSource reads frames from a camera or a file through gocv.VideoCapture.
type videoSource struct {
	target  Target
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewSource creates a Source for the given target. Nothing is opened until Open.
func NewSource(target Target) Source {
	return &videoSource{
		target: target,
	}
}

// Open opens the camera device or video file.
func (s *videoSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	var device interface{} = s.target.DeviceID
	if !s.target.IsCamera() {
		device = s.target.Path
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.target, err)
	}

	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open %s: capture not opened", s.target)
	}

	s.capture = capture
	s.running = true

	return nil
}

// Close releases the capture handle. It is safe to call more than once.
func (s *videoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		s.running = false
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	s.running = false

	return err
}

// ReadFrame reads a single frame.
// The caller is responsible for closing the returned Mat.
func (s *videoSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok {
		mat.Close()
		return nil, ErrEndOfStream
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrEndOfStream
	}

	return &mat, nil
}

// IsOpen returns true if the source is currently open.
func (s *videoSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Target returns what the source captures from.
func (s *videoSource) Target() Target {
	return s.target
}

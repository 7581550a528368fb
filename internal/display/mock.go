package display

import (
	"gocv.io/x/gocv"
)

// MockDisplay records shown frames and replays scripted key presses.
type MockDisplay struct {
	keys   []int
	shown  int
	polls  int
	closed bool
	last   gocv.Mat
}

// NewMockDisplay returns a display that answers PollKey with keys in order,
// then -1.
func NewMockDisplay(keys ...int) *MockDisplay {
	return &MockDisplay{keys: keys, last: gocv.NewMat()}
}

// Show keeps a copy of the frame.
func (m *MockDisplay) Show(frame *gocv.Mat) {
	m.shown++
	frame.CopyTo(&m.last)
}

// PollKey returns the next scripted key.
func (m *MockDisplay) PollKey() int {
	m.polls++
	if len(m.keys) == 0 {
		return -1
	}
	k := m.keys[0]
	m.keys = m.keys[1:]
	return k
}

// Close releases the copy of the last frame.
func (m *MockDisplay) Close() error {
	m.closed = true
	return m.last.Close()
}

// Shown returns the number of frames shown.
func (m *MockDisplay) Shown() int { return m.shown }

// Polls returns the number of PollKey calls.
func (m *MockDisplay) Polls() int { return m.polls }

// Closed reports whether Close was called.
func (m *MockDisplay) Closed() bool { return m.closed }

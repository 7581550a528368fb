// Package display shows composited frames and polls for key presses.
package display

import (
	"gocv.io/x/gocv"
)

// DefaultTitle is the title of the preview window.
const DefaultTitle = "Output"

// QuitKey stops the capture loop when pressed in the preview window.
const QuitKey = 'q'

// Display is a surface that shows frames and reports key presses.
type Display interface {
	Show(frame *gocv.Mat)
	// PollKey waits briefly for a key press and returns its code, or -1.
	PollKey() int
	Close() error
}

// IsQuit reports whether a key code returned by PollKey requests quitting.
// Only the low byte is compared, modifier bits are ignored.
func IsQuit(key int) bool {
	return key >= 0 && key&0xFF == QuitKey
}

// Window is a highgui preview window.
type Window struct {
	window *gocv.Window
	delay  int
}

// NewWindow creates a preview window with the given title.
func NewWindow(title string) *Window {
	return &Window{
		window: gocv.NewWindow(title),
		delay:  1,
	}
}

// Show displays a frame.
func (w *Window) Show(frame *gocv.Mat) {
	w.window.IMShow(*frame)
}

// PollKey processes window events for one millisecond and returns the key
// code, or -1 if no key was pressed.
func (w *Window) PollKey() int {
	return w.window.WaitKey(w.delay)
}

// Close closes the window.
func (w *Window) Close() error {
	if w.window != nil {
		err := w.window.Close()
		w.window = nil
		return err
	}
	return nil
}

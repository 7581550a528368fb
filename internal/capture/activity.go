package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Activity meter constants.
const (
	// ActivityBlurSize is the Gaussian kernel applied before differencing.
	ActivityBlurSize = 21
	// ActivityDiffThreshold is the per-pixel gray-level change that counts.
	ActivityDiffThreshold = 25
)

// ActivityMeter reports how much of the picture changed since the previous
// frame. It is informational only and never gates detection.
type ActivityMeter struct {
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewActivityMeter creates a meter with no baseline.
func NewActivityMeter() *ActivityMeter {
	return &ActivityMeter{
		prevGray: gocv.NewMat(),
	}
}

// Measure returns the percentage (0-100) of pixels that changed against the
// previous frame. ok is false for the first frame, an empty frame, or a
// frame whose size differs from the baseline; the baseline is replaced in
// the last two cases.
//
// Frames are converted to gray and blurred, then differenced and
// thresholded at ActivityDiffThreshold.
func (m *ActivityMeter) Measure(frame *gocv.Mat) (percent float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return 0, false
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: ActivityBlurSize, Y: ActivityBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized || blurred.Rows() != m.prevGray.Rows() || blurred.Cols() != m.prevGray.Cols() {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return 0, false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, ActivityDiffThreshold, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(mask)
	total := mask.Rows() * mask.Cols()

	blurred.CopyTo(&m.prevGray)

	if total == 0 {
		return 0, false
	}
	return float64(changed) / float64(total) * 100.0, true
}

// Reset drops the baseline so the next frame starts over.
func (m *ActivityMeter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline frame. The meter stays usable.
func (m *ActivityMeter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *ActivityMeter) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

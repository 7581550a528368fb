package server

import (
	"context"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/ayusman/facemesh/internal/app"
)

// FrameHub holds the latest composite as JPEG and fans analysis messages
// out to subscribers. The capture loop publishes; HTTP handlers read.
type FrameHub struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	updated chan struct{}

	viewers atomic.Int32

	subMu sync.RWMutex
	subs  map[chan []byte]struct{}
}

// NewFrameHub creates an empty hub.
func NewFrameHub() *FrameHub {
	return &FrameHub{
		updated: make(chan struct{}),
		subs:    make(map[chan []byte]struct{}),
	}
}

// ObserveFrame implements app.Observer. The composite is encoded only
// while someone watches the stream.
func (h *FrameHub) ObserveFrame(_ context.Context, analysis app.FrameAnalysis, composite *gocv.Mat) {
	if h.viewers.Load() > 0 && composite != nil && !composite.Empty() {
		if buf, err := gocv.IMEncode(".jpg", *composite); err == nil {
			data := append([]byte(nil), buf.GetBytes()...)
			buf.Close()
			h.PublishJPEG(data)
		}
	}
	h.PublishAnalysis(analysis)
}

// PublishJPEG replaces the latest frame and wakes waiting readers.
func (h *FrameHub) PublishJPEG(data []byte) {
	h.mu.Lock()
	h.jpeg = data
	h.seq++
	close(h.updated)
	h.updated = make(chan struct{})
	h.mu.Unlock()
}

// Latest returns the latest frame and its sequence number.
func (h *FrameHub) Latest() ([]byte, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.jpeg, h.seq
}

// Next blocks until a frame newer than after is available or ctx ends.
func (h *FrameHub) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		h.mu.Lock()
		if h.seq > after && h.jpeg != nil {
			data, seq := h.jpeg, h.seq
			h.mu.Unlock()
			return data, seq, nil
		}
		wait := h.updated
		h.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, after, ctx.Err()
		}
	}
}

// Watch registers a stream viewer. The returned func unregisters it.
func (h *FrameHub) Watch() func() {
	h.viewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { h.viewers.Add(-1) })
	}
}

// Viewers returns the number of active stream viewers.
func (h *FrameHub) Viewers() int {
	return int(h.viewers.Load())
}

// PublishAnalysis sends analysis as JSON to every subscriber. Slow
// subscribers miss messages rather than block the capture loop.
func (h *FrameHub) PublishAnalysis(analysis app.FrameAnalysis) {
	h.subMu.RLock()
	defer h.subMu.RUnlock()

	if len(h.subs) == 0 {
		return
	}

	msg, err := json.Marshal(analysis)
	if err != nil {
		return
	}

	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe returns a channel of analysis messages and a cancel func that
// closes it.
func (h *FrameHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 16)

	h.subMu.Lock()
	h.subs[ch] = struct{}{}
	h.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.subMu.Lock()
			delete(h.subs, ch)
			h.subMu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of analysis subscribers.
func (h *FrameHub) Subscribers() int {
	h.subMu.RLock()
	defer h.subMu.RUnlock()
	return len(h.subs)
}

package alert

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DispatcherConfig controls rate limiting and sink timeouts.
type DispatcherConfig struct {
	// Rate is the sustained number of events per second. Zero or less
	// disables limiting.
	Rate float64
	// Burst is the number of events allowed at once.
	Burst int
	// SinkTimeout bounds every Send call.
	SinkTimeout time.Duration
}

// Stats counts dispatcher outcomes. Delivered counts notifier sends only;
// recorder writes are counted in Recorded.
type Stats struct {
	Delivered int64
	Recorded  int64
	Dropped   int64
	Failed    int64
}

// Dispatcher fans events out to sinks. Notifier sinks sit behind a token
// bucket; recorder sinks receive every event.
type Dispatcher struct {
	limiter   *rate.Limiter
	timeout   time.Duration
	notifiers []Sink
	recorders []Sink
	log       logrus.FieldLogger

	delivered atomic.Int64
	recorded  atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewDispatcher creates a dispatcher without sinks.
func NewDispatcher(cfg DispatcherConfig, log logrus.FieldLogger) *Dispatcher {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	timeout := cfg.SinkTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &Dispatcher{
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
		log:     log.WithField("component", "alert"),
	}
}

// AddNotifier registers a rate-limited sink.
func (d *Dispatcher) AddNotifier(s Sink) {
	d.notifiers = append(d.notifiers, s)
}

// AddRecorder registers a sink that sees every event.
func (d *Dispatcher) AddRecorder(s Sink) {
	d.recorders = append(d.recorders, s)
}

// Sinks returns the number of registered sinks.
func (d *Dispatcher) Sinks() int {
	return len(d.notifiers) + len(d.recorders)
}

// Dispatch delivers events in order. Sink errors are logged and counted;
// they never abort the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) {
	for _, ev := range events {
		for _, s := range d.recorders {
			if d.send(ctx, s, ev) {
				d.recorded.Add(1)
			}
		}

		if len(d.notifiers) == 0 {
			continue
		}
		if !d.limiter.Allow() {
			d.dropped.Add(1)
			d.log.WithFields(logrus.Fields{
				"kind": ev.Kind,
				"face": ev.Face,
			}).Debug("alert dropped by rate limit")
			continue
		}
		for _, s := range d.notifiers {
			if d.send(ctx, s, ev) {
				d.delivered.Add(1)
			}
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, s Sink, ev Event) bool {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := s.Send(ctx, ev); err != nil {
		d.failed.Add(1)
		d.log.WithFields(logrus.Fields{
			"sink": s.Name(),
			"kind": ev.Kind,
		}).WithError(err).Warn("alert delivery failed")
		return false
	}
	return true
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Recorded:  d.recorded.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}

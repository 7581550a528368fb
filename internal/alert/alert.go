// Package alert turns per-face heuristic transitions into events and
// delivers them to sinks.
package alert

import (
	"context"
	"time"

	"github.com/ayusman/facemesh/internal/heuristic"
)

// Kind names a heuristic flag.
type Kind string

const (
	KindEyesClosed Kind = "eyes_closed"
	KindSmile      Kind = "smile"
	KindDanger     Kind = "danger"
)

// Event reports a flag turning on (Active) or off for one face.
type Event struct {
	Kind    Kind             `json:"kind"`
	Active  bool             `json:"active"`
	Session string           `json:"session,omitempty"`
	Frame   int64            `json:"frame"`
	Face    int              `json:"face"`
	Result  heuristic.Result `json:"result"`
	Time    time.Time        `json:"time"`
}

// Sink receives events.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

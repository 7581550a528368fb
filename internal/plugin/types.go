// Package plugin discovers and runs alert hook executables.
package plugin

import "encoding/json"

// Manifest describes a hook and the event kinds it wants.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Accepts reports whether the hook subscribes to kind.
// A manifest without events accepts every kind.
func (m Manifest) Accepts(kind string) bool {
	if len(m.Events) == 0 {
		return true
	}
	for _, e := range m.Events {
		if e == kind {
			return true
		}
	}
	return false
}

// Request is written to a hook's stdin as JSON.
type Request struct {
	Event   string          `json:"event"`
	Active  bool            `json:"active"`
	Session string          `json:"session,omitempty"`
	Frame   int64           `json:"frame"`
	Face    int             `json:"face"`
	Config  json.RawMessage `json:"config,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is read from a hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered hook with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

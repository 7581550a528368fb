// Package api provides HTTP handlers for recorded sessions.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ayusman/facemesh/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SessionHandler serves /api/sessions, /api/sessions/{id} and
// /api/sessions/{id}/events.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case rest == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case rest == "events" && r.Method == http.MethodGet:
		h.events(w, r, id)
	case rest == "" || rest == "events":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type sessionResponse struct {
	ID             string  `json:"id"`
	Source         string  `json:"source"`
	EyeThreshold   float64 `json:"eye_threshold"`
	SmileThreshold float64 `json:"smile_threshold"`
	Frames         int64   `json:"frames"`
	Faces          int64   `json:"faces"`
	EyesClosed     int64   `json:"eyes_closed"`
	Smiles         int64   `json:"smiles"`
	Dangers        int64   `json:"dangers"`
	StartedAt      string  `json:"started_at"`
	EndedAt        string  `json:"ended_at,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type eventResponse struct {
	ID        int64   `json:"id"`
	Frame     int64   `json:"frame"`
	Face      int     `json:"face"`
	Kind      string  `json:"kind"`
	Active    bool    `json:"active"`
	LeftEye   float64 `json:"left_eye"`
	RightEye  float64 `json:"right_eye"`
	Mouth     float64 `json:"mouth"`
	CreatedAt string  `json:"created_at"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:             s.ID,
		Source:         s.Source,
		EyeThreshold:   s.EyeThreshold,
		SmileThreshold: s.SmileThreshold,
		Frames:         s.Frames,
		Faces:          s.Faces,
		EyesClosed:     s.EyesClosed,
		Smiles:         s.Smiles,
		Dangers:        s.Dangers,
		StartedAt:      s.StartedAt.Format(time.RFC3339),
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return resp
}

func toEventResponse(e *store.Event) eventResponse {
	return eventResponse{
		ID:        e.ID,
		Frame:     e.Frame,
		Face:      e.Face,
		Kind:      e.Kind,
		Active:    e.Active,
		LeftEye:   e.LeftEye,
		RightEye:  e.RightEye,
		Mouth:     e.Mouth,
		CreatedAt: e.CreatedAt.Format(time.RFC3339Nano),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) events(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	events, err := h.store.Events().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	response := listEventsResponse{Events: make([]eventResponse, 0, len(events))}
	for _, e := range events {
		response.Events = append(response.Events, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, response)
}

package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// AnalysisHandler pushes one JSON message per analyzed frame over a
// websocket.
type AnalysisHandler struct {
	hub *FrameHub
	log logrus.FieldLogger
}

// NewAnalysisHandler creates a new AnalysisHandler reading from hub.
func NewAnalysisHandler(hub *FrameHub, log logrus.FieldLogger) *AnalysisHandler {
	return &AnalysisHandler{hub: hub, log: log}
}

// ServeHTTP upgrades the connection and forwards messages until either side
// goes away.
func (h *AnalysisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	msgs, cancel := h.hub.Subscribe()
	defer cancel()

	// Reads only detect the client closing
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

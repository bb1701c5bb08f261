package handlers

import (
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/vaibh/video-dubbing/internal/session"
	"github.com/vaibh/video-dubbing/internal/types"
)

const progressPushInterval = 500 * time.Millisecond

// ProgressHandler pushes session status snapshots over a WebSocket until
// the session reaches a terminal state. Polling GET /dub/status remains the
// contract; this is a convenience for interactive clients.
type ProgressHandler struct {
	registry *session.Registry
}

// NewProgressHandler creates a progress handler.
func NewProgressHandler(registry *session.Registry) *ProgressHandler {
	return &ProgressHandler{registry: registry}
}

type progressUpdate struct {
	SessionID   string   `json:"session_id"`
	Status      string   `json:"status"`
	Progress    int      `json:"progress"`
	Error       string   `json:"error,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Handle streams snapshots for the session named in the route.
func (h *ProgressHandler) Handle(c *websocket.Conn) {
	defer c.Close()
	sessionID := c.Params("id")

	ticker := time.NewTicker(progressPushInterval)
	defer ticker.Stop()

	lastProgress := -1
	var lastStatus string
	for {
		s, err := h.registry.Get(sessionID)
		if err != nil {
			c.WriteJSON(map[string]string{"error": "Session not found"})
			return
		}

		if s.Status != lastStatus || s.Progress != lastProgress {
			update := progressUpdate{
				SessionID:   s.ID,
				Status:      s.Status,
				Progress:    s.Progress,
				Error:       s.Error,
				Diagnostics: s.Diagnostics,
			}
			if err := c.WriteJSON(update); err != nil {
				log.Printf("Progress push write failed for %s: %v", sessionID, err)
				return
			}
			lastStatus, lastProgress = s.Status, s.Progress
		}
		if types.IsTerminal(s.Status) {
			return
		}
		<-ticker.C
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vaibh/video-dubbing/internal/pipeline"
	"github.com/vaibh/video-dubbing/internal/session"
	"github.com/vaibh/video-dubbing/internal/translation"
	"github.com/vaibh/video-dubbing/internal/types"
)

// Submitter starts a dubbing run for a request.
type Submitter interface {
	Submit(req pipeline.Request) session.Session
}

// DubHandler handles dubbing submissions and status polling.
type DubHandler struct {
	submitter Submitter
	registry  *session.Registry
}

// NewDubHandler creates a dub handler.
func NewDubHandler(submitter Submitter, registry *session.Registry) *DubHandler {
	return &DubHandler{
		submitter: submitter,
		registry:  registry,
	}
}

// DubRequest is the submission body.
type DubRequest struct {
	URL            string `json:"url"`
	TargetLanguage string `json:"target_language"`
	VoiceOption    string `json:"voice_option"`
	VoiceStyle     string `json:"voice_style"`
}

// Submit validates the request, registers a session, and starts the
// pipeline in the background. The response carries the session id for
// status polling.
func (h *DubHandler) Submit(c *fiber.Ctx) error {
	var req DubRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.URL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "URL is required",
			"code":  "ERR_NO_URL",
		})
	}
	if _, ok := translation.SupportedLanguages[req.TargetLanguage]; !ok {
		return c.Status(400).JSON(fiber.Map{
			"error": "Unsupported target language: " + req.TargetLanguage,
			"code":  "ERR_UNSUPPORTED_LANGUAGE",
		})
	}
	if req.VoiceOption == "" {
		req.VoiceOption = "clone"
	}
	if req.VoiceStyle == "" {
		req.VoiceStyle = "natural"
	}

	sessionID := uuid.New().String()
	h.submitter.Submit(pipeline.Request{
		SessionID:      sessionID,
		URL:            req.URL,
		TargetLanguage: req.TargetLanguage,
		VoiceOption:    req.VoiceOption,
		VoiceStyle:     req.VoiceStyle,
	})

	return c.JSON(fiber.Map{
		"success":    true,
		"session_id": sessionID,
		"status":     "processing",
		"progress":   0,
	})
}

// Status returns a snapshot of the session. After a failure it always
// reports the failed state with its message, never a partial result.
func (h *DubHandler) Status(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	s, err := h.registry.Get(sessionID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Session not found",
			"code":  "ERR_SESSION_NOT_FOUND",
		})
	}

	resp := fiber.Map{
		"success":    true,
		"session_id": s.ID,
		"status":     s.Status,
		"progress":   s.Progress,
	}
	if len(s.Diagnostics) > 0 {
		resp["diagnostics"] = s.Diagnostics
	}
	switch s.Status {
	case types.StatusCompleted:
		resp["video_url"] = "/video/" + s.ID
		resp["download_url"] = "/download/" + s.ID
	case types.StatusFailed:
		resp["error"] = s.Error
	}
	return c.JSON(resp)
}

package handlers

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/vaibh/video-dubbing/internal/session"
	"github.com/vaibh/video-dubbing/internal/types"
)

// FileHandler serves completed dubbed videos for streaming and download.
type FileHandler struct {
	registry *session.Registry
}

// NewFileHandler creates a file handler.
func NewFileHandler(registry *session.Registry) *FileHandler {
	return &FileHandler{registry: registry}
}

// Video streams the dubbed video inline for viewing.
func (h *FileHandler) Video(c *fiber.Ctx) error {
	path, err := h.completedVideoPath(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Video not found or not ready",
			"code":  "ERR_VIDEO_NOT_READY",
		})
	}
	c.Set(fiber.HeaderContentDisposition, "inline")
	c.Set(fiber.HeaderContentType, "video/mp4")
	return c.SendFile(path)
}

// Download serves the dubbed video as an attachment.
func (h *FileHandler) Download(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	path, err := h.completedVideoPath(sessionID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Video not found or not ready",
			"code":  "ERR_VIDEO_NOT_READY",
		})
	}
	return c.Download(path, fmt.Sprintf("dubbed_video_%s.mp4", sessionID))
}

func (h *FileHandler) completedVideoPath(sessionID string) (string, error) {
	s, err := h.registry.Get(sessionID)
	if err != nil {
		return "", err
	}
	if s.Status != types.StatusCompleted || s.VideoPath == "" {
		return "", fmt.Errorf("session %s not completed", sessionID)
	}
	if _, err := os.Stat(s.VideoPath); err != nil {
		return "", err
	}
	return s.VideoPath, nil
}

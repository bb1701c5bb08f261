package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/vaibh/video-dubbing/internal/tts"
)

const maxPrebuiltVoices = 10

// VoiceLister fetches the synthesis provider's voice catalog.
type VoiceLister interface {
	Voices(ctx context.Context) ([]tts.Voice, error)
}

// VoicesHandler exposes dubbing voice options.
type VoicesHandler struct {
	client VoiceLister
}

// NewVoicesHandler creates a voices handler.
func NewVoicesHandler(client VoiceLister) *VoicesHandler {
	return &VoicesHandler{client: client}
}

// Handle returns the organized voice options: the cloning pseudo-voice plus
// a selection of prebuilt voices. When the provider is unreachable a minimal
// default set is returned instead of an error.
func (h *VoicesHandler) Handle(c *fiber.Ctx) error {
	cloneOption := fiber.Map{
		"id":          "clone",
		"name":        "Voice Cloning (Match Original Speaker)",
		"description": "AI will clone the original speaker's voice",
		"default":     true,
	}

	voices, err := h.client.Voices(c.Context())
	if err != nil {
		return c.JSON(fiber.Map{"voices": fiber.Map{
			"clone": cloneOption,
			"prebuilt": []fiber.Map{{
				"id":          "pNInz6obpgDQGcFmaJgB",
				"name":        "Adam",
				"description": "American, middle-aged male",
				"accent":      "American",
				"gender":      "Male",
				"age":         "Middle Aged",
			}},
		}})
	}

	prebuilt := make([]fiber.Map, 0, maxPrebuiltVoices)
	for _, voice := range voices {
		prebuilt = append(prebuilt, fiber.Map{
			"id":          voice.ID,
			"name":        voice.Name,
			"description": voice.Description,
			"accent":      voice.Labels["accent"],
			"gender":      voice.Labels["gender"],
			"age":         voice.Labels["age"],
		})
		if len(prebuilt) >= maxPrebuiltVoices {
			break
		}
	}

	return c.JSON(fiber.Map{"voices": fiber.Map{
		"clone":    cloneOption,
		"prebuilt": prebuilt,
	}})
}

// Package tts adapts the ElevenLabs voice-cloning and speech-synthesis API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vaibh/video-dubbing/internal/errs"
	"github.com/vaibh/video-dubbing/internal/types"
)

const (
	defaultBaseURL    = "https://api.elevenlabs.io/v1"
	requestTimeout    = 60 * time.Second
	voiceFetchTimeout = 30 * time.Second
	synthesisModel    = "eleven_multilingual_v2"

	// DefaultVoiceName labels voices cloned for one dubbing run.
	DefaultVoiceName = "temp_cloned_voice"

	// Cloning needs enough source material to work with.
	minCloneSourceBytes = 1024
)

// ElevenLabsClient talks to the ElevenLabs API.
type ElevenLabsClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewElevenLabsClient creates a client. The API key is required.
func NewElevenLabsClient(apiKey, baseURL string) (*ElevenLabsClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ELEVENLABS_API_KEY is not set")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ElevenLabsClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}, nil
}

// Voice is one entry from the provider's voice catalog.
type Voice struct {
	ID          string            `json:"voice_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Labels      map[string]string `json:"labels"`
}

// Voices lists the provider's available prebuilt voices.
func (c *ElevenLabsClient) Voices(ctx context.Context) ([]Voice, error) {
	ctx, cancel := context.WithTimeout(ctx, voiceFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "voices", "build request", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "voices", "request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "voices", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.Wrapf(errs.ErrUpstream, "voices", "", "%s: %s", resp.Status, string(body))
	}

	var payload struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "voices", "parse response", err)
	}
	return payload.Voices, nil
}

// CloneVoice creates a provider voice from the given audio file and returns
// its voice id. The caller owns the purchased voice; it is not rolled back
// on later pipeline failure.
func (c *ElevenLabsClient) CloneVoice(ctx context.Context, audioPath, voiceName string) (string, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", errs.Wrapf(errs.ErrNotFound, "clone voice", "", "audio file %s", audioPath)
	}
	if info.Size() < minCloneSourceBytes {
		return "", errs.Wrapf(errs.ErrUpstream, "clone voice", "", "audio file too small for cloning (%d bytes)", info.Size())
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "clone voice", "read audio", err)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("files", "audio.wav")
	if err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "clone voice", "build form", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "clone voice", "build form", err)
	}
	writer.WriteField("name", voiceName)
	writer.WriteField("description", "Voice cloned from original video")
	if err := writer.Close(); err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "clone voice", "build form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/voices/add", &form)
	if err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "clone voice", "build request", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "clone voice", "request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "clone voice", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errs.Wrapf(errs.ErrUpstream, "clone voice", "", "%s: %s", resp.Status, string(body))
	}

	var payload struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "clone voice", "parse response", err)
	}
	if payload.VoiceID == "" {
		return "", errs.Wrapf(errs.ErrIntegrity, "clone voice", "", "cloning succeeded but no voice_id in response")
	}
	return payload.VoiceID, nil
}

// Synthesize converts text to MP3 speech audio in the given voice. Each
// clip comes back at its own natural duration; nothing is stretched to fit
// the original slot.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string, settings types.VoiceSettings) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errs.Wrapf(errs.ErrUpstream, "synthesize", "", "empty text")
	}

	payload, err := json.Marshal(map[string]any{
		"text":           text,
		"model_id":       synthesisModel,
		"voice_settings": settings,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "synthesize", "build payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/text-to-speech/"+voiceID, bytes.NewReader(payload))
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "synthesize", "build request", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "synthesize", "request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "synthesize", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.Wrapf(errs.ErrUpstream, "synthesize", "", "%s: %s", resp.Status, string(body))
	}
	return body, nil
}

// FallbackVoice picks a prebuilt voice suited to the target language, used
// when voice cloning fails.
func FallbackVoice(targetLanguage string) string {
	switch targetLanguage {
	case "hi":
		return "pNInz6obpgDQGcFmaJgB" // Adam
	case "es", "pt":
		return "TxGEqnHWrfWFTfGW9XjX" // Josh
	default:
		return "21m00Tcm4TlvDq8ikWAM"
	}
}

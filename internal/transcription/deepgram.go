// Package transcription adapts the Deepgram prerecorded speech-to-text API.
package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vaibh/video-dubbing/internal/errs"
	"github.com/vaibh/video-dubbing/internal/types"
)

const (
	defaultBaseURL    = "https://api.deepgram.com"
	transcribeTimeout = 5 * time.Minute
)

// DeepgramTranscriber transcribes audio files with utterance, paragraph and
// word level timestamps.
type DeepgramTranscriber struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewDeepgramTranscriber creates a transcriber. The API key is required.
func NewDeepgramTranscriber(apiKey, baseURL string) (*DeepgramTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY is not set")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &DeepgramTranscriber{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: transcribeTimeout},
	}, nil
}

// Transcribe sends the audio file to Deepgram and returns the transcript
// with all timestamp granularities the provider offers.
func (d *DeepgramTranscriber) Transcribe(ctx context.Context, audioPath string) (*types.TranscriptionData, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrNotFound, "transcribe", "read audio", "%s", audioPath)
	}

	url := d.baseURL + "/v1/listen?model=nova-2&smart_format=true&punctuate=true&utterances=true&paragraphs=true&diarize=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(audio)))
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "transcribe", "build request", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", mimetypeFor(audioPath))

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "transcribe", "deepgram request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "transcribe", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.Wrapf(errs.ErrUpstream, "transcribe", "deepgram", "%s: %s", resp.Status, string(body))
	}

	data, err := parseResponse(body)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(data.Text) == "" {
		return nil, errs.Wrapf(errs.ErrUpstream, "transcribe", "deepgram", "no transcription was generated")
	}
	return data, nil
}

// Wire shapes for the slice of the Deepgram response we consume.
type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string       `json:"transcript"`
				Words      []types.Word `json:"words"`
				Paragraphs struct {
					Paragraphs []deepgramParagraph `json:"paragraphs"`
				} `json:"paragraphs"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []types.Utterance `json:"utterances"`
	} `json:"results"`
}

type deepgramParagraph struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Sentences []struct {
		Text string `json:"text"`
	} `json:"sentences"`
}

func parseResponse(body []byte) (*types.TranscriptionData, error) {
	var resp deepgramResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Wrap(errs.ErrUpstream, "transcribe", "parse response", err)
	}

	data := &types.TranscriptionData{
		Utterances: resp.Results.Utterances,
	}
	if len(resp.Results.Channels) > 0 {
		channel := resp.Results.Channels[0]
		if len(channel.Alternatives) > 0 {
			alternative := channel.Alternatives[0]
			data.Text = alternative.Transcript
			data.Words = alternative.Words
			for _, p := range alternative.Paragraphs.Paragraphs {
				parts := make([]string, 0, len(p.Sentences))
				for _, s := range p.Sentences {
					parts = append(parts, s.Text)
				}
				data.Paragraphs = append(data.Paragraphs, types.Paragraph{
					Start: p.Start,
					End:   p.End,
					Text:  strings.Join(parts, " "),
				})
			}
		}
	}
	return data, nil
}

// mimetypeFor maps a file extension to the Content-Type Deepgram expects.
func mimetypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".webm":
		return "audio/webm"
	case ".opus":
		return "audio/opus"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	default:
		return "audio/wav"
	}
}

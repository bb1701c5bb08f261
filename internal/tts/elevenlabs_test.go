package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/vaibh/video-dubbing/internal/errs"
	"github.com/vaibh/video-dubbing/internal/types"
)

func TestNewElevenLabsClientRequiresKey(t *testing.T) {
	if _, err := NewElevenLabsClient("", ""); err == nil {
		t.Fatal("empty API key should be rejected")
	}
}

func TestCloneVoiceValidatesSourceBeforeNetwork(t *testing.T) {
	c, _ := NewElevenLabsClient("key", "http://127.0.0.1:0")

	_, err := c.CloneVoice(context.Background(), "/nonexistent/audio.wav", "v")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing file: err = %v, want ErrNotFound", err)
	}

	tiny := filepath.Join(t.TempDir(), "tiny.wav")
	if err := os.WriteFile(tiny, []byte("too small"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = c.CloneVoice(context.Background(), tiny, "v")
	if !errors.Is(err, errs.ErrUpstream) {
		t.Fatalf("tiny file: err = %v, want ErrUpstream", err)
	}
}

func TestCloneVoiceSubmitsMultipartForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices/add" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "key" {
			t.Errorf("xi-api-key = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart parse failed: %v", err)
		}
		if got := r.FormValue("name"); got != "temp_cloned_voice" {
			t.Errorf("name = %q", got)
		}
		if _, _, err := r.FormFile("files"); err != nil {
			t.Errorf("files part missing: %v", err)
		}
		w.Write([]byte(`{"voice_id":"new-voice"}`))
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "extracted_audio.wav")
	if err := os.WriteFile(audio, bytes.Repeat([]byte("a"), 2048), 0644); err != nil {
		t.Fatal(err)
	}

	c, _ := NewElevenLabsClient("key", srv.URL)
	voiceID, err := c.CloneVoice(context.Background(), audio, DefaultVoiceName)
	if err != nil {
		t.Fatalf("CloneVoice failed: %v", err)
	}
	if voiceID != "new-voice" {
		t.Errorf("voiceID = %q", voiceID)
	}
}

func TestCloneVoiceEmptyVoiceID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(audio, bytes.Repeat([]byte("a"), 2048), 0644); err != nil {
		t.Fatal(err)
	}

	c, _ := NewElevenLabsClient("key", srv.URL)
	_, err := c.CloneVoice(context.Background(), audio, "v")
	if !errors.Is(err, errs.ErrIntegrity) {
		t.Fatalf("err = %v, want ErrIntegrity", err)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	c, _ := NewElevenLabsClient("key", "http://127.0.0.1:0")
	if _, err := c.Synthesize(context.Background(), "   ", "voice", types.VoiceSettings{}); err == nil {
		t.Fatal("empty text should be rejected before the network call")
	}
}

func TestSynthesizeSendsSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/voice-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "audio/mpeg" {
			t.Errorf("Accept = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Text          string `json:"text"`
			ModelID       string `json:"model_id"`
			VoiceSettings struct {
				Stability       float64 `json:"stability"`
				SimilarityBoost float64 `json:"similarity_boost"`
			} `json:"voice_settings"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("payload parse failed: %v", err)
		}
		if payload.Text != "Hola" {
			t.Errorf("text = %q", payload.Text)
		}
		if payload.ModelID != "eleven_multilingual_v2" {
			t.Errorf("model_id = %q", payload.ModelID)
		}
		if payload.VoiceSettings.Stability != 0.5 || payload.VoiceSettings.SimilarityBoost != 0.8 {
			t.Errorf("voice_settings = %+v", payload.VoiceSettings)
		}
		w.Write([]byte("mp3 bytes"))
	}))
	defer srv.Close()

	c, _ := NewElevenLabsClient("key", srv.URL)
	audio, err := c.Synthesize(context.Background(), "Hola", "voice-1", types.VoicePresets["natural"])
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "mp3 bytes" {
		t.Errorf("audio = %q", audio)
	}
}

func TestVoicesParsesCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"voices":[{"voice_id":"v1","name":"Rachel","category":"premade"},{"voice_id":"v2","name":"Adam","category":"premade"}]}`))
	}))
	defer srv.Close()

	c, _ := NewElevenLabsClient("key", srv.URL)
	voices, err := c.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices failed: %v", err)
	}
	if len(voices) != 2 || voices[0].ID != "v1" || voices[1].Name != "Adam" {
		t.Errorf("voices = %+v", voices)
	}
}

func TestFallbackVoice(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"hi", "pNInz6obpgDQGcFmaJgB"},
		{"es", "TxGEqnHWrfWFTfGW9XjX"},
		{"pt", "TxGEqnHWrfWFTfGW9XjX"},
		{"fr", "21m00Tcm4TlvDq8ikWAM"},
		{"", "21m00Tcm4TlvDq8ikWAM"},
	}
	for _, tt := range tests {
		if got := FallbackVoice(tt.lang); got != tt.want {
			t.Errorf("FallbackVoice(%q) = %q, want %q", tt.lang, got, tt.want)
		}
	}
}

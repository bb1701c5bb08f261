// Package pipeline drives a dubbing job through its stages: transcription,
// translation, speech synthesis, timing reconciliation, and the final mux.
// Each collaborator sits behind a capability interface so providers are a
// configuration-time choice.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/vaibh/video-dubbing/internal/session"
	"github.com/vaibh/video-dubbing/internal/storage"
	"github.com/vaibh/video-dubbing/internal/timing"
	"github.com/vaibh/video-dubbing/internal/tts"
	"github.com/vaibh/video-dubbing/internal/types"
)

// Downloader acquires the source video into a session workspace.
type Downloader interface {
	Download(ctx context.Context, url, destDir string) (videoPath, title string, err error)
}

// Transcriber produces a timestamped transcript from an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*types.TranscriptionData, error)
}

// Translator converts text to a target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Synthesizer produces speech audio in a target voice.
type Synthesizer interface {
	CloneVoice(ctx context.Context, audioPath, voiceName string) (string, error)
	Synthesize(ctx context.Context, text, voiceID string, settings types.VoiceSettings) ([]byte, error)
}

// MediaProcessor handles the local ffmpeg operations.
type MediaProcessor interface {
	ExtractAudio(videoPath, outPath string) error
	Mux(videoPath, audioPath, outPath string) error
	ProbeDuration(path string) (float64, error)
}

// Assembler reconciles synthesized clips against the original timeline into
// one audio track, returning a non-fatal drift diagnostic when the track
// runs long.
type Assembler interface {
	Assemble(utterances []types.Utterance, clips []types.SynthesizedClip, workDir, outPath string) (string, error)
}

// Config wires an Orchestrator. History and Drive are optional.
type Config struct {
	Registry    *session.Registry
	Workspace   *storage.Workspace
	Downloader  Downloader
	Transcriber Transcriber
	Translator  Translator
	Synthesizer Synthesizer
	Media       MediaProcessor
	Assembler   Assembler
	History     *storage.MetadataDB
	Drive       *storage.DriveClient
	FanOut      int
}

// Orchestrator runs dubbing jobs. One job is one goroutine driving the
// stages strictly in order; within the synthesis stage, per-utterance
// translation and synthesis calls fan out up to FanOut at a time.
type Orchestrator struct {
	registry    *session.Registry
	workspace   *storage.Workspace
	downloader  Downloader
	transcriber Transcriber
	translator  Translator
	synthesizer Synthesizer
	media       MediaProcessor
	assembler   Assembler
	history     *storage.MetadataDB
	drive       *storage.DriveClient
	fanOut      int
}

// New creates an orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	fanOut := cfg.FanOut
	if fanOut <= 0 {
		fanOut = 4
	}
	return &Orchestrator{
		registry:    cfg.Registry,
		workspace:   cfg.Workspace,
		downloader:  cfg.Downloader,
		transcriber: cfg.Transcriber,
		translator:  cfg.Translator,
		synthesizer: cfg.Synthesizer,
		media:       cfg.Media,
		assembler:   cfg.Assembler,
		history:     cfg.History,
		drive:       cfg.Drive,
		fanOut:      fanOut,
	}
}

// Request describes one dubbing submission.
type Request struct {
	SessionID      string
	URL            string
	TargetLanguage string
	VoiceOption    string // "clone" or a provider voice id
	VoiceStyle     string // natural, dramatic, calm, energetic
}

// Submit registers the session and starts the pipeline in the background.
// The run's outcome is always observable through the session: every exit
// path ends in a terminal state.
func (o *Orchestrator) Submit(req Request) session.Session {
	s := o.registry.Create(req.SessionID, req.TargetLanguage, o.workspace.SessionDir(req.SessionID))
	go o.run(req)
	return s
}

func (o *Orchestrator) run(req Request) {
	id := req.SessionID
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[DUB %s] PANIC: %v\n%s", id, r, string(debug.Stack()))
			o.registry.Fail(id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	ctx := context.Background()

	// Stage 1: acquire, extract, transcribe.
	o.registry.Advance(id, types.StatusTranscribing, 10)
	workDir, err := o.workspace.EnsureSessionDir(id)
	if err != nil {
		o.fail(id, "transcription", err)
		return
	}
	log.Printf("[DUB %s] Workspace: %s", id, workDir)

	videoPath, title, err := o.downloader.Download(ctx, req.URL, workDir)
	if err != nil {
		o.fail(id, "transcription", err)
		return
	}
	o.registry.SetTitle(id, title)

	audioPath := o.workspace.ExtractedAudioPath(id)
	if err := o.media.ExtractAudio(videoPath, audioPath); err != nil {
		o.fail(id, "transcription", err)
		return
	}

	data, err := o.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		o.fail(id, "transcription", err)
		return
	}

	// Stage 2: full-text translation. Validates the target language and
	// provides the text for single-segment degradation.
	o.registry.Advance(id, types.StatusTranslating, 30)
	fullTranslation, err := o.translator.Translate(ctx, data.Text, req.TargetLanguage)
	if err != nil {
		o.fail(id, "translation", err)
		return
	}

	// Stage 3: voice resolution and per-utterance synthesis.
	o.registry.Advance(id, types.StatusGeneratingVoice, 50)
	voiceID, settings := o.resolveVoice(ctx, id, req, audioPath)

	dubbedAudio := o.workspace.DubbedAudioPath(id)
	utterances, err := timing.SegmentUtterances(data)
	if err == nil {
		utterances = dropEmpty(utterances)
		if len(utterances) == 0 {
			err = timing.ErrNoUtterances
		}
	}
	switch {
	case errors.Is(err, timing.ErrNoUtterances):
		// Degrade to a single clip with no timing reconstruction.
		log.Printf("[DUB %s] No utterances; dubbing transcript as one segment", id)
		audio, synthErr := o.synthesizer.Synthesize(ctx, fullTranslation, voiceID, settings)
		if synthErr != nil {
			o.fail(id, "voice generation", synthErr)
			return
		}
		if writeErr := os.WriteFile(dubbedAudio, audio, 0644); writeErr != nil {
			o.fail(id, "voice generation", writeErr)
			return
		}
	case err != nil:
		o.fail(id, "voice generation", err)
		return
	default:
		clips, synthErr := o.synthesizeUtterances(ctx, id, utterances, req.TargetLanguage, voiceID, settings)
		if synthErr != nil {
			o.fail(id, "voice generation", synthErr)
			return
		}
		diagnostic, asmErr := o.assembler.Assemble(utterances, clips, workDir, dubbedAudio)
		if asmErr != nil {
			o.fail(id, "voice generation", asmErr)
			return
		}
		if diagnostic != "" {
			log.Printf("[DUB %s] %s", id, diagnostic)
			o.registry.AddDiagnostic(id, diagnostic)
		}
	}
	o.registry.SetAudioPath(id, dubbedAudio)

	// Stage 4: mux against the original video. A failure here leaves the
	// synthesized audio in place for inspection.
	o.registry.Advance(id, types.StatusCombiningVideo, 80)
	finalVideo := o.workspace.DubbedVideoPath(id)
	if err := o.media.Mux(videoPath, dubbedAudio, finalVideo); err != nil {
		o.fail(id, "video combination", err)
		return
	}

	o.registry.Complete(id, finalVideo)
	log.Printf("[DUB %s] Completed: %s", id, finalVideo)
	o.recordHistory(req, title, finalVideo)
	o.archiveToDrive(id, title, finalVideo)
}

// resolveVoice maps the request's voice option to a provider voice id and
// settings. "clone" clones from the extracted original audio; a clone
// failure falls back to a language-appropriate prebuilt voice rather than
// failing the run.
func (o *Orchestrator) resolveVoice(ctx context.Context, id string, req Request, audioPath string) (string, types.VoiceSettings) {
	if req.VoiceOption != "clone" {
		return req.VoiceOption, types.PresetOrDefault(req.VoiceStyle)
	}

	voiceID, err := o.synthesizer.CloneVoice(ctx, audioPath, tts.DefaultVoiceName)
	if err == nil {
		// Stronger similarity settings for a cloned voice.
		return voiceID, types.VoiceSettings{Stability: 0.3, SimilarityBoost: 0.95, UseSpeakerBoost: true}
	}

	fallback := tts.FallbackVoice(req.TargetLanguage)
	log.Printf("[DUB %s] Voice cloning failed (%v); using fallback voice %s", id, err, fallback)
	o.registry.AddDiagnostic(id, fmt.Sprintf("voice cloning failed, used fallback voice %s", fallback))
	return fallback, types.PresetOrDefault("natural")
}

// synthesizeUtterances translates and synthesizes each utterance with
// bounded concurrency. Completion order does not matter: the assembler
// restores order by original start time. A failed per-utterance translation
// falls back to the original text; a failed synthesis fails the stage.
func (o *Orchestrator) synthesizeUtterances(
	ctx context.Context,
	sessionID string,
	utterances []types.Utterance,
	targetLanguage, voiceID string,
	settings types.VoiceSettings,
) ([]types.SynthesizedClip, error) {
	clips := make([]types.SynthesizedClip, len(utterances))
	failures := make([]error, len(utterances))
	sem := make(chan struct{}, o.fanOut)
	var wg sync.WaitGroup

	for i, utterance := range utterances {
		wg.Add(1)
		go func(i int, utterance types.Utterance) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			text, err := o.translator.Translate(ctx, utterance.Text, targetLanguage)
			if err != nil || strings.TrimSpace(text) == "" {
				if err != nil {
					log.Printf("[DUB %s] Translation failed for utterance %d (%v); using original text", sessionID, i, err)
				}
				text = utterance.Text
			}

			audio, err := o.synthesizer.Synthesize(ctx, text, voiceID, settings)
			if err != nil {
				failures[i] = err
				return
			}
			path := o.workspace.ClipPath(sessionID, i)
			if err := os.WriteFile(path, audio, 0644); err != nil {
				failures[i] = err
				return
			}
			clips[i] = types.SynthesizedClip{Index: i, Path: path}
		}(i, utterance)
	}
	wg.Wait()

	for _, err := range failures {
		if err != nil {
			return nil, err
		}
	}
	return clips, nil
}

// fail records a stage-qualified failure on the session. Artifacts already
// produced stay on disk for diagnosis; nothing is retried.
func (o *Orchestrator) fail(id, stage string, err error) {
	message := fmt.Sprintf("%s failed: %v", stage, err)
	log.Printf("[DUB %s] %s", id, message)
	o.registry.Fail(id, message)
}

func (o *Orchestrator) recordHistory(req Request, title, videoPath string) {
	if o.history == nil {
		return
	}
	duration, err := o.media.ProbeDuration(videoPath)
	if err != nil {
		log.Printf("[DUB %s] Could not probe final video duration: %v", req.SessionID, err)
	}
	rec := storage.DubRecord{
		SessionID:      req.SessionID,
		Title:          title,
		TargetLanguage: req.TargetLanguage,
		VoiceOption:    req.VoiceOption,
		VideoPath:      videoPath,
		Duration:       duration,
		CreatedAt:      time.Now(),
	}
	if err := o.history.SaveDub(rec); err != nil {
		log.Printf("[DUB %s] Failed to record history: %v", req.SessionID, err)
	}
}

func (o *Orchestrator) archiveToDrive(id, title, videoPath string) {
	if o.drive == nil {
		return
	}
	url, err := o.drive.UploadVideo(id, title, videoPath)
	if err != nil {
		log.Printf("[DUB %s] Drive archive failed: %v", id, err)
		return
	}
	log.Printf("[DUB %s] Archived to Drive: %s", id, url)
}

func dropEmpty(utterances []types.Utterance) []types.Utterance {
	kept := utterances[:0:0]
	for _, u := range utterances {
		if strings.TrimSpace(u.Text) != "" {
			kept = append(kept, u)
		}
	}
	return kept
}

package types

// Session status constants. A session walks the happy path in order;
// "failed" is reachable from any non-terminal status.
const (
	StatusCreated         = "created"
	StatusTranscribing    = "transcribing"
	StatusTranslating     = "translating"
	StatusGeneratingVoice = "generating_voice"
	StatusCombiningVideo  = "combining_video"
	StatusCompleted       = "completed"
	StatusFailed          = "failed"
)

// IsTerminal reports whether a status permits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Word is a word-level timestamp from the transcription provider.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Utterance is a timestamped speech segment. Start/End are seconds from the
// beginning of the recording. Immutable once created; consumers must tolerate
// unsorted input and overlapping segments.
type Utterance struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"transcript"`
}

// Paragraph is a paragraph-level segment from the transcription provider.
type Paragraph struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionData is the full output of the transcription provider.
type TranscriptionData struct {
	Text       string      `json:"text"`
	Words      []Word      `json:"words"`
	Utterances []Utterance `json:"utterances"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// SynthesizedClip is one utterance's synthesized audio, written to the
// session workspace. Duration is the decoded duration in seconds, probed
// after synthesis; it is generally not equal to the original slot length.
type SynthesizedClip struct {
	Index    int
	Path     string
	Duration float64
}

// VoiceSettings are the expressiveness knobs passed to the synthesis
// provider.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// VoicePresets maps a requested voice style to provider settings.
var VoicePresets = map[string]VoiceSettings{
	"natural":   {Stability: 0.5, SimilarityBoost: 0.8, Style: 0.0, UseSpeakerBoost: true},
	"dramatic":  {Stability: 0.3, SimilarityBoost: 0.9, Style: 0.2, UseSpeakerBoost: true},
	"calm":      {Stability: 0.8, SimilarityBoost: 0.6, Style: 0.0, UseSpeakerBoost: false},
	"energetic": {Stability: 0.2, SimilarityBoost: 0.9, Style: 0.3, UseSpeakerBoost: true},
}

// PresetOrDefault returns the preset for style, falling back to "natural".
func PresetOrDefault(style string) VoiceSettings {
	if preset, ok := VoicePresets[style]; ok {
		return preset
	}
	return VoicePresets["natural"]
}

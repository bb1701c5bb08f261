package timing

import (
	"errors"
	"strings"

	"github.com/vaibh/video-dubbing/internal/types"
)

// ErrNoUtterances reports that the transcript fragments into zero usable
// sentences after filtering. The pipeline maps this outcome to single-segment
// mode: the whole transcript is synthesized as one clip with no timing pass.
var ErrNoUtterances = errors.New("no utterances possible")

// Per-word duration estimate used when synthesizing timestamps, and the
// default total when the word count is unknown.
const (
	secondsPerWord   = 0.5
	defaultEstimated = 30.0
)

// SegmentUtterances yields the utterance sequence the reconciler will work
// from. Policies are tried in order until one produces a non-empty sequence:
// provider utterances, paragraph segments, sentence-split synthetic timing.
func SegmentUtterances(data *types.TranscriptionData) ([]types.Utterance, error) {
	if len(data.Utterances) > 0 {
		return data.Utterances, nil
	}

	if len(data.Paragraphs) > 0 {
		utterances := make([]types.Utterance, 0, len(data.Paragraphs))
		for _, p := range data.Paragraphs {
			if strings.TrimSpace(p.Text) == "" {
				continue
			}
			utterances = append(utterances, types.Utterance{Start: p.Start, End: p.End, Text: p.Text})
		}
		if len(utterances) > 0 {
			return utterances, nil
		}
	}

	sentences := SplitSentences(data.Text)
	if len(sentences) == 0 {
		return nil, ErrNoUtterances
	}

	estimated := defaultEstimated
	if words := len(data.Words); words > 0 {
		estimated = float64(words) * secondsPerWord
	}
	perSentence := estimated / float64(len(sentences))

	utterances := make([]types.Utterance, len(sentences))
	for i, sentence := range sentences {
		utterances[i] = types.Utterance{
			Start: float64(i) * perSentence,
			End:   float64(i+1) * perSentence,
			Text:  sentence,
		}
	}
	return utterances, nil
}

// SplitSentences breaks text on sentence boundaries (., ! or ?), trimming
// whitespace and dropping empty fragments.
func SplitSentences(text string) []string {
	fragments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if trimmed := strings.TrimSpace(fragment); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// Package timing rebuilds a translated audio track whose utterance
// boundaries line up with the original recording. Plan construction and the
// segmentation fallbacks are pure; rendering delegates to ffmpeg.
package timing

import (
	"fmt"
	"sort"

	"github.com/vaibh/video-dubbing/internal/errs"
	"github.com/vaibh/video-dubbing/internal/types"
)

// GapThreshold is the smallest gap between consecutive utterances that gets
// an explicit silence entry; it doubles as the minimum silence duration.
const GapThreshold = 0.1

// DriftRatio is the actual/expected duration ratio above which the rendered
// track is flagged as having run long.
const DriftRatio = 1.5

// Entry kinds in a track plan.
const (
	KindSilence = "silence"
	KindClip    = "clip"
)

// PlanEntry is one segment of the reconciled track: either generated silence
// of a given duration or a synthesized clip identified by Source.
type PlanEntry struct {
	Kind     string
	Duration float64
	Source   string
}

// BuildPlan lays out synthesized clips against the original utterance
// timeline. Utterances are sorted by start time first; upstream order is not
// trusted. The cursor advances by each utterance's original end time, not the
// clip's actual length, so drift between clip and slot is expected here and
// only detected later by CheckDrift.
//
// Returns the plan and the expected total duration (the last utterance's end
// after sorting).
func BuildPlan(utterances []types.Utterance, clips []types.SynthesizedClip) ([]PlanEntry, float64, error) {
	if len(utterances) == 0 {
		return nil, 0, errs.Wrapf(errs.ErrProcessing, "reconcile", "plan", "no utterances to plan")
	}
	byIndex := make(map[int]types.SynthesizedClip, len(clips))
	for _, clip := range clips {
		byIndex[clip.Index] = clip
	}

	type slot struct {
		utt   types.Utterance
		index int
	}
	slots := make([]slot, len(utterances))
	for i, u := range utterances {
		slots[i] = slot{utt: u, index: i}
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].utt.Start < slots[j].utt.Start
	})

	var plan []PlanEntry
	cursor := 0.0
	for _, s := range slots {
		clip, ok := byIndex[s.index]
		if !ok {
			return nil, 0, errs.Wrapf(errs.ErrIntegrity, "reconcile", "plan", "missing clip for utterance %d", s.index)
		}
		if gap := s.utt.Start - cursor; gap > GapThreshold {
			plan = append(plan, PlanEntry{Kind: KindSilence, Duration: gap})
		}
		plan = append(plan, PlanEntry{Kind: KindClip, Duration: clip.Duration, Source: clip.Path})
		cursor = s.utt.End
	}
	return plan, cursor, nil
}

// CheckDrift compares the rendered track's decoded duration to the expected
// total. A track more than 50% longer than expected is a data-quality signal
// (synthesized speech ran long relative to the original slots); it is
// surfaced as a diagnostic, never an error.
func CheckDrift(actual, expected float64) (string, bool) {
	if expected <= 0 || actual <= expected*DriftRatio {
		return "", false
	}
	return fmt.Sprintf("dubbed audio runs long: %.2fs rendered vs %.2fs expected", actual, expected), true
}

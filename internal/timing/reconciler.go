package timing

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/vaibh/video-dubbing/internal/errs"
	"github.com/vaibh/video-dubbing/internal/media"
	"github.com/vaibh/video-dubbing/internal/types"
)

// Reconciler renders a track plan into a single dubbed audio file.
type Reconciler struct{}

// NewReconciler creates a reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Assemble probes each clip's decoded duration, builds the track plan from
// the original utterance timeline, and renders it into outPath. Gap silence
// is generated into workDir. The returned diagnostic is non-empty when the
// rendered track drifted past the tolerated ratio; it never blocks
// completion.
func (rc *Reconciler) Assemble(utterances []types.Utterance, clips []types.SynthesizedClip, workDir, outPath string) (string, error) {
	for i := range clips {
		duration, err := media.ProbeDuration(clips[i].Path)
		if err != nil {
			return "", err
		}
		clips[i].Duration = duration
	}

	plan, expected, err := BuildPlan(utterances, clips)
	if err != nil {
		return "", err
	}
	if err := rc.render(plan, workDir, outPath); err != nil {
		return "", err
	}

	actual, err := media.ProbeDuration(outPath)
	if err != nil {
		// The track rendered; a failed probe only disables the drift check.
		log.Printf("Reconciler: could not probe %s: %v", outPath, err)
		return "", nil
	}
	log.Printf("Reconciler: rendered %.2fs track (expected %.2fs)", actual, expected)
	diagnostic, _ := CheckDrift(actual, expected)
	return diagnostic, nil
}

// render materializes the plan: a single-entry plan is a direct file copy
// with no re-encoding pass, anything longer is silence generation plus one
// concatenation.
func (rc *Reconciler) render(plan []PlanEntry, workDir, outPath string) error {
	if len(plan) == 1 && plan[0].Kind == KindClip {
		return copyFile(plan[0].Source, outPath)
	}

	segments := make([]string, 0, len(plan))
	for i, entry := range plan {
		switch entry.Kind {
		case KindSilence:
			gapPath := filepath.Join(workDir, fmt.Sprintf("gap_%d.mp3", i))
			if err := media.GenerateSilence(gapPath, entry.Duration); err != nil {
				return err
			}
			segments = append(segments, gapPath)
		case KindClip:
			segments = append(segments, entry.Source)
		}
	}
	return media.Concat(segments, outPath)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errs.Wrapf(errs.ErrNotFound, "reconcile", "copy", "clip %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errs.Wrapf(errs.ErrProcessing, "reconcile", "copy", "create %s: %v", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errs.Wrapf(errs.ErrProcessing, "reconcile", "copy", "write %s: %v", dst, err)
	}
	return nil
}

package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vaibh/video-dubbing/internal/errs"
	"github.com/vaibh/video-dubbing/internal/types"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	created := r.Create("job-1", "es", "/tmp/job-1")
	if created.Status != types.StatusCreated {
		t.Fatalf("Status = %q, want %q", created.Status, types.StatusCreated)
	}
	if created.Progress != 0 {
		t.Fatalf("Progress = %d, want 0", created.Progress)
	}

	steps := []struct {
		status   string
		progress int
	}{
		{types.StatusTranscribing, 10},
		{types.StatusTranslating, 30},
		{types.StatusGeneratingVoice, 50},
		{types.StatusCombiningVideo, 80},
	}
	for _, step := range steps {
		if err := r.Advance("job-1", step.status, step.progress); err != nil {
			t.Fatalf("Advance(%s) failed: %v", step.status, err)
		}
		s, err := r.Get("job-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if s.Status != step.status || s.Progress != step.progress {
			t.Errorf("got %s/%d, want %s/%d", s.Status, s.Progress, step.status, step.progress)
		}
	}

	if err := r.Complete("job-1", "/tmp/job-1/dubbed_video.mp4"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	s, _ := r.Get("job-1")
	if s.Status != types.StatusCompleted {
		t.Errorf("Status = %q, want %q", s.Status, types.StatusCompleted)
	}
	if s.Progress != 100 {
		t.Errorf("Progress = %d, want 100", s.Progress)
	}
	if s.VideoPath != "/tmp/job-1/dubbed_video.mp4" {
		t.Errorf("VideoPath = %q", s.VideoPath)
	}
}

func TestRegistryFailRecordsError(t *testing.T) {
	r := NewRegistry()
	r.Create("job-1", "fr", "")
	r.Advance("job-1", types.StatusTranslating, 30)

	if err := r.Fail("job-1", "translation failed: upstream error"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	s, _ := r.Get("job-1")
	if s.Status != types.StatusFailed {
		t.Errorf("Status = %q, want %q", s.Status, types.StatusFailed)
	}
	if s.Error != "translation failed: upstream error" {
		t.Errorf("Error = %q", s.Error)
	}
	if s.Progress != 30 {
		t.Errorf("Progress = %d, want frozen at 30", s.Progress)
	}
}

func TestRegistryTerminalStatesFreeze(t *testing.T) {
	r := NewRegistry()
	r.Create("done", "es", "")
	r.Complete("done", "/out.mp4")

	if err := r.Advance("done", types.StatusTranscribing, 10); err != nil {
		t.Fatalf("Advance on terminal session should be a no-op, got %v", err)
	}
	if err := r.Fail("done", "late failure"); err != nil {
		t.Fatalf("Fail on terminal session should be a no-op, got %v", err)
	}
	s, _ := r.Get("done")
	if s.Status != types.StatusCompleted || s.Progress != 100 || s.Error != "" {
		t.Errorf("terminal session mutated: %+v", s)
	}

	r.Create("dead", "es", "")
	r.Fail("dead", "first failure")
	r.Complete("dead", "/late.mp4")
	s, _ = r.Get("dead")
	if s.Status != types.StatusFailed {
		t.Errorf("failed session transitioned to %q", s.Status)
	}
	if s.Error != "first failure" {
		t.Errorf("Error = %q, want first failure preserved", s.Error)
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}
	if err := r.Advance("missing", types.StatusTranscribing, 10); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Advance(missing) = %v, want ErrNotFound", err)
	}
	if err := r.Fail("missing", "x"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Fail(missing) = %v, want ErrNotFound", err)
	}
}

func TestRegistryGetReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Create("job-1", "de", "")
	r.AddDiagnostic("job-1", "voice cloning failed, used fallback voice X")

	snap, _ := r.Get("job-1")
	snap.Status = "mangled"
	snap.Diagnostics[0] = "mangled"
	snap.Diagnostics = append(snap.Diagnostics, "extra")

	fresh, _ := r.Get("job-1")
	if fresh.Status != types.StatusCreated {
		t.Errorf("snapshot mutation leaked into registry: Status = %q", fresh.Status)
	}
	if len(fresh.Diagnostics) != 1 || fresh.Diagnostics[0] != "voice cloning failed, used fallback voice X" {
		t.Errorf("snapshot mutation leaked into diagnostics: %v", fresh.Diagnostics)
	}
}

func TestRegistryReap(t *testing.T) {
	tmpDir := t.TempDir()
	workDir := filepath.Join(tmpDir, "old-session")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatal(err)
	}
	videoPath := filepath.Join(tmpDir, "dubbed_video.mp4")
	if err := os.WriteFile(videoPath, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	r.Create("old-session", "es", workDir)
	r.Complete("old-session", videoPath)
	r.Create("fresh-session", "es", "")

	// Backdate the old session past the cutoff.
	r.mu.Lock()
	r.sessions["old-session"].CreatedAt = time.Now().Add(-3 * time.Hour)
	r.mu.Unlock()

	removed := r.Reap(2 * time.Hour)
	if removed != 1 {
		t.Fatalf("Reap removed %d sessions, want 1", removed)
	}
	if _, err := r.Get("old-session"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("reaped session still present: %v", err)
	}
	if _, err := r.Get("fresh-session"); err != nil {
		t.Errorf("fresh session reaped: %v", err)
	}
	if _, err := os.Stat(videoPath); !os.IsNotExist(err) {
		t.Errorf("video file not deleted: %v", err)
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Errorf("workspace not deleted: %v", err)
	}
}

func TestRegistryReapMissingFilesIsBestEffort(t *testing.T) {
	r := NewRegistry()
	r.Create("gone", "es", "/nonexistent/workdir")
	r.Complete("gone", "/nonexistent/video.mp4")

	r.mu.Lock()
	r.sessions["gone"].CreatedAt = time.Now().Add(-time.Hour)
	r.mu.Unlock()

	if removed := r.Reap(time.Minute); removed != 1 {
		t.Fatalf("Reap removed %d sessions, want 1", removed)
	}
}

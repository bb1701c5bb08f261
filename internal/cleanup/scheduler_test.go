package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vaibh/video-dubbing/internal/session"
	"github.com/vaibh/video-dubbing/internal/storage"
)

func TestSweepOrphansRemovesStaleDirectories(t *testing.T) {
	baseDir := t.TempDir()
	registry := session.NewRegistry()
	workspace := storage.NewWorkspace(baseDir)

	stale := filepath.Join(baseDir, "stale-session")
	if err := os.MkdirAll(stale, 0755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-3 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	live := filepath.Join(baseDir, "live-session")
	if err := os.MkdirAll(live, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(live, old, old); err != nil {
		t.Fatal(err)
	}
	registry.Create("live-session", "es", live)

	fresh := filepath.Join(baseDir, "fresh-session")
	if err := os.MkdirAll(fresh, 0755); err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(registry, workspace, time.Hour, 2*time.Hour)
	s.sweepOrphans()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale orphan directory not removed")
	}
	if _, err := os.Stat(live); err != nil {
		t.Error("live session directory removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh orphan directory removed before max age")
	}
}

func TestSweepOrphansMissingBaseDir(t *testing.T) {
	registry := session.NewRegistry()
	workspace := storage.NewWorkspace(filepath.Join(t.TempDir(), "never-created"))

	s := NewScheduler(registry, workspace, time.Hour, time.Hour)
	s.sweepOrphans() // must not panic or error
}

func TestEnsureTempDirExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureTempDirExists(dir); err != nil {
		t.Fatalf("EnsureTempDirExists failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}

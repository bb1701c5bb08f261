package cleanup

import (
	"log"
	"os"
	"time"

	"github.com/vaibh/video-dubbing/internal/session"
	"github.com/vaibh/video-dubbing/internal/storage"
)

// Scheduler periodically reaps expired sessions and sweeps orphaned
// workspace directories left behind by crashed runs.
type Scheduler struct {
	registry  *session.Registry
	workspace *storage.Workspace
	interval  time.Duration
	maxAge    time.Duration
	stopChan  chan struct{}
}

// NewScheduler creates a reaper over the given registry and workspace.
func NewScheduler(registry *session.Registry, workspace *storage.Workspace, interval, maxAge time.Duration) *Scheduler {
	return &Scheduler{
		registry:  registry,
		workspace: workspace,
		interval:  interval,
		maxAge:    maxAge,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the reap loop, running one pass immediately.
func (s *Scheduler) Start() {
	log.Println("Running initial session cleanup...")
	s.runPass()

	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.runPass()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %s, max age: %s)", s.interval, s.maxAge)
}

// Stop stops the reap loop.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Cleanup scheduler stopped")
}

func (s *Scheduler) runPass() {
	if reaped := s.registry.Reap(s.maxAge); reaped > 0 {
		log.Printf("Cleanup: reaped %d expired sessions", reaped)
	}
	s.sweepOrphans()
}

// sweepOrphans removes workspace directories older than maxAge that no live
// session references. Errors are logged, never propagated: a missing file
// must never fail a cleanup pass.
func (s *Scheduler) sweepOrphans() {
	entries, err := os.ReadDir(s.workspace.BaseDir())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Cleanup: cannot read workspace root: %v", err)
		}
		return
	}

	cutoff := time.Now().Add(-s.maxAge)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := s.registry.Get(entry.Name()); err == nil {
			continue // live session owns this directory
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		dir := s.workspace.SessionDir(entry.Name())
		if err := s.workspace.RemoveSession(entry.Name()); err != nil {
			log.Printf("Cleanup: failed to remove orphaned workspace %s: %v", dir, err)
		} else {
			log.Printf("Cleanup: removed orphaned workspace %s", dir)
		}
	}
}

// EnsureTempDirExists creates the workspace root if it doesn't exist.
func EnsureTempDirExists(tempDir string) error {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return err
	}
	log.Printf("Workspace root ready: %s", tempDir)
	return nil
}

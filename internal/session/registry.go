// Package session tracks the lifecycle of dubbing jobs. The Registry is the
// only mutable shared state in the service: each session is written by the
// single pipeline goroutine that owns it and read by any number of
// status-polling callers.
package session

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/vaibh/video-dubbing/internal/errs"
	"github.com/vaibh/video-dubbing/internal/types"
)

// Session is one dubbing job's state. VideoPath/AudioPath are set as the
// pipeline produces results; Diagnostics carries non-fatal warnings such as
// the duration-drift check.
type Session struct {
	ID             string    `json:"session_id"`
	Status         string    `json:"status"`
	Progress       int       `json:"progress"`
	Title          string    `json:"title,omitempty"`
	TargetLanguage string    `json:"target_language,omitempty"`
	VideoPath      string    `json:"-"`
	AudioPath      string    `json:"-"`
	Error          string    `json:"error,omitempty"`
	Diagnostics    []string  `json:"diagnostics,omitempty"`
	WorkDir        string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Registry is a concurrent-safe session store. All mutation goes through its
// methods; Get hands out value copies so callers can never alias live state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session in status "created" with progress 0.
func (r *Registry) Create(id, targetLanguage, workDir string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Session{
		ID:             id,
		Status:         types.StatusCreated,
		Progress:       0,
		TargetLanguage: targetLanguage,
		WorkDir:        workDir,
		CreatedAt:      time.Now(),
	}
	r.sessions[id] = s
	return *s
}

// Advance overwrites status and progress. The caller guarantees progress is
// non-decreasing; the registry only guards the terminal-state invariant.
func (r *Registry) Advance(id, status string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return errs.Wrapf(errs.ErrNotFound, "", "", "session %s", id)
	}
	if types.IsTerminal(s.Status) {
		return nil
	}
	s.Status = status
	s.Progress = progress
	return nil
}

// Fail moves the session to the failed terminal state, recording the error
// message and freezing progress at its current value.
func (r *Registry) Fail(id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return errs.Wrapf(errs.ErrNotFound, "", "", "session %s", id)
	}
	if types.IsTerminal(s.Status) {
		return nil
	}
	s.Status = types.StatusFailed
	s.Error = message
	return nil
}

// Complete moves the session to the completed terminal state with progress
// 100 and records the final video path.
func (r *Registry) Complete(id, videoPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return errs.Wrapf(errs.ErrNotFound, "", "", "session %s", id)
	}
	if types.IsTerminal(s.Status) {
		return nil
	}
	s.Status = types.StatusCompleted
	s.Progress = 100
	s.VideoPath = videoPath
	return nil
}

// SetTitle records the source video title once acquisition resolves it.
func (r *Registry) SetTitle(id, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Title = title
	}
}

// SetAudioPath records the reconciled dubbed audio track path.
func (r *Registry) SetAudioPath(id, audioPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.AudioPath = audioPath
	}
}

// AddDiagnostic appends a non-fatal warning to the session. Diagnostics never
// affect status or progress.
func (r *Registry) AddDiagnostic(id, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Diagnostics = append(s.Diagnostics, message)
	}
}

// Get returns a snapshot of the session, or ErrNotFound.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, errs.Wrapf(errs.ErrNotFound, "", "", "session %s", id)
	}
	snapshot := *s
	snapshot.Diagnostics = append([]string(nil), s.Diagnostics...)
	return snapshot, nil
}

// Reap removes sessions older than maxAge and best-effort deletes their
// workspace directories and result files. File deletion errors are logged,
// never propagated: a missing temp file must not fail a reap pass. Returns
// the number of sessions removed.
func (r *Registry) Reap(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.CreatedAt.Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		removePath(s.VideoPath)
		removePath(s.AudioPath)
		if s.WorkDir != "" {
			if err := os.RemoveAll(s.WorkDir); err != nil {
				log.Printf("Reap: failed to remove workspace %s: %v", s.WorkDir, err)
			}
		}
		log.Printf("Reaped session %s (age: %s)", s.ID, time.Since(s.CreatedAt).Round(time.Minute))
	}
	return len(expired)
}

func removePath(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Reap: failed to remove %s: %v", path, err)
	}
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace manages per-session working directories. Every intermediate
// artifact of a dubbing run lives under <baseDir>/<sessionID> with fixed
// names; the directory's lifetime matches the session's.
type Workspace struct {
	baseDir string
}

// NewWorkspace creates a workspace rooted at baseDir.
func NewWorkspace(baseDir string) *Workspace {
	return &Workspace{baseDir: baseDir}
}

// BaseDir returns the workspace root.
func (w *Workspace) BaseDir() string {
	return w.baseDir
}

// SessionDir returns the directory for a session without creating it.
func (w *Workspace) SessionDir(sessionID string) string {
	return filepath.Join(w.baseDir, sessionID)
}

// EnsureSessionDir creates the session directory if needed.
func (w *Workspace) EnsureSessionDir(sessionID string) (string, error) {
	dir := w.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	return dir, nil
}

// ExtractedAudioPath is the WAV pulled from the source video.
func (w *Workspace) ExtractedAudioPath(sessionID string) string {
	return filepath.Join(w.SessionDir(sessionID), "extracted_audio.wav")
}

// ClipPath is the synthesized audio for one utterance.
func (w *Workspace) ClipPath(sessionID string, index int) string {
	return filepath.Join(w.SessionDir(sessionID), fmt.Sprintf("utterance_%d.mp3", index))
}

// DubbedAudioPath is the reconciled full audio track.
func (w *Workspace) DubbedAudioPath(sessionID string) string {
	return filepath.Join(w.SessionDir(sessionID), "dubbed_audio.mp3")
}

// DubbedVideoPath is the final muxed output.
func (w *Workspace) DubbedVideoPath(sessionID string) string {
	return filepath.Join(w.SessionDir(sessionID), "dubbed_video.mp4")
}

// RemoveSession deletes a session's directory and everything in it.
func (w *Workspace) RemoveSession(sessionID string) error {
	return os.RemoveAll(w.SessionDir(sessionID))
}

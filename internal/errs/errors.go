// Package errs defines the error taxonomy shared by the dubbing pipeline.
// Sentinel errors classify a failure; Wrap attaches stage context so the
// message recorded on a failed session names the stage that broke.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a missing session or file.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks a failed collaborator call (transcription,
	// translation, synthesis, download) with provider detail preserved.
	ErrUpstream = errors.New("upstream error")
	// ErrUnsupportedLanguage marks an unknown target language code.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrProcessing marks a media-tool failure (non-zero ffmpeg exit).
	ErrProcessing = errors.New("processing error")
	// ErrIntegrity marks a violated postcondition: a tool reported
	// success but the expected artifact is absent. Always fatal.
	ErrIntegrity = errors.New("integrity error")
)

// Wrap tags err with marker and prefixes it with stage/operation context.
// Any part may be empty; err may be nil when the message stands alone.
func Wrap(marker error, stage, operation string, err error) error {
	detail := buildDetail(stage, operation)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		if detail == "" {
			return fmt.Errorf("%w: %w", marker, err)
		}
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	if detail == "" {
		return marker
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Wrapf is Wrap with a formatted message instead of a wrapped error.
func Wrapf(marker error, stage, operation, format string, args ...any) error {
	return Wrap(marker, stage, operation, fmt.Errorf(format, args...))
}

func buildDetail(stage, operation string) string {
	parts := make([]string, 0, 2)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	return strings.Join(parts, ": ")
}

package download

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vaibh/video-dubbing/internal/errs"
)

func TestFindVideoFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"source.description", "source.en.vtt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := findVideoFile(dir); err == nil {
		t.Fatal("findVideoFile should fail with no video present")
	}

	want := filepath.Join(dir, "source.mp4")
	if err := os.WriteFile(want, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := findVideoFile(dir)
	if err != nil {
		t.Fatalf("findVideoFile failed: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFindVideoFileUppercaseExtension(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "source.MKV")
	if err := os.WriteFile(want, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := findVideoFile(dir)
	if err != nil {
		t.Fatalf("findVideoFile failed: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClassifyDownloadError(t *testing.T) {
	base := errors.New("exit status 1")
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"forbidden", "ERROR: HTTP Error 403: Forbidden", "restricted"},
		{"not found", "ERROR: HTTP Error 404: Not Found", "not found"},
		{"generic", "ERROR: Unsupported URL", "Unsupported URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyDownloadError(base, tt.output)
			if !errors.Is(err, errs.ErrUpstream) {
				t.Errorf("err = %v, want ErrUpstream", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("message %q should mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestLastLines(t *testing.T) {
	out := "line1\nline2\nline3\nline4\nline5\nline6\nline7"
	got := lastLines(out, 5)
	if strings.Contains(got, "line1") {
		t.Errorf("oldest lines should be dropped: %q", got)
	}
	if !strings.Contains(got, "line7") {
		t.Errorf("newest line missing: %q", got)
	}
}

// Package media wraps the ffmpeg/ffprobe command line tools for the audio
// and video operations the pipeline needs: audio extraction, silence
// generation, duration probing, and the final mux.
package media

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/vaibh/video-dubbing/internal/errs"
)

// FFmpeg drives the system ffmpeg binary. Selected at configuration time and
// injected into the pipeline; tests swap it for a fake.
type FFmpeg struct{}

// ExtractAudio pulls the audio stream out of a video as 22.05kHz mono
// 16-bit PCM WAV, the format the transcription and cloning providers expect.
func (FFmpeg) ExtractAudio(videoPath, outPath string) error {
	if _, err := os.Stat(videoPath); err != nil {
		return errs.Wrapf(errs.ErrNotFound, "media", "extract audio", "input %s", videoPath)
	}

	cmd := exec.Command("ffmpeg",
		"-i", videoPath,
		"-vn",
		"-ar", "22050",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		outPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errs.Wrapf(errs.ErrProcessing, "media", "extract audio", "ffmpeg: %v\n%s", err, string(output))
	}
	if _, err := os.Stat(outPath); err != nil {
		return errs.Wrapf(errs.ErrIntegrity, "media", "extract audio", "output %s missing after ffmpeg success", outPath)
	}
	return nil
}

// Mux combines the original video's visual stream (copied, no re-encode)
// with the dubbed audio track (encoded to AAC), trimmed to the shorter of
// the two inputs.
func (FFmpeg) Mux(videoPath, audioPath, outPath string) error {
	if _, err := os.Stat(videoPath); err != nil {
		return errs.Wrapf(errs.ErrNotFound, "media", "mux", "video input %s", videoPath)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return errs.Wrapf(errs.ErrNotFound, "media", "mux", "audio input %s", audioPath)
	}

	cmd := exec.Command("ffmpeg",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-y",
		outPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errs.Wrapf(errs.ErrProcessing, "media", "mux", "ffmpeg: %v\n%s", err, string(output))
	}
	if _, err := os.Stat(outPath); err != nil {
		return errs.Wrapf(errs.ErrIntegrity, "media", "mux", "output %s missing after ffmpeg success", outPath)
	}
	return nil
}

// ProbeDuration reports a media file's decoded duration in seconds.
func (FFmpeg) ProbeDuration(path string) (float64, error) {
	return ProbeDuration(path)
}

// GenerateSilence writes an MP3 of the given duration containing only
// silence (mono, 44.1kHz), used to fill gaps between utterances.
func GenerateSilence(outPath string, seconds float64) error {
	cmd := exec.Command("ffmpeg",
		"-f", "lavfi",
		"-i", "anullsrc=channel_layout=mono:sample_rate=44100",
		"-t", fmt.Sprintf("%.3f", seconds),
		"-c:a", "libmp3lame",
		"-ar", "44100",
		"-y",
		outPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errs.Wrapf(errs.ErrProcessing, "media", "silence", "ffmpeg: %v\n%s", err, string(output))
	}
	return nil
}

// Concat joins audio segments in order into one MP3 through a lossless
// audio-level join (ffmpeg concat filter, re-encoded once at the output).
func Concat(segments []string, outPath string) error {
	if len(segments) == 0 {
		return errs.Wrapf(errs.ErrProcessing, "media", "concat", "no segments to join")
	}

	args := make([]string, 0, 2*len(segments)+8)
	for _, segment := range segments {
		args = append(args, "-i", segment)
	}
	var filter strings.Builder
	for i := range segments {
		fmt.Fprintf(&filter, "[%d:a]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[out]", len(segments))
	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[out]",
		"-c:a", "libmp3lame",
		"-ar", "44100",
		"-y",
		outPath,
	)

	cmd := exec.Command("ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errs.Wrapf(errs.ErrProcessing, "media", "concat", "ffmpeg: %v\n%s", err, string(output))
	}
	if _, err := os.Stat(outPath); err != nil {
		return errs.Wrapf(errs.ErrIntegrity, "media", "concat", "output %s missing after ffmpeg success", outPath)
	}
	return nil
}

// ProbeDuration returns a media file's decoded duration in seconds.
func ProbeDuration(path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, errs.Wrapf(errs.ErrNotFound, "media", "probe", "input %s", path)
	}

	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, errs.Wrapf(errs.ErrProcessing, "media", "probe", "ffprobe: %v", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, errs.Wrapf(errs.ErrProcessing, "media", "probe", "parse duration %q: %v", strings.TrimSpace(string(output)), err)
	}
	return duration, nil
}

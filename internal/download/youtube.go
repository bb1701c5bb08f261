// Package download acquires source videos from remote URLs via yt-dlp, with
// a headless-Chrome probe for page metadata.
package download

import (
	"context"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/vaibh/video-dubbing/internal/errs"
)

const (
	downloadTimeout = 30 * time.Minute
	probeTimeout    = 30 * time.Second
)

var videoExtensions = []string{".mp4", ".mkv", ".avi", ".mov", ".webm"}

// Downloader fetches source videos into a session workspace.
type Downloader struct{}

// NewDownloader creates a downloader.
func NewDownloader() *Downloader {
	return &Downloader{}
}

// Download fetches the video at url into destDir and returns the downloaded
// file path plus the page title. Title resolution is best-effort; a probe
// failure never fails the download.
func (d *Downloader) Download(ctx context.Context, url, destDir string) (string, string, error) {
	title := d.probeTitle(ctx, url)

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "yt-dlp",
		"--no-playlist",
		"-f", "best",
		"-o", filepath.Join(destDir, "source.%(ext)s"),
		url,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", "", classifyDownloadError(err, string(output))
	}

	videoPath, err := findVideoFile(destDir)
	if err != nil {
		return "", "", err
	}
	log.Printf("Downloaded %s -> %s", url, videoPath)
	return videoPath, title, nil
}

// probeTitle loads the page in headless Chrome and reads document.title.
func (d *Downloader) probeTitle(parent context.Context, url string) string {
	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var title string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(`document.title`, &title, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true)
		}),
	)
	if err != nil {
		log.Printf("Title probe failed for %s: %v", url, err)
		return "Unknown"
	}
	title = strings.TrimSuffix(strings.TrimSpace(title), " - YouTube")
	if title == "" {
		title = "Unknown"
	}
	return title
}

// findVideoFile locates the downloaded container in destDir. yt-dlp decides
// the final extension, so we scan for known video formats.
func findVideoFile(destDir string) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "download", "scan workspace", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, known := range videoExtensions {
			if ext == known {
				return filepath.Join(destDir, entry.Name()), nil
			}
		}
	}
	return "", errs.Wrapf(errs.ErrUpstream, "download", "", "no video file found after download")
}

// classifyDownloadError turns yt-dlp failures into readable messages.
func classifyDownloadError(err error, output string) error {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(output, "403") || strings.Contains(lower, "forbidden"):
		return errs.Wrapf(errs.ErrUpstream, "download", "", "this video is restricted and cannot be downloaded")
	case strings.Contains(output, "404") || strings.Contains(lower, "not found"):
		return errs.Wrapf(errs.ErrUpstream, "download", "", "video not found; check the URL")
	default:
		return errs.Wrapf(errs.ErrUpstream, "download", "yt-dlp", "%v\n%s", err, lastLines(output, 5))
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

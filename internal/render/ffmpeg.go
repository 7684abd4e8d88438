package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/eduvid/videogen-worker/internal/pipeline"
)

// FFmpegRenderer builds scene clips and concatenates them into the
// final encoded video using the ffmpeg binary.
type FFmpegRenderer struct {
	workDir string
}

// NewFFmpegRenderer verifies ffmpeg is installed and prepares the work dir.
func NewFFmpegRenderer(workDir string) (*FFmpegRenderer, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not available: %w", err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create render work dir: %w", err)
	}
	return &FFmpegRenderer{workDir: workDir}, nil
}

// SceneClip renders one scene: the scene visual (or a default dark
// background), the narration audio and a key-point caption.
func (r *FFmpegRenderer) SceneClip(ctx context.Context, in pipeline.SceneClipInput) (string, error) {
	outPath := filepath.Join(r.workDir, fmt.Sprintf("scene_%03d_%s.mp4", in.SceneNumber, uuid.NewString()[:8]))

	duration := in.Duration
	if duration <= 0 {
		duration = 5
	}

	args := []string{"-y"}
	if in.ImagePath != "" {
		args = append(args, "-loop", "1", "-i", in.ImagePath)
	} else {
		args = append(args, "-f", "lavfi", "-i", fmt.Sprintf("color=c=0x1e1e32:s=1920x1080:d=%d", duration))
	}

	hasAudio := in.AudioPath != ""
	if hasAudio {
		args = append(args, "-i", in.AudioPath)
	}

	filters := []string{"scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2"}
	if in.Caption != "" {
		filters = append(filters, fmt.Sprintf(
			"drawtext=text='%s':fontcolor=white:fontsize=40:x=(w-text_w)/2:y=h-120:box=1:boxcolor=black@0.5:boxborderw=16",
			escapeDrawtext(in.Caption)))
	}
	args = append(args, "-vf", strings.Join(filters, ","))

	args = append(args,
		"-t", fmt.Sprintf("%d", duration),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-r", "24",
	)
	if hasAudio {
		args = append(args, "-c:a", "aac", "-b:a", "128k", "-shortest")
	} else {
		args = append(args, "-an")
	}
	args = append(args, outPath)

	if err := r.run(ctx, args); err != nil {
		return "", fmt.Errorf("scene %d clip render failed: %w", in.SceneNumber, err)
	}
	return outPath, nil
}

// Concat joins the scene clips in order and encodes the final video.
// Fails with ErrNoClips when given nothing to join.
func (r *FFmpegRenderer) Concat(ctx context.Context, clipPaths []string) (string, error) {
	if len(clipPaths) == 0 {
		return "", pipeline.ErrNoClips
	}

	listPath := filepath.Join(r.workDir, fmt.Sprintf("concat_%s.txt", uuid.NewString()[:8]))
	var lines []string
	for _, clip := range clipPaths {
		lines = append(lines, fmt.Sprintf("file '%s'", clip))
	}
	if err := os.WriteFile(listPath, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	outPath := filepath.Join(r.workDir, fmt.Sprintf("video_%s.mp4", uuid.NewString()[:8]))
	args := []string{"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		outPath,
	}
	if err := r.run(ctx, args); err != nil {
		return "", fmt.Errorf("concat failed: %w", err)
	}
	return outPath, nil
}

// Cleanup removes a rendered file once it has been uploaded.
func (r *FFmpegRenderer) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("failed to clean up render artifact")
	}
}

func (r *FFmpegRenderer) run(ctx context.Context, args []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String(), 300))
	}
	return nil
}

// escapeDrawtext escapes characters with meaning inside a drawtext filter.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
		`,`, `\,`,
	)
	return r.Replace(s)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

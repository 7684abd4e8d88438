package pipeline

import (
	"context"

	"github.com/eduvid/videogen-worker/internal/models"
)

// Capability providers consumed by the stages. Each is a narrow
// interface over one external service; implementations live in
// internal/clients and internal/render.

// TextCompletion generates structured output from a language model.
// The provider is expected to return JSON matching out's shape.
type TextCompletion interface {
	GenerateJSON(ctx context.Context, systemPrompt, userContent string, out interface{}) error
}

// TextToSpeech synthesizes narration audio and returns the local file path.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text, voice string) (string, error)
}

// ImageGeneration generates an illustration and returns the local file path.
type ImageGeneration interface {
	Generate(ctx context.Context, prompt, style, size string) (string, error)
}

// DiagramRenderer renders a diagram locally and returns the file path.
type DiagramRenderer interface {
	Render(ctx context.Context, description, style, colorScheme string) (string, error)
}

// SceneClipInput carries everything the renderer needs for one scene clip.
type SceneClipInput struct {
	SceneNumber int
	AudioPath   string // narration audio, may be empty
	ImagePath   string // scene visual, may be empty (renderer uses default background)
	Caption     string // key-point overlay text
	Duration    int    // seconds
}

// VideoRenderer builds per-scene clips and concatenates them into the
// final encoded video. Concat fails with ErrNoClips on empty input.
type VideoRenderer interface {
	SceneClip(ctx context.Context, in SceneClipInput) (string, error)
	Concat(ctx context.Context, clipPaths []string) (string, error)
}

// BlobStore uploads a local file and returns its public URL.
type BlobStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// JobStore is the durable record of job identity, status and progress.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	SaveStageResult(ctx context.Context, job *models.Job) error
	UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, progress int, errMsg string) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	StoreVideo(ctx context.Context, video *models.VideoRecord) error
	StoreAsset(ctx context.Context, jobID string, asset *models.Asset) error
}

// Notifier delivers live progress to whatever subscriber is registered
// for the job. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, jobID string, progress int, phase, message string)
}

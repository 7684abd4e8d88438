package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/eduvid/videogen-worker/internal/models"
	"github.com/eduvid/videogen-worker/internal/pipeline"
)

// Composer is the final stage: narration synthesis, per-scene clip
// rendering, concatenation and upload. Any failure here fails the job.
type Composer struct {
	tts      pipeline.TextToSpeech
	renderer pipeline.VideoRenderer
	blobs    pipeline.BlobStore
	voice    string
}

// NewComposer creates the composition stage. voice selects the
// narration voice for the speech provider.
func NewComposer(tts pipeline.TextToSpeech, renderer pipeline.VideoRenderer, blobs pipeline.BlobStore, voice string) *Composer {
	return &Composer{
		tts:      tts,
		renderer: renderer,
		blobs:    blobs,
		voice:    voice,
	}
}

func (c *Composer) Name() string { return "compose" }

func (c *Composer) Requires() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldScript, pipeline.FieldVisualPlan, pipeline.FieldAssets}
}

// Execute builds each scene clip in script order, concatenates them,
// uploads the result and sets job.OutputReference to the stored URL.
func (c *Composer) Execute(ctx context.Context, job *models.Job) error {
	clips := make([]string, 0, len(job.Script.Scenes))
	for _, scene := range job.Script.Scenes {
		clip, err := c.renderScene(ctx, job, scene)
		if err != nil {
			return &pipeline.CompositionError{Err: fmt.Errorf("scene %d: %w", scene.SceneNumber, err)}
		}
		clips = append(clips, clip)
	}

	videoPath, err := c.renderer.Concat(ctx, clips)
	if err != nil {
		return &pipeline.CompositionError{Err: err}
	}

	key := fmt.Sprintf("videos/%s.mp4", job.ID)
	url, err := c.blobs.Upload(ctx, videoPath, key)
	if err != nil {
		return &pipeline.CompositionError{Err: fmt.Errorf("upload: %w", err)}
	}

	job.OutputReference = url
	return nil
}

func (c *Composer) renderScene(ctx context.Context, job *models.Job, scene models.Scene) (string, error) {
	audioPath := ""
	if strings.TrimSpace(scene.Narration) != "" {
		path, err := c.tts.Synthesize(ctx, scene.Narration, c.voice)
		if err != nil {
			return "", fmt.Errorf("narration synthesis: %w", err)
		}
		audioPath = path
	}

	imagePath := assetPathForScene(job.Assets, scene.SceneNumber)
	if imagePath == "" {
		log.Debug().
			Str("jobId", job.ID).
			Int("sceneNumber", scene.SceneNumber).
			Msg("No asset for scene, rendering with default background")
	}

	return c.renderer.SceneClip(ctx, pipeline.SceneClipInput{
		SceneNumber: scene.SceneNumber,
		AudioPath:   audioPath,
		ImagePath:   imagePath,
		Caption:     captionFor(scene),
		Duration:    scene.Duration,
	})
}

// assetPathForScene returns the first asset generated for the scene.
func assetPathForScene(assets []models.Asset, sceneNumber int) string {
	for _, asset := range assets {
		if asset.SceneNumber == sceneNumber {
			return asset.Path
		}
	}
	return ""
}

// captionFor uses the scene's first key point as the overlay caption.
func captionFor(scene models.Scene) string {
	if len(scene.KeyPoints) > 0 {
		return scene.KeyPoints[0]
	}
	return ""
}

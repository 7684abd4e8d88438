package stages

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/eduvid/videogen-worker/internal/metrics"
	"github.com/eduvid/videogen-worker/internal/models"
	"github.com/eduvid/videogen-worker/internal/pipeline"
)

// AssetGenerator fans the visual plan out to the diagram and image
// providers with bounded concurrency. Failed elements are logged and
// dropped; the stage only fails when every element fails while the
// plan is non-empty.
type AssetGenerator struct {
	diagrams    pipeline.DiagramRenderer
	images      pipeline.ImageGeneration
	concurrency int
}

// NewAssetGenerator creates the asset generation stage. concurrency
// bounds the number of in-flight provider calls.
func NewAssetGenerator(diagrams pipeline.DiagramRenderer, images pipeline.ImageGeneration, concurrency int) *AssetGenerator {
	if concurrency < 1 {
		concurrency = 4
	}
	return &AssetGenerator{
		diagrams:    diagrams,
		images:      images,
		concurrency: concurrency,
	}
}

func (g *AssetGenerator) Name() string { return "generate_assets" }

func (g *AssetGenerator) Requires() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldVisualPlan}
}

// Execute generates one asset per plan element in parallel and
// populates job.Assets with the successes, ordered by plan position.
func (g *AssetGenerator) Execute(ctx context.Context, job *models.Job) error {
	elements := job.VisualPlan.Elements
	results := make([]*models.Asset, len(elements))
	errs := make([]error, len(elements))

	var wg sync.WaitGroup
	sem := make(chan struct{}, g.concurrency)

	for i, element := range elements {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, el models.VisualElement) {
			defer wg.Done()
			defer func() { <-sem }()

			asset, err := g.generateElement(ctx, el)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx] = asset
		}(i, element)
	}
	wg.Wait()

	assets := make([]models.Asset, 0, len(elements))
	failed := 0
	for i := range elements {
		if errs[i] != nil {
			failed++
			metrics.AssetGenerationFailures.Inc()
			log.Warn().
				Err(errs[i]).
				Str("jobId", job.ID).
				Int("sceneNumber", elements[i].SceneNumber).
				Str("elementType", string(elements[i].Type)).
				Msg("Asset generation failed, continuing without it")
			continue
		}
		assets = append(assets, *results[i])
	}

	if len(elements) > 0 && failed == len(elements) {
		return fmt.Errorf("all %d asset generations failed, last error: %w", failed, errs[len(errs)-1])
	}

	job.Assets = assets
	return nil
}

func (g *AssetGenerator) generateElement(ctx context.Context, el models.VisualElement) (*models.Asset, error) {
	var (
		path string
		err  error
	)
	switch el.Type {
	case models.ElementDiagram:
		path, err = g.diagrams.Render(ctx, el.Description, el.Style, el.ColorScheme)
	case models.ElementIllustration:
		path, err = g.images.Generate(ctx, el.Description, el.Style, "1792x1024")
	default:
		return nil, fmt.Errorf("unknown visual element type %q", el.Type)
	}
	if err != nil {
		return nil, err
	}

	return &models.Asset{
		ID:          uuid.New().String(),
		Type:        el.Type,
		SceneNumber: el.SceneNumber,
		Path:        path,
		Metadata: map[string]string{
			"style":        el.Style,
			"color_scheme": el.ColorScheme,
		},
	}, nil
}

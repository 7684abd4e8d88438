package stages

import (
	"context"
	"strings"

	"github.com/eduvid/videogen-worker/internal/models"
	"github.com/eduvid/videogen-worker/internal/pipeline"
)

// VisualPlanner maps the script onto visual elements: exactly one
// element per scene, each referencing that scene's number. Scenes
// whose description calls for a scene or picture become illustrations;
// everything else becomes a locally rendered diagram.
type VisualPlanner struct {
	style       string
	colorScheme string
}

// NewVisualPlanner creates the planning stage with the configured
// default style and color scheme.
func NewVisualPlanner(style, colorScheme string) *VisualPlanner {
	if style == "" {
		style = "modern"
	}
	if colorScheme == "" {
		colorScheme = "blue_gradient"
	}
	return &VisualPlanner{style: style, colorScheme: colorScheme}
}

func (p *VisualPlanner) Name() string { return "plan_visuals" }

func (p *VisualPlanner) Requires() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldScript, pipeline.FieldAnalysis}
}

// Execute builds the visual plan and populates job.VisualPlan.
func (p *VisualPlanner) Execute(ctx context.Context, job *models.Job) error {
	elements := make([]models.VisualElement, 0, len(job.Script.Scenes))
	for _, scene := range job.Script.Scenes {
		description := scene.VisualDescription
		if strings.TrimSpace(description) == "" {
			description = scene.Narration
		}
		elements = append(elements, models.VisualElement{
			SceneNumber: scene.SceneNumber,
			Type:        elementTypeFor(description),
			Description: description,
			Style:       p.style,
			ColorScheme: p.colorScheme,
		})
	}

	job.VisualPlan = &models.VisualPlan{
		Elements:     elements,
		OverallStyle: "professional",
		Transitions:  "smooth_fade",
	}
	return nil
}

// elementTypeFor picks illustration for descriptions that read like a
// picture, diagram otherwise.
func elementTypeFor(description string) models.ElementType {
	lower := strings.ToLower(description)
	for _, hint := range []string{"photo", "picture", "illustration", "scene of", "image of"} {
		if strings.Contains(lower, hint) {
			return models.ElementIllustration
		}
	}
	return models.ElementDiagram
}

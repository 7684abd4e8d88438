package stages

import (
	"context"
	"testing"

	"github.com/eduvid/videogen-worker/internal/models"
)

func scriptedJob(scenes ...models.Scene) *models.Job {
	job := analyzedJob()
	job.Script = &models.VideoScript{Title: "t", Scenes: scenes}
	return job
}

// TestPlannerOneElementPerScene verifies the plan covers every scene
// exactly once with matching scene numbers.
func TestPlannerOneElementPerScene(t *testing.T) {
	job := scriptedJob(
		models.Scene{SceneNumber: 1, Narration: "a", VisualDescription: "flowchart of the algorithm"},
		models.Scene{SceneNumber: 2, Narration: "b", VisualDescription: "diagram of array swaps"},
		models.Scene{SceneNumber: 3, Narration: "c", VisualDescription: "comparison table"},
	)

	p := NewVisualPlanner("modern", "blue_gradient")
	if err := p.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	plan := job.VisualPlan
	if len(plan.Elements) != 3 {
		t.Fatalf("elements = %d, want 3", len(plan.Elements))
	}
	for i, el := range plan.Elements {
		if el.SceneNumber != i+1 {
			t.Fatalf("element[%d] scene = %d, want %d", i, el.SceneNumber, i+1)
		}
		if el.Style != "modern" || el.ColorScheme != "blue_gradient" {
			t.Fatalf("element[%d] = %s/%s, want modern/blue_gradient", i, el.Style, el.ColorScheme)
		}
	}
	if plan.OverallStyle != "professional" || plan.Transitions != "smooth_fade" {
		t.Fatalf("plan = %s/%s, want professional/smooth_fade", plan.OverallStyle, plan.Transitions)
	}
}

// TestPlannerElementTypes checks the diagram/illustration split.
func TestPlannerElementTypes(t *testing.T) {
	job := scriptedJob(
		models.Scene{SceneNumber: 1, Narration: "a", VisualDescription: "flowchart of recursion"},
		models.Scene{SceneNumber: 2, Narration: "b", VisualDescription: "a picture of a library with sorted shelves"},
	)

	p := NewVisualPlanner("", "")
	if err := p.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if job.VisualPlan.Elements[0].Type != models.ElementDiagram {
		t.Fatalf("element[0] type = %s, want diagram", job.VisualPlan.Elements[0].Type)
	}
	if job.VisualPlan.Elements[1].Type != models.ElementIllustration {
		t.Fatalf("element[1] type = %s, want illustration", job.VisualPlan.Elements[1].Type)
	}
}

// TestPlannerFallsBackToNarration verifies scenes without a visual
// description still get an element.
func TestPlannerFallsBackToNarration(t *testing.T) {
	job := scriptedJob(models.Scene{SceneNumber: 1, Narration: "the narration text"})

	p := NewVisualPlanner("", "")
	if err := p.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if job.VisualPlan.Elements[0].Description != "the narration text" {
		t.Fatalf("description = %q, want narration fallback", job.VisualPlan.Elements[0].Description)
	}
}

package stages

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/eduvid/videogen-worker/internal/models"
)

type fakeDiagrams struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (f *fakeDiagrams) Render(ctx context.Context, description, style, colorScheme string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail[description] {
		return "", errors.New("render failed")
	}
	return "/tmp/diagram_" + description + ".png", nil
}

type fakeImages struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeImages) Generate(ctx context.Context, prompt, style, size string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "/tmp/img_" + prompt + ".png", nil
}

func plannedJob(elements ...models.VisualElement) *models.Job {
	job := analyzedJob()
	job.VisualPlan = &models.VisualPlan{Elements: elements}
	return job
}

// TestAssetGeneratorAllSucceed verifies one asset per element, in plan order.
func TestAssetGeneratorAllSucceed(t *testing.T) {
	job := plannedJob(
		models.VisualElement{SceneNumber: 1, Type: models.ElementDiagram, Description: "d1", Style: "modern", ColorScheme: "blue_gradient"},
		models.VisualElement{SceneNumber: 2, Type: models.ElementIllustration, Description: "i1", Style: "modern"},
		models.VisualElement{SceneNumber: 3, Type: models.ElementDiagram, Description: "d2", Style: "modern"},
	)

	g := NewAssetGenerator(&fakeDiagrams{}, &fakeImages{}, 2)
	if err := g.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(job.Assets) != 3 {
		t.Fatalf("assets = %d, want 3", len(job.Assets))
	}
	for i, want := range []int{1, 2, 3} {
		if job.Assets[i].SceneNumber != want {
			t.Fatalf("asset[%d] scene = %d, want %d", i, job.Assets[i].SceneNumber, want)
		}
		if job.Assets[i].ID == "" || job.Assets[i].Path == "" {
			t.Fatalf("asset[%d] missing id or path: %+v", i, job.Assets[i])
		}
	}
}

// TestAssetGeneratorDropsFailures verifies partial failure keeps the
// successes and does not fail the stage.
func TestAssetGeneratorDropsFailures(t *testing.T) {
	job := plannedJob(
		models.VisualElement{SceneNumber: 1, Type: models.ElementDiagram, Description: "ok"},
		models.VisualElement{SceneNumber: 2, Type: models.ElementDiagram, Description: "bad"},
		models.VisualElement{SceneNumber: 3, Type: models.ElementDiagram, Description: "ok2"},
	)

	g := NewAssetGenerator(&fakeDiagrams{fail: map[string]bool{"bad": true}}, &fakeImages{}, 2)
	if err := g.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(job.Assets) != 2 {
		t.Fatalf("assets = %d, want 2", len(job.Assets))
	}
	if job.Assets[0].SceneNumber != 1 || job.Assets[1].SceneNumber != 3 {
		t.Fatalf("surviving scenes = %d,%d, want 1,3", job.Assets[0].SceneNumber, job.Assets[1].SceneNumber)
	}
}

// TestAssetGeneratorAllFail verifies a non-empty plan with zero
// successes fails the stage.
func TestAssetGeneratorAllFail(t *testing.T) {
	job := plannedJob(
		models.VisualElement{SceneNumber: 1, Type: models.ElementIllustration, Description: "a"},
		models.VisualElement{SceneNumber: 2, Type: models.ElementIllustration, Description: "b"},
	)

	g := NewAssetGenerator(&fakeDiagrams{}, &fakeImages{err: errors.New("quota exceeded")}, 2)
	if err := g.Execute(context.Background(), job); err == nil {
		t.Fatal("expected error when every generation fails")
	}
	if job.Assets != nil {
		t.Fatalf("assets = %+v, want unset on failure", job.Assets)
	}
}

// TestAssetGeneratorEmptyPlan verifies an empty plan yields an empty,
// non-nil asset list.
func TestAssetGeneratorEmptyPlan(t *testing.T) {
	job := plannedJob()

	g := NewAssetGenerator(&fakeDiagrams{}, &fakeImages{}, 2)
	if err := g.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if job.Assets == nil || len(job.Assets) != 0 {
		t.Fatalf("assets = %+v, want empty non-nil", job.Assets)
	}
}

// TestAssetGeneratorBoundedConcurrency checks every element is
// dispatched under a tight concurrency limit.
func TestAssetGeneratorBoundedConcurrency(t *testing.T) {
	var elements []models.VisualElement
	for i := 1; i <= 20; i++ {
		elements = append(elements, models.VisualElement{
			SceneNumber: i, Type: models.ElementDiagram, Description: fmt.Sprintf("d%d", i),
		})
	}
	job := plannedJob(elements...)

	diagrams := &fakeDiagrams{}
	g := NewAssetGenerator(diagrams, &fakeImages{}, 1)
	if err := g.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if diagrams.calls != 20 {
		t.Fatalf("render calls = %d, want 20", diagrams.calls)
	}
	if len(job.Assets) != 20 {
		t.Fatalf("assets = %d, want 20", len(job.Assets))
	}
}

package stages

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/eduvid/videogen-worker/internal/models"
	"github.com/eduvid/videogen-worker/internal/pipeline"
)

// routingLLM answers the analysis and scripting prompts with distinct
// canned responses, keyed on the system prompt.
type routingLLM struct {
	analysis models.ContentAnalysis
	script   models.VideoScript
}

func (f *routingLLM) GenerateJSON(ctx context.Context, systemPrompt, userContent string, out interface{}) error {
	var response interface{}
	if strings.Contains(systemPrompt, "content analyzer") {
		response = f.analysis
	} else {
		response = f.script
	}
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

type memoryStore struct {
	jobs map[string]*models.Job
}

func newMemoryStore() *memoryStore {
	return &memoryStore{jobs: map[string]*models.Job{}}
}

func (s *memoryStore) CreateJob(ctx context.Context, job *models.Job) error {
	s.jobs[job.ID] = job
	return nil
}
func (s *memoryStore) SaveStageResult(ctx context.Context, job *models.Job) error { return nil }
func (s *memoryStore) UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, progress int, errMsg string) error {
	return nil
}
func (s *memoryStore) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}
	return job, nil
}
func (s *memoryStore) StoreVideo(ctx context.Context, video *models.VideoRecord) error { return nil }
func (s *memoryStore) StoreAsset(ctx context.Context, jobID string, asset *models.Asset) error {
	return nil
}

type silentNotifier struct {
	updates []models.ProgressUpdate
}

func (n *silentNotifier) Notify(ctx context.Context, jobID string, progress int, phase, message string) {
	n.updates = append(n.updates, models.ProgressUpdate{
		JobID: jobID, Progress: progress, Status: phase, Message: message,
	})
}

func fullScript() models.VideoScript {
	return models.VideoScript{
		Title:        "Understanding Bubble Sort",
		Introduction: "A walk through the simplest sorting algorithm.",
		Scenes: []models.Scene{
			{Narration: "Bubble sort compares adjacent elements and swaps them when out of order.",
				Duration: 12, VisualDescription: "flowchart of the swap loop", KeyPoints: []string{"compare and swap"}},
			{Narration: "After each pass the largest element has bubbled to the end.",
				Duration: 10, VisualDescription: "a picture of bubbles rising in water", KeyPoints: []string{"largest last"}},
		},
		Conclusion: "Simple to write, quadratic to run.",
	}
}

// fullPipeline builds the coordinator over the five real stage
// adapters with the given providers.
func fullPipeline(store pipeline.JobStore, notifier pipeline.Notifier,
	tts pipeline.TextToSpeech, images pipeline.ImageGeneration,
) *pipeline.Coordinator {
	llm := &routingLLM{
		analysis: models.ContentAnalysis{
			Summary:           "bubble sort fundamentals",
			KeyConcepts:       []string{"comparison", "swap", "passes"},
			DifficultyLevel:   "beginner",
			EstimatedDuration: 120,
			Topics:            []string{"sorting"},
			TargetAudience:    "CS beginners",
		},
		script: fullScript(),
	}
	return pipeline.New(store, notifier,
		NewAnalyzer(llm),
		NewScriptWriter(llm),
		NewVisualPlanner("modern", "blue_gradient"),
		NewAssetGenerator(&fakeDiagrams{}, images, 2),
		NewComposer(tts, &fakeRenderer{}, &fakeBlobs{}, "en-US-JennyNeural"),
	)
}

// TestFullPipelineCompletes runs a job through the five real stages
// with all providers succeeding.
func TestFullPipelineCompletes(t *testing.T) {
	store := newMemoryStore()
	notifier := &silentNotifier{}
	c := fullPipeline(store, notifier, &fakeTTS{}, &fakeImages{})

	job := &models.Job{ID: "job-e2e", Content: strings.Repeat("bubble sort compares adjacent elements ", 100)}
	if err := c.Run(context.Background(), job); err != nil {
		t.Fatalf("run: %v", err)
	}

	if job.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", job.Status)
	}
	if job.Progress != 100 {
		t.Fatalf("progress = %d, want 100", job.Progress)
	}
	if job.OutputReference == "" {
		t.Fatal("expected non-empty output reference")
	}
	if job.Error != "" {
		t.Fatalf("error = %q, want empty", job.Error)
	}

	if len(job.Script.Scenes) != 2 {
		t.Fatalf("scenes = %d, want 2", len(job.Script.Scenes))
	}
	if len(job.VisualPlan.Elements) != len(job.Script.Scenes) {
		t.Fatalf("plan elements = %d, want %d", len(job.VisualPlan.Elements), len(job.Script.Scenes))
	}
	if len(job.Assets) != 2 {
		t.Fatalf("assets = %d, want 2", len(job.Assets))
	}

	last := notifier.updates[len(notifier.updates)-1]
	if last.Progress != 100 || last.Status != "completed" {
		t.Fatalf("final notification = %+v, want 100/completed", last)
	}
}

// TestFullPipelineSpeechFailureFailsJob verifies an always-failing
// speech provider fails the whole job with a synthesis cause.
func TestFullPipelineSpeechFailureFailsJob(t *testing.T) {
	store := newMemoryStore()
	tts := &fakeTTS{err: errors.New("speech service down")}
	c := fullPipeline(store, &silentNotifier{}, tts, &fakeImages{})

	job := &models.Job{ID: "job-e2e", Content: "bubble sort"}
	if err := c.Run(context.Background(), job); err == nil {
		t.Fatal("expected error from failing speech provider")
	}

	if job.Status != models.StatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if job.Progress != 0 {
		t.Fatalf("progress = %d, want 0", job.Progress)
	}
	if !strings.Contains(job.Error, "narration synthesis") || !strings.Contains(job.Error, "speech service down") {
		t.Fatalf("error = %q, want synthesis cause", job.Error)
	}
	if job.OutputReference != "" {
		t.Fatalf("output reference = %q, want empty on failure", job.OutputReference)
	}
}

// TestFullPipelinePartialAssetFailureCompletes verifies one of two
// asset tasks failing still completes the job with the surviving asset.
func TestFullPipelinePartialAssetFailureCompletes(t *testing.T) {
	store := newMemoryStore()
	// The second scene plans an illustration; a failing image provider
	// drops that one asset while the scene-one diagram survives.
	images := &fakeImages{err: errors.New("quota exceeded")}
	c := fullPipeline(store, &silentNotifier{}, &fakeTTS{}, images)

	job := &models.Job{ID: "job-e2e", Content: "bubble sort"}
	if err := c.Run(context.Background(), job); err != nil {
		t.Fatalf("run: %v", err)
	}

	if job.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", job.Status)
	}
	if len(job.Assets) != 1 {
		t.Fatalf("assets = %d, want exactly 1", len(job.Assets))
	}
	if job.Assets[0].Type != models.ElementDiagram || job.Assets[0].SceneNumber != 1 {
		t.Fatalf("surviving asset = %+v, want scene 1 diagram", job.Assets[0])
	}
	if job.OutputReference == "" {
		t.Fatal("expected non-empty output reference")
	}
}

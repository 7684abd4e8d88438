package stages

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/eduvid/videogen-worker/internal/models"
	"github.com/eduvid/videogen-worker/internal/pipeline"
)

// fakeLLM returns a canned value by marshaling it into out.
type fakeLLM struct {
	response interface{}
	err      error
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, systemPrompt, userContent string, out interface{}) error {
	if f.err != nil {
		return f.err
	}
	data, err := json.Marshal(f.response)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func analyzedJob() *models.Job {
	return &models.Job{
		ID:      "job-1",
		Content: "bubble sort compares adjacent elements",
		Analysis: &models.ContentAnalysis{
			Summary:           "sorting basics",
			KeyConcepts:       []string{"comparison", "swap"},
			DifficultyLevel:   "beginner",
			EstimatedDuration: 120,
			TargetAudience:    "CS students",
		},
	}
}

// TestScriptWriterNormalizesScenes verifies scene renumbering, duration
// estimation and total duration recomputation.
func TestScriptWriterNormalizesScenes(t *testing.T) {
	llm := &fakeLLM{response: models.VideoScript{
		Title:        "Bubble Sort",
		Introduction: "intro",
		Scenes: []models.Scene{
			{SceneNumber: 7, Narration: "First scene narration text here", Duration: 12},
			// 150 narration words at 150 wpm is 60 seconds
			{SceneNumber: 2, Narration: repeatWords("word", 150)},
		},
		Conclusion:    "outro",
		TotalDuration: 999,
	}}

	job := analyzedJob()
	w := NewScriptWriter(llm)
	if err := w.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	script := job.Script
	if script.Scenes[0].SceneNumber != 1 || script.Scenes[1].SceneNumber != 2 {
		t.Fatalf("scene numbers = %d,%d, want 1,2", script.Scenes[0].SceneNumber, script.Scenes[1].SceneNumber)
	}
	if script.Scenes[1].Duration != 60 {
		t.Fatalf("estimated duration = %d, want 60", script.Scenes[1].Duration)
	}
	if script.TotalDuration != 72 {
		t.Fatalf("total duration = %d, want 72", script.TotalDuration)
	}
}

// TestScriptWriterRejectsEmptyScenes checks schema validation on a
// structurally empty response.
func TestScriptWriterRejectsEmptyScenes(t *testing.T) {
	llm := &fakeLLM{response: models.VideoScript{Title: "Empty"}}

	w := NewScriptWriter(llm)
	err := w.Execute(context.Background(), analyzedJob())

	var schemaErr *pipeline.SchemaValidationError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want *SchemaValidationError", err)
	}
	if schemaErr.Field != "scenes" {
		t.Fatalf("field = %s, want scenes", schemaErr.Field)
	}
}

// TestScriptWriterPropagatesProviderError verifies upstream failures
// pass through untouched.
func TestScriptWriterPropagatesProviderError(t *testing.T) {
	provErr := &pipeline.ProviderError{Op: "text-completion", Err: errors.New("timeout")}
	w := NewScriptWriter(&fakeLLM{err: provErr})

	err := w.Execute(context.Background(), analyzedJob())
	var got *pipeline.ProviderError
	if !errors.As(err, &got) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
}

// TestAnalyzerValidatesResponse checks the analysis schema guard.
func TestAnalyzerValidatesResponse(t *testing.T) {
	cases := []struct {
		name     string
		analysis models.ContentAnalysis
		field    string
	}{
		{"missing summary", models.ContentAnalysis{KeyConcepts: []string{"x"}, DifficultyLevel: "beginner", EstimatedDuration: 60, TargetAudience: "all"}, "summary"},
		{"bad difficulty", models.ContentAnalysis{Summary: "s", KeyConcepts: []string{"x"}, DifficultyLevel: "expert", EstimatedDuration: 60, TargetAudience: "all"}, "difficulty_level"},
		{"zero duration", models.ContentAnalysis{Summary: "s", KeyConcepts: []string{"x"}, DifficultyLevel: "beginner", TargetAudience: "all"}, "estimated_duration"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAnalyzer(&fakeLLM{response: tc.analysis})
			err := a.Execute(context.Background(), &models.Job{ID: "job-1", Content: "x"})

			var schemaErr *pipeline.SchemaValidationError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("err = %v, want *SchemaValidationError", err)
			}
			if schemaErr.Field != tc.field {
				t.Fatalf("field = %s, want %s", schemaErr.Field, tc.field)
			}
		})
	}
}

// TestAnalyzerAcceptsValidResponse verifies a well-formed analysis is stored.
func TestAnalyzerAcceptsValidResponse(t *testing.T) {
	a := NewAnalyzer(&fakeLLM{response: models.ContentAnalysis{
		Summary:           "s",
		KeyConcepts:       []string{"x"},
		DifficultyLevel:   "intermediate",
		EstimatedDuration: 90,
		Topics:            []string{"sorting"},
		TargetAudience:    "all",
	}})

	job := &models.Job{ID: "job-1", Content: "x"}
	if err := a.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if job.Analysis == nil || job.Analysis.EstimatedDuration != 90 {
		t.Fatalf("analysis = %+v, want duration 90", job.Analysis)
	}
}

func repeatWords(word string, n int) string {
	out := word
	for i := 1; i < n; i++ {
		out += " " + word
	}
	return out
}

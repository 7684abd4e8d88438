package stages

import (
	"context"
	"strings"

	"github.com/eduvid/videogen-worker/internal/models"
	"github.com/eduvid/videogen-worker/internal/pipeline"
)

const analyzerSystemPrompt = `You are an expert educational content analyzer.
Analyze the given content and extract key information for creating an educational video.

Respond with ONLY a valid JSON object, no markdown, no explanation, with these fields:
- "summary": brief summary of the content (string)
- "key_concepts": main concepts to cover (array of strings)
- "difficulty_level": one of "beginner", "intermediate", "advanced"
- "estimated_duration": estimated video duration in seconds (integer)
- "topics": list of topics (array of strings)
- "target_audience": target audience description (string)`

// Analyzer is the content analysis stage: one completion call plus
// validation that the structured output has the expected shape.
type Analyzer struct {
	llm pipeline.TextCompletion
}

// NewAnalyzer creates the analysis stage.
func NewAnalyzer(llm pipeline.TextCompletion) *Analyzer {
	return &Analyzer{llm: llm}
}

func (a *Analyzer) Name() string { return "analyze" }

func (a *Analyzer) Requires() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldContent}
}

// Execute analyzes the job content and populates job.Analysis.
func (a *Analyzer) Execute(ctx context.Context, job *models.Job) error {
	var analysis models.ContentAnalysis
	if err := a.llm.GenerateJSON(ctx, analyzerSystemPrompt, job.Content, &analysis); err != nil {
		return err
	}
	if err := validateAnalysis(&analysis); err != nil {
		return err
	}
	job.Analysis = &analysis
	return nil
}

func validateAnalysis(a *models.ContentAnalysis) error {
	if strings.TrimSpace(a.Summary) == "" {
		return &pipeline.SchemaValidationError{Field: "summary", Reason: "is empty"}
	}
	if len(a.KeyConcepts) == 0 {
		return &pipeline.SchemaValidationError{Field: "key_concepts", Reason: "is empty"}
	}
	switch a.DifficultyLevel {
	case "beginner", "intermediate", "advanced":
	default:
		return &pipeline.SchemaValidationError{Field: "difficulty_level", Reason: "has unknown value"}
	}
	if a.EstimatedDuration <= 0 {
		return &pipeline.SchemaValidationError{Field: "estimated_duration", Reason: "must be positive"}
	}
	if strings.TrimSpace(a.TargetAudience) == "" {
		return &pipeline.SchemaValidationError{Field: "target_audience", Reason: "is empty"}
	}
	return nil
}

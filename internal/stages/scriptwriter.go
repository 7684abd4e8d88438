package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eduvid/videogen-worker/internal/models"
	"github.com/eduvid/videogen-worker/internal/pipeline"
)

const scriptSystemPrompt = `You are an expert educational video scriptwriter.
Create an engaging, clear, and well-structured script for an educational video.

Requirements:
- Clear introduction that hooks the viewer
- Well-paced narration (around 150 words per minute)
- Logical flow between concepts
- Visual descriptions for each scene
- Strong conclusion that reinforces learning
- Split the narration into multiple scenes, one concept per scene

Respond with ONLY a valid JSON object, no markdown, no explanation:
{
  "title": string,
  "introduction": string,
  "scenes": [
    {
      "scene_number": integer starting at 1,
      "narration": string (what the narrator says),
      "duration": integer seconds,
      "visual_description": string (visual elements needed),
      "key_points": array of strings
    }
  ],
  "conclusion": string
}`

// wordsPerMinute is the pacing used to estimate missing scene durations.
const wordsPerMinute = 150

// ScriptWriter is the script generation stage.
type ScriptWriter struct {
	llm pipeline.TextCompletion
}

// NewScriptWriter creates the scripting stage.
func NewScriptWriter(llm pipeline.TextCompletion) *ScriptWriter {
	return &ScriptWriter{llm: llm}
}

func (s *ScriptWriter) Name() string { return "script" }

func (s *ScriptWriter) Requires() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldContent, pipeline.FieldAnalysis}
}

// Execute generates the multi-scene script and populates job.Script.
// Scene numbers are normalized to a sequential run starting at 1, and
// the total duration is always recomputed as the sum of scene durations.
func (s *ScriptWriter) Execute(ctx context.Context, job *models.Job) error {
	userPrompt, err := buildScriptPrompt(job)
	if err != nil {
		return err
	}

	var script models.VideoScript
	if err := s.llm.GenerateJSON(ctx, scriptSystemPrompt, userPrompt, &script); err != nil {
		return err
	}
	if err := normalizeScript(&script); err != nil {
		return err
	}
	job.Script = &script
	return nil
}

func buildScriptPrompt(job *models.Job) (string, error) {
	analysisJSON, err := json.Marshal(job.Analysis)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Generate the video script for the following content.\n\n")
	sb.WriteString("CONTENT:\n")
	sb.WriteString(job.Content)
	sb.WriteString("\n\nANALYSIS:\n")
	sb.Write(analysisJSON)
	sb.WriteString("\n\nRespond ONLY with valid JSON.")
	return sb.String(), nil
}

func normalizeScript(script *models.VideoScript) error {
	if strings.TrimSpace(script.Title) == "" {
		return &pipeline.SchemaValidationError{Field: "title", Reason: "is empty"}
	}
	if len(script.Scenes) == 0 {
		return &pipeline.SchemaValidationError{Field: "scenes", Reason: "is empty"}
	}

	total := 0
	for i := range script.Scenes {
		scene := &script.Scenes[i]
		if strings.TrimSpace(scene.Narration) == "" {
			return &pipeline.SchemaValidationError{
				Field:  fmt.Sprintf("scenes[%d].narration", i),
				Reason: "is empty",
			}
		}
		scene.SceneNumber = i + 1
		if scene.Duration <= 0 {
			scene.Duration = estimateDuration(scene.Narration)
		}
		total += scene.Duration
	}
	script.TotalDuration = total
	return nil
}

// estimateDuration derives a scene length from narration word count.
func estimateDuration(narration string) int {
	words := len(strings.Fields(narration))
	seconds := words * 60 / wordsPerMinute
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

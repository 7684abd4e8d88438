package models

import (
	"time"
)

// JobStatus tracks a job through the generation pipeline.
// Transitions are strictly forward; failed is reachable from any
// non-terminal status and is itself terminal.
type JobStatus string

const (
	StatusCreated         JobStatus = "created"
	StatusAnalyzing       JobStatus = "analyzing"
	StatusScriptGenerated JobStatus = "script_generated"
	StatusVisualsPlanned  JobStatus = "visuals_planned"
	StatusAssetsGenerated JobStatus = "assets_generated"
	StatusComposing       JobStatus = "composing"
	StatusCompleted       JobStatus = "completed"
	StatusFailed          JobStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one content-to-video request, mutated in place by the pipeline.
// Each result field is owned by exactly one stage and never rewritten
// by a later stage.
type Job struct {
	ID       string    `json:"jobId"`
	Content  string    `json:"content"`
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"` // 0-100

	Analysis        *ContentAnalysis `json:"analysis,omitempty"`
	Script          *VideoScript     `json:"script,omitempty"`
	VisualPlan      *VisualPlan      `json:"visualPlan,omitempty"`
	Assets          []Asset          `json:"assets,omitempty"`
	OutputReference string           `json:"outputReference,omitempty"`

	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContentAnalysis is the structured output of the analysis stage.
type ContentAnalysis struct {
	Summary           string   `json:"summary"`
	KeyConcepts       []string `json:"key_concepts"`
	DifficultyLevel   string   `json:"difficulty_level"` // beginner, intermediate, advanced
	EstimatedDuration int      `json:"estimated_duration"`
	Topics            []string `json:"topics"`
	TargetAudience    string   `json:"target_audience"`
}

// Scene is one narrated segment of the video script.
type Scene struct {
	SceneNumber       int      `json:"scene_number"`
	Narration         string   `json:"narration"`
	Duration          int      `json:"duration"` // seconds
	VisualDescription string   `json:"visual_description"`
	KeyPoints         []string `json:"key_points"`
}

// VideoScript is the output of the script generation stage.
// TotalDuration is always the sum of scene durations.
type VideoScript struct {
	Title         string  `json:"title"`
	Introduction  string  `json:"introduction"`
	Scenes        []Scene `json:"scenes"`
	Conclusion    string  `json:"conclusion"`
	TotalDuration int     `json:"total_duration"`
}

// ElementType classifies a planned visual element.
type ElementType string

const (
	ElementDiagram      ElementType = "diagram"
	ElementIllustration ElementType = "illustration"
)

// VisualElement is one planned visual, tied to a single scene.
type VisualElement struct {
	SceneNumber int         `json:"scene_number"`
	Type        ElementType `json:"type"`
	Description string      `json:"description"`
	Style       string      `json:"style"`
	ColorScheme string      `json:"color_scheme"`
}

// VisualPlan is the output of the visual planning stage.
// Exactly one element per scene.
type VisualPlan struct {
	Elements     []VisualElement `json:"elements"`
	OverallStyle string          `json:"overall_style"`
	Transitions  string          `json:"transitions"`
}

// Asset is a generated media artifact for one scene.
type Asset struct {
	ID          string            `json:"assetId"`
	Type        ElementType       `json:"type"`
	SceneNumber int               `json:"scene_number"`
	Path        string            `json:"path"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ProgressUpdate is the payload delivered over the live progress channel.
type ProgressUpdate struct {
	JobID     string    `json:"jobId"`
	Progress  int       `json:"progress"` // 0-100
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// VideoRecord is the persisted output video row, written on completion.
type VideoRecord struct {
	JobID     string    `json:"jobId"`
	Title     string    `json:"title"`
	FileURL   string    `json:"fileUrl"`
	Duration  int       `json:"duration"` // seconds
	Quality   string    `json:"quality"`
	CreatedAt time.Time `json:"createdAt"`
}

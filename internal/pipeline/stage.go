package pipeline

import (
	"context"
	"fmt"

	"github.com/eduvid/videogen-worker/internal/models"
)

// Field names a job-state field that a stage produces or requires.
type Field string

const (
	FieldContent    Field = "content"
	FieldAnalysis   Field = "analysis"
	FieldScript     Field = "script"
	FieldVisualPlan Field = "visualPlan"
	FieldAssets     Field = "assets"
)

// Stage is one ordered step of the pipeline. Execute merges its result
// into the job in place and must only write the field it owns. Stages
// never retry internally; any provider failure surfaces as an error.
type Stage interface {
	Name() string
	Requires() []Field
	Execute(ctx context.Context, job *models.Job) error
}

// populated reports whether a job-state field has been produced.
func populated(job *models.Job, f Field) bool {
	switch f {
	case FieldContent:
		return job.Content != ""
	case FieldAnalysis:
		return job.Analysis != nil
	case FieldScript:
		return job.Script != nil
	case FieldVisualPlan:
		return job.VisualPlan != nil
	case FieldAssets:
		return job.Assets != nil
	default:
		return false
	}
}

// checkRequires validates the stage's predecessor-field contract before
// the stage runs.
func checkRequires(job *models.Job, s Stage) error {
	for _, f := range s.Requires() {
		if !populated(job, f) {
			return fmt.Errorf("stage %s requires field %q which is not populated", s.Name(), f)
		}
	}
	return nil
}

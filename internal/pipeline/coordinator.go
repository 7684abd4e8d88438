package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eduvid/videogen-worker/internal/metrics"
	"github.com/eduvid/videogen-worker/internal/models"
)

// stageRun binds a stage to its status value, progress checkpoint and
// progress-channel messages. Percentages follow the fixed budget:
// analysis 0-20, script 20-40, planning 40-50, assets 50-75,
// composition 75-95, finalization 95-100.
type stageRun struct {
	stage       Stage
	status      models.JobStatus
	checkpoint  int
	phase       string
	enterPct    int
	enterMsg    string
	activityPct int
	activityMsg string // empty for short stages
	doneMsg     string
}

// StageInit labels failures that happen before the first stage runs,
// such as the initial job persist. Unlike stage failures, the failed
// state may not have been durably recorded yet.
const StageInit = "init"

// Coordinator drives a job through the ordered stages, committing state
// at each boundary and reporting progress. One Run mutates one job; no
// two Runs share a job.
type Coordinator struct {
	store    JobStore
	notifier Notifier
	runs     []stageRun
}

// New assembles a coordinator over the five fixed stages.
func New(store JobStore, notifier Notifier, analyze, script, plan, assets, compose Stage) *Coordinator {
	return &Coordinator{
		store:    store,
		notifier: notifier,
		runs: []stageRun{
			{
				stage: analyze, status: models.StatusAnalyzing, checkpoint: 20,
				phase: "analyzing", enterPct: 5, enterMsg: "Analyzing content structure...",
				activityPct: 15, activityMsg: "Identifying key concepts...",
				doneMsg: "Content analysis complete",
			},
			{
				stage: script, status: models.StatusScriptGenerated, checkpoint: 40,
				phase: "generating_script", enterPct: 25, enterMsg: "Creating video script...",
				activityPct: 35, activityMsg: "Structuring scenes...",
				doneMsg: "Script generated",
			},
			{
				stage: plan, status: models.StatusVisualsPlanned, checkpoint: 50,
				phase: "planning_visuals", enterPct: 45, enterMsg: "Planning visual elements...",
				doneMsg: "Visual plan created",
			},
			{
				stage: assets, status: models.StatusAssetsGenerated, checkpoint: 75,
				phase: "generating_assets", enterPct: 55, enterMsg: "Generating diagrams...",
				activityPct: 65, activityMsg: "Creating illustrations...",
				doneMsg: "Assets generated",
			},
			{
				stage: compose, status: models.StatusComposing, checkpoint: 95,
				phase: "composing_video", enterPct: 80, enterMsg: "Synthesizing narration...",
				activityPct: 85, activityMsg: "Composing video...",
				doneMsg: "Video uploaded",
			},
		},
	}
}

// Run executes the pipeline for one job. Stage failures are converted
// into a failed job state and returned as a *StageError so a supervisor
// can observe them; they are never surfaced to the StartJob caller.
func (c *Coordinator) Run(ctx context.Context, job *models.Job) error {
	c.resetJobState(job)
	metrics.JobsStarted.Inc()

	if err := c.store.CreateJob(ctx, job); err != nil {
		return c.fail(ctx, job, StageInit, err)
	}

	for _, run := range c.runs {
		if err := ctx.Err(); err != nil {
			return c.fail(ctx, job, run.stage.Name(), err)
		}
		if err := checkRequires(job, run.stage); err != nil {
			return c.fail(ctx, job, run.stage.Name(), err)
		}

		c.notifier.Notify(ctx, job.ID, run.enterPct, run.phase, run.enterMsg)
		if run.activityMsg != "" {
			c.notifier.Notify(ctx, job.ID, run.activityPct, run.phase, run.activityMsg)
		}

		started := time.Now()
		if err := run.stage.Execute(ctx, job); err != nil {
			return c.fail(ctx, job, run.stage.Name(), err)
		}
		metrics.StageDuration.WithLabelValues(run.stage.Name()).Observe(time.Since(started).Seconds())

		job.Status = run.status
		job.Progress = run.checkpoint
		if err := c.store.SaveStageResult(ctx, job); err != nil {
			return c.fail(ctx, job, run.stage.Name(), err)
		}
		if run.status == models.StatusAssetsGenerated {
			c.persistAssets(ctx, job)
		}

		c.notifier.Notify(ctx, job.ID, run.checkpoint, run.phase, run.doneMsg)
		log.Info().Str("jobId", job.ID).Str("stage", run.stage.Name()).
			Int("progress", run.checkpoint).Msg("stage complete")
	}

	job.Status = models.StatusCompleted
	job.Progress = 100
	if err := c.store.SaveStageResult(ctx, job); err != nil {
		return c.fail(ctx, job, "finalize", err)
	}
	c.persistVideo(ctx, job)

	metrics.JobsCompleted.Inc()
	c.notifier.Notify(ctx, job.ID, 100, "completed", "Video generation completed!")
	log.Info().Str("jobId", job.ID).Str("output", job.OutputReference).Msg("job completed")
	return nil
}

// resetJobState guarantees the same starting shape for every Run:
// derived fields cleared, status created, progress zero.
func (c *Coordinator) resetJobState(job *models.Job) {
	job.Status = models.StatusCreated
	job.Progress = 0
	job.Analysis = nil
	job.Script = nil
	job.VisualPlan = nil
	job.Assets = nil
	job.OutputReference = ""
	job.Error = ""
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
}

// fail records the terminal failed state and emits the final notification.
func (c *Coordinator) fail(ctx context.Context, job *models.Job, stage string, err error) error {
	stageErr := &StageError{Stage: stage, Err: err}
	job.Status = models.StatusFailed
	job.Progress = 0
	job.Error = stageErr.Error()

	if uerr := c.store.UpdateJobStatus(ctx, job.ID, models.StatusFailed, 0, job.Error); uerr != nil {
		log.Error().Err(uerr).Str("jobId", job.ID).Msg("failed to persist failed status")
	}
	metrics.JobsFailed.Inc()
	c.notifier.Notify(ctx, job.ID, 0, "failed", "Generation failed: "+stageErr.Error())
	log.Error().Err(err).Str("jobId", job.ID).Str("stage", stage).Msg("job failed")
	return stageErr
}

func (c *Coordinator) persistAssets(ctx context.Context, job *models.Job) {
	for i := range job.Assets {
		if err := c.store.StoreAsset(ctx, job.ID, &job.Assets[i]); err != nil {
			log.Error().Err(err).Str("jobId", job.ID).Str("assetId", job.Assets[i].ID).
				Msg("failed to persist asset record")
		}
	}
}

func (c *Coordinator) persistVideo(ctx context.Context, job *models.Job) {
	video := &models.VideoRecord{
		JobID:     job.ID,
		Title:     job.Script.Title,
		FileURL:   job.OutputReference,
		Duration:  job.Script.TotalDuration,
		Quality:   "1080p",
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.StoreVideo(ctx, video); err != nil {
		log.Error().Err(err).Str("jobId", job.ID).Msg("failed to persist video record")
	}
}

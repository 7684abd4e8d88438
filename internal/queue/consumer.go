package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/eduvid/videogen-worker/internal/models"
	"github.com/eduvid/videogen-worker/internal/pipeline"
)

// Consumer pulls generation jobs off the Redis queue and hands them to
// the pipeline coordinator.
type Consumer struct {
	server      *asynq.Server
	coordinator *pipeline.Coordinator
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	RedisURL    string
	Concurrency int
	Coordinator *pipeline.Coordinator
}

// NewConsumer creates a queue consumer backed by asynq.
func NewConsumer(config *ConsumerConfig) (*Consumer, error) {
	redisOpt, err := asynq.ParseRedisURI(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: config.Concurrency,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 1min, 2min, 4min
				return time.Duration(1<<uint(n)) * time.Minute
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("taskType", task.Type()).Msg("task failed")
			}),
		},
	)

	return &Consumer{
		server:      server,
		coordinator: config.Coordinator,
	}, nil
}

// Start registers the task handlers and serves until Stop.
func (c *Consumer) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskGenerateVideo, c.handleGenerateTask)

	log.Info().Msg("Starting videogen worker...")
	if err := c.server.Run(mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	return nil
}

// Stop shuts the consumer down gracefully, letting in-flight jobs finish.
func (c *Consumer) Stop() {
	log.Info().Msg("Shutting down videogen worker...")
	c.server.Shutdown()
}

// handleGenerateTask runs the full generation pipeline for one job.
// Stage failures are already persisted as the job's failed state by the
// coordinator, and rerunning the same input would fail the same way, so
// they are wrapped with SkipRetry. Failures before the first stage
// (the initial job persist) are infrastructure errors whose failed
// state may not have been recorded; those stay retryable.
func (c *Consumer) handleGenerateTask(ctx context.Context, task *asynq.Task) error {
	var payload GeneratePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal job payload: %w: %w", err, asynq.SkipRetry)
	}

	log.Info().Str("jobId", payload.JobID).Msg("processing generation job")

	job := &models.Job{
		ID:      payload.JobID,
		Content: payload.Content,
	}
	if err := c.coordinator.Run(ctx, job); err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) && stageErr.Stage == pipeline.StageInit {
			return fmt.Errorf("job %s init failed: %w", payload.JobID, err)
		}
		return fmt.Errorf("job %s failed: %w: %w", payload.JobID, err, asynq.SkipRetry)
	}

	log.Info().Str("jobId", payload.JobID).Msg("generation job completed")
	return nil
}

// HealthCheck reports whether the consumer is initialized.
func (c *Consumer) HealthCheck() error {
	if c.server == nil {
		return fmt.Errorf("server not initialized")
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/eduvid/videogen-worker/internal/docparse"
	"github.com/eduvid/videogen-worker/internal/models"
	"github.com/eduvid/videogen-worker/internal/notify"
	"github.com/eduvid/videogen-worker/internal/pipeline"
	"github.com/eduvid/videogen-worker/internal/queue"
)

// JobStatusView is the caller-facing status snapshot.
type JobStatusView struct {
	JobID    string `json:"jobId"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// Enqueuer schedules a generation job for background execution.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload queue.GeneratePayload) error
}

// Service is the job-facing API: start a generation, poll its status,
// subscribe to its progress stream.
type Service struct {
	store    pipeline.JobStore
	producer Enqueuer
	registry *notify.Registry
	parser   *docparse.Parser
}

// New creates the job service.
func New(store pipeline.JobStore, producer Enqueuer, registry *notify.Registry) *Service {
	return &Service{
		store:    store,
		producer: producer,
		registry: registry,
		parser:   docparse.NewParser(),
	}
}

// StartJob accepts raw content, assigns a job ID and enqueues the
// generation. It returns as soon as the job is queued.
func (s *Service) StartJob(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("content is empty")
	}

	jobID := uuid.New().String()
	if err := s.producer.Enqueue(ctx, queue.GeneratePayload{JobID: jobID, Content: content}); err != nil {
		return "", err
	}

	log.Info().Str("jobId", jobID).Int("contentLength", len(content)).Msg("job enqueued")
	return jobID, nil
}

// StartJobFromDocument extracts text from an uploaded document and
// starts a job with it. fileType is the extension ("pdf", "docx", "txt").
func (s *Service) StartJobFromDocument(ctx context.Context, fileBytes []byte, fileType string) (string, error) {
	content, err := s.parser.ExtractText(fileBytes, fileType)
	if err != nil {
		return "", err
	}
	return s.StartJob(ctx, content)
}

// GetJobStatus returns the persisted status snapshot for a job.
func (s *Service) GetJobStatus(ctx context.Context, jobID string) (*JobStatusView, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &JobStatusView{
		JobID:    job.ID,
		Status:   string(job.Status),
		Progress: job.Progress,
		Error:    job.Error,
	}, nil
}

// GetJob returns the full persisted job, including stage results.
func (s *Service) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	return s.store.GetJob(ctx, jobID)
}

// Subscribe registers a progress subscriber for a job. A later
// subscriber for the same job replaces the earlier one.
func (s *Service) Subscribe(jobID string, sub notify.Subscriber) {
	s.registry.Register(jobID, sub)
}

// Unsubscribe removes the job's progress subscriber, if any.
func (s *Service) Unsubscribe(jobID string) {
	s.registry.Unregister(jobID)
}

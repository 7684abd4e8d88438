package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types and queue names shared by producer and consumer.
const (
	TaskGenerateVideo = "videogen:generate"

	QueueCritical = "videogen:critical"
	QueueDefault  = "videogen:default"
	QueueLow      = "videogen:low"
)

// GeneratePayload is the wire form of a queued generation job.
type GeneratePayload struct {
	JobID   string `json:"jobId"`
	Content string `json:"content"`
}

// Producer enqueues generation jobs.
type Producer struct {
	client *asynq.Client
}

// NewProducer creates a queue producer backed by asynq.
func NewProducer(redisURL string) (*Producer, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &Producer{client: asynq.NewClient(redisOpt)}, nil
}

// Enqueue schedules a generation job on the default queue.
func (p *Producer) Enqueue(ctx context.Context, payload GeneratePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	task := asynq.NewTask(TaskGenerateVideo, data)
	if _, err := p.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(2)); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (p *Producer) Close() error {
	return p.client.Close()
}

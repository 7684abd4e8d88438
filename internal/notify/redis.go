package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/eduvid/videogen-worker/internal/models"
)

// RedisPublisher mirrors progress updates onto a per-job Redis channel
// for whatever gateway serves the live connection to the client.
type RedisPublisher struct {
	client        *redis.Client
	channelPrefix string
}

// NewRedisPublisher wraps an existing Redis client.
func NewRedisPublisher(client *redis.Client, channelPrefix string) *RedisPublisher {
	if channelPrefix == "" {
		channelPrefix = "videogen:progress"
	}
	return &RedisPublisher{client: client, channelPrefix: channelPrefix}
}

// Publish sends one update to the job's channel.
func (p *RedisPublisher) Publish(ctx context.Context, update models.ProgressUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	channel := fmt.Sprintf("%s:%s", p.channelPrefix, update.JobID)
	return p.client.Publish(ctx, channel, payload).Err()
}

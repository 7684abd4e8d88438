package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eduvid/videogen-worker/internal/models"
)

// Subscriber receives progress updates for one job. Send returning an
// error means the subscriber is gone and will be dropped.
type Subscriber interface {
	Send(update models.ProgressUpdate) error
}

// Registry tracks at most one live subscriber per job id. Registering a
// subscriber for an id replaces the prior one (last writer wins, for
// reconnecting clients). Updates are also mirrored to an optional
// publisher sink such as the Redis channel the gateway listens on.
type Registry struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	publisher   *RedisPublisher // may be nil
}

// NewRegistry creates an empty registry. publisher may be nil when no
// external transport is configured.
func NewRegistry(publisher *RedisPublisher) *Registry {
	return &Registry{
		subscribers: make(map[string]Subscriber),
		publisher:   publisher,
	}
}

// Register installs the subscriber for jobID, replacing any prior one.
func (r *Registry) Register(jobID string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[jobID] = sub
}

// Unregister removes the subscriber for jobID, if any.
func (r *Registry) Unregister(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscribers, jobID)
}

// Subscribed reports whether a subscriber is registered for jobID.
func (r *Registry) Subscribed(jobID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subscribers[jobID]
	return ok
}

// Notify delivers one progress update. Fire-and-forget: a delivery
// failure removes the subscriber but never affects pipeline execution.
// There is no buffering; late subscribers miss earlier updates. The
// subscription ends with the job: after a completed or failed update
// is delivered, the subscriber is unregistered.
func (r *Registry) Notify(ctx context.Context, jobID string, progress int, phase, message string) {
	update := models.ProgressUpdate{
		JobID:     jobID,
		Progress:  progress,
		Status:    phase,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	r.mu.RLock()
	sub, ok := r.subscribers[jobID]
	r.mu.RUnlock()

	if ok {
		if err := sub.Send(update); err != nil {
			log.Warn().Err(err).Str("jobId", jobID).Msg("subscriber gone, removing")
			r.Unregister(jobID)
		} else if phase == "completed" || phase == "failed" {
			r.Unregister(jobID)
		}
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, update); err != nil {
			log.Error().Err(err).Str("jobId", jobID).Msg("failed to publish progress update")
		}
	}
}

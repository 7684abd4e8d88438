package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/eduvid/videogen-worker/internal/models"
)

type recordingSubscriber struct {
	updates []models.ProgressUpdate
	err     error
}

func (s *recordingSubscriber) Send(update models.ProgressUpdate) error {
	if s.err != nil {
		return s.err
	}
	s.updates = append(s.updates, update)
	return nil
}

// TestRegistryDeliversToSubscriber verifies updates reach the
// registered subscriber for the job only.
func TestRegistryDeliversToSubscriber(t *testing.T) {
	r := NewRegistry(nil)
	sub := &recordingSubscriber{}
	other := &recordingSubscriber{}
	r.Register("job-1", sub)
	r.Register("job-2", other)

	r.Notify(context.Background(), "job-1", 20, "analyzing", "Content analysis complete")

	if len(sub.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(sub.updates))
	}
	got := sub.updates[0]
	if got.JobID != "job-1" || got.Progress != 20 || got.Status != "analyzing" {
		t.Fatalf("update = %+v", got)
	}
	if len(other.updates) != 0 {
		t.Fatalf("other job received %d updates, want 0", len(other.updates))
	}
}

// TestRegistryLastWriterWins verifies re-registering replaces the
// prior subscriber.
func TestRegistryLastWriterWins(t *testing.T) {
	r := NewRegistry(nil)
	first := &recordingSubscriber{}
	second := &recordingSubscriber{}
	r.Register("job-1", first)
	r.Register("job-1", second)

	r.Notify(context.Background(), "job-1", 40, "generating_script", "Script generated")

	if len(first.updates) != 0 {
		t.Fatalf("replaced subscriber received %d updates, want 0", len(first.updates))
	}
	if len(second.updates) != 1 {
		t.Fatalf("current subscriber received %d updates, want 1", len(second.updates))
	}
}

// TestRegistryRemovesDeadSubscriber verifies a failed Send drops the
// subscriber without affecting the caller.
func TestRegistryRemovesDeadSubscriber(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("job-1", &recordingSubscriber{err: errors.New("connection closed")})

	r.Notify(context.Background(), "job-1", 50, "planning_visuals", "Visual plan created")

	if r.Subscribed("job-1") {
		t.Fatal("dead subscriber should have been removed")
	}
}

// TestRegistryNoSubscriberIsNoop verifies notifying an unsubscribed
// job does nothing.
func TestRegistryNoSubscriberIsNoop(t *testing.T) {
	r := NewRegistry(nil)
	r.Notify(context.Background(), "job-unknown", 75, "generating_assets", "Assets generated")

	if r.Subscribed("job-unknown") {
		t.Fatal("no subscriber should exist")
	}
}

// TestRegistryTerminalUpdateEndsSubscription verifies the subscriber
// is removed after a completed or failed update is delivered.
func TestRegistryTerminalUpdateEndsSubscription(t *testing.T) {
	r := NewRegistry(nil)
	sub := &recordingSubscriber{}
	r.Register("job-1", sub)

	r.Notify(context.Background(), "job-1", 100, "completed", "Video generation completed!")

	if len(sub.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(sub.updates))
	}
	if r.Subscribed("job-1") {
		t.Fatal("subscriber should be removed after terminal update")
	}
}

// TestRegistryUnregister verifies explicit removal.
func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry(nil)
	sub := &recordingSubscriber{}
	r.Register("job-1", sub)
	r.Unregister("job-1")

	r.Notify(context.Background(), "job-1", 95, "composing_video", "Video uploaded")

	if len(sub.updates) != 0 {
		t.Fatalf("unregistered subscriber received %d updates, want 0", len(sub.updates))
	}
}

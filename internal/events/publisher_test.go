package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(TopicUserCreated, map[string]uint{"user_id": 7})

	if event.ID == "" {
		t.Error("expected generated event id")
	}
	if event.Type != TopicUserCreated {
		t.Errorf("expected type %q, got %q", TopicUserCreated, event.Type)
	}
	if event.Source != "institute-service" {
		t.Errorf("unexpected source %q", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("unexpected version %q", event.Version)
	}
	if event.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
}

func TestMockEventPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := NewMockEventPublisher(discardLogger())

	if err := publisher.Publish(ctx, NewEvent(TopicCourseCreated, nil)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := publisher.Publish(ctx, NewEvent(TopicCoursePrereqsChanged, nil)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 2 {
		t.Fatalf("expected 2 events, got %d", len(published))
	}
	if published[0].Type != TopicCourseCreated || published[1].Type != TopicCoursePrereqsChanged {
		t.Errorf("events out of order: %v, %v", published[0].Type, published[1].Type)
	}

	// The snapshot must be detached from the publisher's slice.
	published[0] = nil
	if publisher.GetPublishedEvents()[0] == nil {
		t.Error("snapshot aliases internal state")
	}

	publisher.ClearEvents()
	if n := len(publisher.GetPublishedEvents()); n != 0 {
		t.Errorf("expected no events after clear, got %d", n)
	}
}

func TestKafkaEventPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Skip("requires a Kafka broker; covered by deployment smoke tests")
}

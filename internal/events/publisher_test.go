package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestGoChannelPublisher_RoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub, pubsub := NewGoChannelPublisher(logger)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	messages, err := pubsub.Subscribe(ctx, TopicAssessmentPublished)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	event := &AssessmentPublishedEvent{
		AssessmentID:  7,
		Title:         "Midterm",
		ShareURL:      "https://tests.example.edu/a/abc123",
		QuestionCount: 3,
		Recipients:    []string{"S1", "S2"},
		PublishedBy:   "t-1",
		PublishedAt:   time.Now(),
	}
	if err := pub.PublishAssessmentPublished(ctx, event); err != nil {
		t.Fatalf("PublishAssessmentPublished: %v", err)
	}

	select {
	case msg := <-messages:
		var got AssessmentPublishedEvent
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		msg.Ack()

		if got.AssessmentID != 7 || got.ShareURL != event.ShareURL {
			t.Errorf("got %+v, want assessment 7 with share url %s", got, event.ShareURL)
		}
		if len(got.Recipients) != 2 {
			t.Errorf("got %d recipients, want 2", len(got.Recipients))
		}
		if msg.Metadata.Get("assessment_id") != "7" {
			t.Errorf("metadata assessment_id = %q, want 7", msg.Metadata.Get("assessment_id"))
		}
	case <-ctx.Done():
		t.Fatal("no event received before timeout")
	}
}

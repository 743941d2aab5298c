package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	TopicAssessmentPublished = "assessment.published"
)

// AssessmentPublishedEvent is emitted exactly once per successful publish.
// Downstream consumers fan it out as emails / share links to the recipients.
type AssessmentPublishedEvent struct {
	AssessmentID  uint      `json:"assessment_id"`
	Title         string    `json:"title"`
	ShareURL      string    `json:"share_url"`
	QuestionCount int       `json:"question_count"`
	Recipients    []string  `json:"recipients"`
	PublishedBy   string    `json:"published_by"`
	PublishedAt   time.Time `json:"published_at"`
}

// Publisher is the notification boundary of the authoring service.
type Publisher interface {
	PublishAssessmentPublished(ctx context.Context, event *AssessmentPublishedEvent) error
	Close() error
}

type eventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewKafkaPublisher builds the production publisher.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (Publisher, error) {
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &eventPublisher{publisher: pub, logger: logger}, nil
}

// NewGoChannelPublisher builds an in-process publisher. Used in tests and
// when no broker is configured; the returned pubsub can be subscribed to.
func NewGoChannelPublisher(logger *slog.Logger) (Publisher, *gochannel.GoChannel) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
	return &eventPublisher{publisher: pubsub, logger: logger}, pubsub
}

func (p *eventPublisher) PublishAssessmentPublished(ctx context.Context, event *AssessmentPublishedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal publish event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("assessment_id", fmt.Sprintf("%d", event.AssessmentID))

	if err := p.publisher.Publish(TopicAssessmentPublished, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("published assessment event",
		"assessment_id", event.AssessmentID,
		"recipients", len(event.Recipients))
	return nil
}

func (p *eventPublisher) Close() error {
	return p.publisher.Close()
}

package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wisersense-io/mate-session/internal/domain"
	pkgkafka "github.com/wisersense-io/mate-session/pkg/kafka"
)

// Kafka topic constants for session lifecycle events.
const (
	TopicSessionStarted = "mate.session.started"
	TopicSessionEnded   = "mate.session.ended"
)

// Aggregate type constant.
const AggregateTypeSession = "session"

// Source identifier for events originating from the session service.
const SourceSessionService = "session-service"

// SessionStartedData is the payload for a session.started event.
type SessionStartedData struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	OrganizationID string `json:"organization_id,omitempty"`
	TenantID       string `json:"tenant_id,omitempty"`
}

// SessionEndedData is the payload for a session.ended event.
type SessionEndedData struct {
	UserID string `json:"user_id"`
}

// Producer publishes session lifecycle events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the session service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishSessionStarted publishes a session.started event.
func (p *Producer) PublishSessionStarted(ctx context.Context, user *domain.User, organizationID string) error {
	data := SessionStartedData{
		UserID:         user.ID,
		Email:          user.Email,
		OrganizationID: organizationID,
		TenantID:       user.TenantID,
	}

	evt, err := pkgkafka.NewEvent("session.started", user.ID, AggregateTypeSession, SourceSessionService, data)
	if err != nil {
		return fmt.Errorf("create session.started event: %w", err)
	}

	return p.kafka.Publish(ctx, TopicSessionStarted, evt)
}

// PublishSessionEnded publishes a session.ended event.
func (p *Producer) PublishSessionEnded(ctx context.Context, userID string) error {
	evt, err := pkgkafka.NewEvent("session.ended", userID, AggregateTypeSession, SourceSessionService, SessionEndedData{UserID: userID})
	if err != nil {
		return fmt.Errorf("create session.ended event: %w", err)
	}

	return p.kafka.Publish(ctx, TopicSessionEnded, evt)
}

// Package event publishes auth domain events to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	pkgkafka "github.com/Joseph-VJ/houlnd-realty/pkg/kafka"
	"github.com/Joseph-VJ/houlnd-realty/pkg/logger"
)

// Kafka topics for auth domain events.
var (
	TopicUserRegistered             = pkgkafka.Topic("auth", "user_registered")
	TopicEmailVerificationRequested = pkgkafka.Topic("auth", "email_verification_requested")
	TopicPasswordResetRequested     = pkgkafka.Topic("auth", "password_reset_requested")
	TopicAccountLocked              = pkgkafka.Topic("auth", "account_locked")
	TopicPasswordChanged            = pkgkafka.Topic("auth", "password_changed")
)

// AggregateTypeUser is the aggregate every auth event belongs to.
const AggregateTypeUser = "user"

// SourceAuthService identifies events originating from this service.
const SourceAuthService = "auth-service"

// UserRegisteredData is the payload for auth.user_registered.
type UserRegisteredData struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// TokenIssuedData is the payload for the verification and reset events. It
// carries the raw token so the notification service can build the link.
type TokenIssuedData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountLockedData is the payload for auth.account_locked.
type AccountLockedData struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	LockedUntil time.Time `json:"locked_until"`
}

// PasswordChangedData is the payload for auth.password_changed.
type PasswordChangedData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// Publisher is the subset of pkg/kafka.Producer the auth events need.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes auth domain events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the auth service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishUserRegistered publishes auth.user_registered.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, u.ID, UserRegisteredData{
		UserID:   u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role.String(),
	})
}

// PublishEmailVerificationRequested publishes auth.email_verification_requested.
func (p *Producer) PublishEmailVerificationRequested(ctx context.Context, u *domain.User, rawToken string, expiresAt time.Time) error {
	return p.publish(ctx, TopicEmailVerificationRequested, u.ID, TokenIssuedData{
		UserID:    u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Token:     rawToken,
		ExpiresAt: expiresAt.UTC(),
	})
}

// PublishPasswordResetRequested publishes auth.password_reset_requested.
func (p *Producer) PublishPasswordResetRequested(ctx context.Context, u *domain.User, rawToken string, expiresAt time.Time) error {
	return p.publish(ctx, TopicPasswordResetRequested, u.ID, TokenIssuedData{
		UserID:    u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Token:     rawToken,
		ExpiresAt: expiresAt.UTC(),
	})
}

// PublishAccountLocked publishes auth.account_locked.
func (p *Producer) PublishAccountLocked(ctx context.Context, u *domain.User, until time.Time) error {
	return p.publish(ctx, TopicAccountLocked, u.ID, AccountLockedData{
		UserID:      u.ID,
		Email:       u.Email,
		LockedUntil: until.UTC(),
	})
}

// PublishPasswordChanged publishes auth.password_changed.
func (p *Producer) PublishPasswordChanged(ctx context.Context, u *domain.User, reason domain.RevokeReason) error {
	return p.publish(ctx, TopicPasswordChanged, u.ID, PasswordChangedData{
		UserID: u.ID,
		Email:  u.Email,
		Reason: string(reason),
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.InfoContext(ctx, "published auth event",
		slog.String("topic", topic),
		slog.String("user_id", aggregateID),
	)
	return nil
}

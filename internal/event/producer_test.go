package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	pkgkafka "github.com/Joseph-VJ/houlnd-realty/pkg/kafka"
	"github.com/Joseph-VJ/houlnd-realty/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, event: e})
	return nil
}

func newTestProducer() (*Producer, *fakePublisher) {
	fp := &fakePublisher{}
	return NewProducer(fp, slog.New(slog.NewTextHandler(io.Discard, nil))), fp
}

func testUser() *domain.User {
	return &domain.User{ID: "u-1", Email: "asha@example.com", FullName: "Asha Rao", Role: domain.RolePromoter}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "houlnd.auth.user_registered", TopicUserRegistered)
	assert.Equal(t, "houlnd.auth.password_reset_requested", TopicPasswordResetRequested)
}

func TestPublishUserRegistered(t *testing.T) {
	p, fp := newTestProducer()
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	require.NoError(t, p.PublishUserRegistered(ctx, testUser()))
	require.Len(t, fp.sent, 1)

	msg := fp.sent[0]
	assert.Equal(t, TopicUserRegistered, msg.topic)
	assert.Equal(t, "u-1", msg.event.AggregateID)
	assert.Equal(t, AggregateTypeUser, msg.event.AggregateType)
	assert.Equal(t, SourceAuthService, msg.event.Source)
	assert.Equal(t, "corr-1", msg.event.CorrelationID)

	var data UserRegisteredData
	require.NoError(t, msg.event.UnmarshalData(&data))
	assert.Equal(t, "PROMOTER", data.Role)
	assert.Equal(t, "Asha Rao", data.FullName)
}

func TestPublishPasswordResetRequested_CarriesToken(t *testing.T) {
	p, fp := newTestProducer()
	exp := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, p.PublishPasswordResetRequested(context.Background(), testUser(), "raw-token", exp))

	var data TokenIssuedData
	require.NoError(t, fp.sent[0].event.UnmarshalData(&data))
	assert.Equal(t, "raw-token", data.Token)
	assert.True(t, exp.Equal(data.ExpiresAt))
}

func TestPublishAccountLocked(t *testing.T) {
	p, fp := newTestProducer()
	until := time.Now().Add(15 * time.Minute)

	require.NoError(t, p.PublishAccountLocked(context.Background(), testUser(), until))
	assert.Equal(t, TopicAccountLocked, fp.sent[0].topic)
}

func TestPublish_Error(t *testing.T) {
	p, fp := newTestProducer()
	fp.err = errors.New("broker down")

	err := p.PublishPasswordChanged(context.Background(), testUser(), domain.RevokePasswordChange)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "houlnd.auth.password_changed")
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/pkg/database"
	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
)

const sessionPrefix = "session:"

// SessionStore implements repository.SessionStore using Redis.
type SessionStore struct {
	client redis.UniversalClient
	tracer *database.QueryTracer
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client redis.UniversalClient, tracer *database.QueryTracer) *SessionStore {
	return &SessionStore{client: client, tracer: tracer}
}

// Save stores the session as JSON for ttl.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session, ttl time.Duration) (err error) {
	ctx, end := s.tracer.Trace(ctx, "SessionSave", "SET session")
	defer func() { end(err) }()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err = s.client.Set(ctx, sessionPrefix+session.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Get loads a session by id.
func (s *SessionStore) Get(ctx context.Context, id string) (_ *domain.Session, err error) {
	ctx, end := s.tracer.Trace(ctx, "SessionGet", "GET session")
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	data, err := s.client.Get(ctx, sessionPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("session", id)
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session domain.Session
	if err = json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) (err error) {
	ctx, end := s.tracer.Trace(ctx, "SessionDelete", "DEL session")
	defer func() { end(err) }()

	if err = s.client.Del(ctx, sessionPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

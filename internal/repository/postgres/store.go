// Package postgres implements the persisted repositories on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Joseph-VJ/houlnd-realty/internal/repository"
	"github.com/Joseph-VJ/houlnd-realty/pkg/database"
)

// Store binds every repository to a pool and opens transactions on it.
type Store struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewStore creates a PostgreSQL store. tracer may be nil.
func NewStore(db database.DBTX, tracer *database.QueryTracer) *Store {
	return &Store{db: db, tracer: tracer}
}

// Repositories returns repositories running directly on the pool.
func (s *Store) Repositories() repository.Repositories {
	return newRepositories(s.db, s.tracer)
}

// WithinTx implements repository.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(ctx, newRepositories(tx, s.tracer))
	})
}

func newRepositories(db database.DBTX, tracer *database.QueryTracer) repository.Repositories {
	return repository.Repositories{
		Users:         NewUserRepository(db, tracer),
		RefreshTokens: NewRefreshTokenRepository(db, tracer),
		ResetTokens:   NewPasswordResetRepository(db, tracer),
		Verifications: NewVerificationTokenRepository(db, tracer),
		Audit:         NewAuditRepository(db, tracer),
	}
}

// nullString maps "" to SQL NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

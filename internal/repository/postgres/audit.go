package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/pkg/database"
)

// AuditRepository implements repository.AuditRepository using PostgreSQL.
type AuditRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewAuditRepository creates a new PostgreSQL-backed audit repository.
func NewAuditRepository(db database.DBTX, tracer *database.QueryTracer) *AuditRepository {
	return &AuditRepository{db: db, tracer: tracer}
}

// Insert appends one row to login_audit_logs.
func (r *AuditRepository) Insert(ctx context.Context, a *domain.LoginAudit) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO login_audit_logs (id, user_id, email_attempted, ip_address, user_agent,
		    device_fingerprint, status, failure_reason, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := r.tracer.Trace(ctx, "InsertLoginAudit", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		a.ID,
		nullString(a.UserID),
		nullString(a.EmailAttempted),
		nullString(a.IPAddress),
		nullString(a.UserAgent),
		nullString(a.DeviceFingerprint),
		string(a.Status),
		nullString(a.FailureReason),
		nullString(a.SessionID),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert login audit: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/internal/repository"
	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
)

// --- Clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// --- In-memory stores ---

// memStore keeps every persisted table behind one mutex so the conditional
// updates behave like single-statement SQL.
type memStore struct {
	mu            sync.Mutex
	clock         *fakeClock
	users         map[string]*domain.User
	refresh       map[string]*domain.RefreshToken
	resets        map[string]*domain.PasswordResetToken
	verifications map[string]*domain.EmailVerificationToken
	audits        []domain.LoginAudit
}

func newMemStore(clock *fakeClock) *memStore {
	return &memStore{
		clock:         clock,
		users:         make(map[string]*domain.User),
		refresh:       make(map[string]*domain.RefreshToken),
		resets:        make(map[string]*domain.PasswordResetToken),
		verifications: make(map[string]*domain.EmailVerificationToken),
	}
}

func (m *memStore) repositories() repository.Repositories {
	return repository.Repositories{
		Users:         memUsers{m},
		RefreshTokens: memRefresh{m},
		ResetTokens:   memResets{m},
		Verifications: memVerifications{m},
		Audit:         memAudit{m},
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return fn(ctx, m.repositories())
}

func (m *memStore) auditRows() []domain.LoginAudit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LoginAudit(nil), m.audits...)
}

func (m *memStore) user(id string) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

func (m *memStore) activeRefreshCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.refresh {
		if t.UserID == userID && t.IsActive(m.clock.Now()) {
			n++
		}
	}
	return n
}

type memUsers struct{ m *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return apperrors.Conflict("EMAIL_EXISTS", "Email already registered")
		}
		if u.Phone != "" && existing.Phone == u.Phone {
			return apperrors.Conflict("PHONE_EXISTS", "Phone number already registered")
		}
	}
	cp := *u
	r.m.users[u.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok || u.IsDeleted() {
		return nil, apperrors.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == strings.ToLower(email) && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

func (r memUsers) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Phone == phone && !u.IsDeleted() {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) update(id string, fn func(u *domain.User)) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return apperrors.NotFound("user", id)
	}
	fn(u)
	return nil
}

func (r memUsers) RecordFailedLogin(_ context.Context, id string, now time.Time, p domain.LockoutPolicy) (domain.LockState, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok || u.IsDeleted() {
		return domain.LockState{}, false, apperrors.NotFound("user", id)
	}
	if u.Lock.IsLocked(now) {
		return u.Lock, false, nil
	}
	u.Lock = u.Lock.RecordFailure(now, p)
	return u.Lock, true, nil
}

func (r memUsers) RecordLogin(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(u *domain.User) {
		u.Lock = domain.Active(0)
		u.LoginCount++
		u.LastLoginAt = &at
	})
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	return r.update(id, func(u *domain.User) {
		u.PasswordHash = hash
		u.Lock = domain.Active(0)
	})
}

func (r memUsers) MarkEmailVerified(_ context.Context, id string) error {
	return r.update(id, func(u *domain.User) { u.EmailVerified = true })
}

type memRefresh struct{ m *memStore }

func (r memRefresh) Create(_ context.Context, t *domain.RefreshToken) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	r.m.refresh[t.ID] = &cp
	return nil
}

func (r memRefresh) GetActiveByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.refresh {
		if t.TokenHash == hash && t.IsActive(r.m.clock.Now()) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("refresh_token", "<hash>")
}

func (r memRefresh) revoke(t *domain.RefreshToken, reason domain.RevokeReason) {
	now := r.m.clock.Now()
	t.RevokedAt = &now
	t.RevokedReason = reason
}

func (r memRefresh) Revoke(_ context.Context, id string, reason domain.RevokeReason) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.refresh[id]
	if !ok || t.RevokedAt != nil {
		return apperrors.NotFound("refresh_token", id)
	}
	r.revoke(t, reason)
	return nil
}

func (r memRefresh) RevokeForUser(_ context.Context, userID, hash string, reason domain.RevokeReason) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.refresh {
		if t.UserID == userID && t.TokenHash == hash && t.RevokedAt == nil {
			r.revoke(t, reason)
			return true, nil
		}
	}
	return false, nil
}

func (r memRefresh) RevokeAllForUser(_ context.Context, userID string, reason domain.RevokeReason, except string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, t := range r.m.refresh {
		if t.UserID == userID && t.RevokedAt == nil && (except == "" || t.SessionID != except) {
			r.revoke(t, reason)
			n++
		}
	}
	return n, nil
}

type memResets struct{ m *memStore }

func (r memResets) Create(_ context.Context, t *domain.PasswordResetToken) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	r.m.resets[t.ID] = &cp
	return nil
}

func (r memResets) InvalidateForUser(_ context.Context, userID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := r.m.clock.Now()
	var n int64
	for _, t := range r.m.resets {
		if t.UserID == userID && t.UsedAt == nil {
			t.UsedAt = &now
			n++
		}
	}
	return n, nil
}

func (r memResets) GetActiveByHash(_ context.Context, hash string) (*domain.PasswordResetToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.resets {
		if t.TokenHash == hash && t.IsActive(r.m.clock.Now()) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("password_reset_token", "<hash>")
}

func (r memResets) MarkUsed(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.resets[id]
	if !ok || t.UsedAt != nil {
		return apperrors.NotFound("password_reset_token", id)
	}
	now := r.m.clock.Now()
	t.UsedAt = &now
	return nil
}

type memVerifications struct{ m *memStore }

func (r memVerifications) Create(_ context.Context, t *domain.EmailVerificationToken) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	r.m.verifications[t.ID] = &cp
	return nil
}

func (r memVerifications) Consume(_ context.Context, hash string) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := r.m.clock.Now()
	for _, t := range r.m.verifications {
		if t.TokenHash == hash && t.VerifiedAt == nil && now.Before(t.ExpiresAt) {
			t.VerifiedAt = &now
			return t.UserID, nil
		}
	}
	return "", apperrors.NotFound("email_verification_token", "<hash>")
}

type memAudit struct{ m *memStore }

func (r memAudit) Insert(_ context.Context, a *domain.LoginAudit) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.audits = append(r.m.audits, *a)
	return nil
}

// --- Ephemeral stores ---

type memBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Duration
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{entries: make(map[string]time.Duration)}
}

func (b *memBlacklist) Add(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	b.entries[jti] = ttl
	b.mu.Unlock()
	return nil
}

func (b *memBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[jti]
	return ok, nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]domain.Session)}
}

func (s *memSessions) Save(_ context.Context, session *domain.Session, _ time.Duration) error {
	s.mu.Lock()
	s.sessions[session.ID] = *session
	s.mu.Unlock()
	return nil
}

func (s *memSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.NotFound("session", id)
	}
	return &session, nil
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// --- Events ---

type recordedEvent struct {
	name   string
	userID string
	token  string
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *recordingEvents) add(name, userID, tok string) error {
	e.mu.Lock()
	e.events = append(e.events, recordedEvent{name: name, userID: userID, token: tok})
	e.mu.Unlock()
	return nil
}

func (e *recordingEvents) PublishUserRegistered(_ context.Context, u *domain.User) error {
	return e.add("user_registered", u.ID, "")
}

func (e *recordingEvents) PublishEmailVerificationRequested(_ context.Context, u *domain.User, raw string, _ time.Time) error {
	return e.add("email_verification_requested", u.ID, raw)
}

func (e *recordingEvents) PublishPasswordResetRequested(_ context.Context, u *domain.User, raw string, _ time.Time) error {
	return e.add("password_reset_requested", u.ID, raw)
}

func (e *recordingEvents) PublishAccountLocked(_ context.Context, u *domain.User, _ time.Time) error {
	return e.add("account_locked", u.ID, "")
}

func (e *recordingEvents) PublishPasswordChanged(_ context.Context, u *domain.User, reason domain.RevokeReason) error {
	return e.add("password_changed", u.ID, string(reason))
}

// lastToken returns the raw token of the most recent event with name.
func (e *recordingEvents) lastToken(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.events) - 1; i >= 0; i-- {
		if e.events[i].name == name {
			return e.events[i].token
		}
	}
	return ""
}

func (e *recordingEvents) count(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.name == name {
			n++
		}
	}
	return n
}

// --- testify mocks ---

type mockAuditRepository struct {
	mock.Mock
}

func (m *mockAuditRepository) Insert(ctx context.Context, entry *domain.LoginAudit) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockEventPublisher) PublishEmailVerificationRequested(ctx context.Context, u *domain.User, raw string, exp time.Time) error {
	return m.Called(ctx, u, raw, exp).Error(0)
}

func (m *mockEventPublisher) PublishPasswordResetRequested(ctx context.Context, u *domain.User, raw string, exp time.Time) error {
	return m.Called(ctx, u, raw, exp).Error(0)
}

func (m *mockEventPublisher) PublishAccountLocked(ctx context.Context, u *domain.User, until time.Time) error {
	return m.Called(ctx, u, until).Error(0)
}

func (m *mockEventPublisher) PublishPasswordChanged(ctx context.Context, u *domain.User, reason domain.RevokeReason) error {
	return m.Called(ctx, u, reason).Error(0)
}

type mockUserRepository struct {
	mock.Mock
	repository.UserRepository
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

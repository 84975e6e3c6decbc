package password

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================================
// Policy Tests
// ============================================================================

func TestValidate_AcceptsStrongPassword(t *testing.T) {
	r := DefaultPolicy().Validate("Str0ng!Pass")
	assert.True(t, r.Valid)
	assert.Empty(t, r.Errors)
}

func TestValidate_Empty(t *testing.T) {
	r := DefaultPolicy().Validate("")
	assert.False(t, r.Valid)
	assert.Equal(t, []string{"Password is required"}, r.Errors)
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	r := DefaultPolicy().Validate("aaaa")
	assert.False(t, r.Valid)
	assert.Equal(t, []string{
		"Password must be at least 8 characters",
		"Password must contain at least one uppercase letter",
		"Password must contain at least one number",
		"Password must contain at least one special character (" + SpecialChars + ")",
		"Password cannot be all the same character",
	}, r.Errors)
	assert.Contains(t, r.Error(), "at least 8 characters, ")
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name    string
		pw      string
		wantErr string
	}{
		{"too long", "Aa1!" + strings.Repeat("x", 125), "at most 128"},
		{"no upper", "str0ng!pass", "uppercase"},
		{"no lower", "STR0NG!PASS", "lowercase"},
		{"no digit", "Strong!Pass", "number"},
		{"no special", "Str0ngPass", "special character"},
		{"common prefix", "Password1!", "too common"},
		{"common prefix case-insensitive", "QWERTY1!aB", "too common"},
		{"numeric prefix", "123Abcde!", "too common"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultPolicy().Validate(tt.pw)
			assert.False(t, r.Valid)
			assert.Contains(t, r.Error(), tt.wantErr)
		})
	}
}

func TestValidate_LengthCountsRunes(t *testing.T) {
	// 8 runes, more than 8 bytes.
	r := DefaultPolicy().Validate("Ünï1!abX")
	assert.True(t, r.Valid, r.Errors)
}

func TestRequirements(t *testing.T) {
	req := DefaultPolicy().Requirements()
	assert.Equal(t, 8, req.MinLength)
	assert.Equal(t, 128, req.MaxLength)
	assert.True(t, req.RequireSpecial)
	assert.Equal(t, SpecialChars, req.SpecialChars)
}

// ============================================================================
// Hasher Tests
// ============================================================================

func newTestHasher() *Hasher {
	return NewHasher(bcrypt.MinCost, 2)
}

func TestHasher_RoundTrip(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	for _, pw := range []string{"Str0ng!Pass", "An0ther#One", strings.Repeat("Ab1!", 30)} {
		hash, err := h.Hash(ctx, pw)
		require.NoError(t, err)

		ok, err := h.Verify(ctx, pw, hash)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = h.Verify(ctx, pw+"x", hash)
		require.NoError(t, err)
		if len(pw) < maxBcryptBytes {
			assert.False(t, ok)
		}
	}
}

func TestHasher_SaltsEveryHash(t *testing.T) {
	h := newTestHasher()
	a, err := h.Hash(context.Background(), "Str0ng!Pass")
	require.NoError(t, err)
	b, err := h.Hash(context.Background(), "Str0ng!Pass")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_MalformedHash(t *testing.T) {
	ok, err := newTestHasher().Verify(context.Background(), "Str0ng!Pass", "not-a-hash")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestHasher_CostFallback(t *testing.T) {
	assert.Equal(t, DefaultCost, NewHasher(0, 1).Cost())
	assert.Equal(t, DefaultCost, NewHasher(99, 1).Cost())
	assert.Equal(t, 10, NewHasher(10, 1).Cost())
}

func TestHasher_WaitsForSlotWithContext(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Hash(ctx, "Str0ng!Pass")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ok, err := h.Verify(ctx, "Str0ng!Pass", "$2a$04$abc")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ============================================================================
// GenerateTemporary Tests
// ============================================================================

func TestGenerateTemporary_AlwaysValid(t *testing.T) {
	p := DefaultPolicy()
	for i := 0; i < 200; i++ {
		pw, err := GenerateTemporary(12)
		require.NoError(t, err)
		assert.Len(t, pw, 12)
		assert.True(t, p.Validate(pw).Valid, "%q: %v", pw, p.Validate(pw).Errors)
	}
}

func TestGenerateTemporary_Length(t *testing.T) {
	pw, err := GenerateTemporary(0)
	require.NoError(t, err)
	assert.Len(t, pw, DefaultTemporaryLength)

	pw, err = GenerateTemporary(4)
	require.NoError(t, err)
	assert.Len(t, pw, 8)

	pw, err = GenerateTemporary(40)
	require.NoError(t, err)
	assert.Len(t, pw, 40)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/internal/repository"
	"github.com/Joseph-VJ/houlnd-realty/internal/token"
	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
)

// ChangePasswordInput holds the parameters for an authenticated password
// change. SessionID is the caller's session, which stays signed in.
type ChangePasswordInput struct {
	UserID          string
	SessionID       string
	CurrentPassword string
	NewPassword     string
}

// RequestPasswordReset issues a single-use reset token. Unknown emails get
// the same nil result so account existence is not revealed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string, meta domain.ClientMeta) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.BadRequest("MISSING_EMAIL", "Email is required")
	}

	sctx, cancel := s.storeCtx(ctx)
	user, err := s.repos.Users.GetByEmail(sctx, email)
	cancel()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("get user for password reset: %w", err)
	}

	raw, err := token.GenerateOpaqueToken(0)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	now := s.now()
	reset := &domain.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: token.HashToken(raw),
		ExpiresAt: now.Add(s.cfg.ResetTokenTTL),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
	}

	err = s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.ResetTokens.InvalidateForUser(ctx, user.ID); err != nil {
			return err
		}
		return repos.ResetTokens.Create(ctx, reset)
	})
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.publish(ctx, "password_reset_requested", func(ctx context.Context) error {
		return s.events.PublishPasswordResetRequested(ctx, user, raw, reset.ExpiresAt)
	})

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
	)
	return nil
}

// ResetPassword consumes a reset token, stores the new password, clears the
// lock state and revokes every refresh token of the user.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" || newPassword == "" {
		return apperrors.BadRequest("MISSING_FIELDS", "Token and new password are required")
	}
	if res := s.policy.Validate(newPassword); !res.Valid {
		return apperrors.BadRequest("INVALID_PASSWORD", res.Error())
	}

	sctx, cancel := s.storeCtx(ctx)
	reset, err := s.repos.ResetTokens.GetActiveByHash(sctx, token.HashToken(rawToken))
	cancel()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return invalidResetToken()
		}
		return fmt.Errorf("get reset token: %w", err)
	}
	if !reset.IsActive(s.now()) {
		return invalidResetToken()
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var revoked int64
	err = s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.ResetTokens.MarkUsed(ctx, reset.ID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return invalidResetToken()
			}
			return err
		}
		if err := repos.Users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
			return err
		}
		n, err := repos.RefreshTokens.RevokeAllForUser(ctx, reset.UserID, domain.RevokePasswordReset, "")
		revoked = n
		return err
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("reset password: %w", err)
	}

	s.notifyPasswordChanged(ctx, reset.UserID, domain.RevokePasswordReset)

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", reset.UserID),
		slog.Int64("revoked_sessions", revoked),
	)
	return nil
}

// ChangePassword replaces the password of a signed-in user and revokes the
// refresh tokens of every other session.
func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return apperrors.BadRequest("MISSING_FIELDS", "Current and new password are required")
	}

	sctx, cancel := s.storeCtx(ctx)
	user, err := s.repos.Users.GetByID(sctx, in.UserID)
	cancel()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("get user for password change: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, in.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return apperrors.BadRequest("INVALID_CURRENT_PASSWORD", "Current password is incorrect")
	}
	if res := s.policy.Validate(in.NewPassword); !res.Valid {
		return apperrors.BadRequest("INVALID_PASSWORD", res.Error())
	}
	if in.CurrentPassword == in.NewPassword {
		return apperrors.BadRequest("SAME_PASSWORD", "New password must be different from current password")
	}

	hash, err := s.hasher.Hash(ctx, in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		_, err := repos.RefreshTokens.RevokeAllForUser(ctx, user.ID, domain.RevokePasswordChange, in.SessionID)
		return err
	})
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.publish(ctx, "password_changed", func(ctx context.Context) error {
		return s.events.PublishPasswordChanged(ctx, user, domain.RevokePasswordChange)
	})

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.ID),
	)
	return nil
}

// VerifyEmail consumes a verification token and marks the email verified.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return apperrors.BadRequest("MISSING_TOKEN", "Verification token is required")
	}

	var userID string
	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		id, err := repos.Verifications.Consume(ctx, token.HashToken(rawToken))
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return invalidVerificationToken()
			}
			return err
		}
		userID = id
		return repos.Users.MarkEmailVerified(ctx, id)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("verify email: %w", err)
	}

	s.logger.InfoContext(ctx, "email verified",
		slog.String("user_id", userID),
	)
	return nil
}

// ResendVerification issues a fresh verification token for a user whose
// email is not yet verified.
func (s *AuthService) ResendVerification(ctx context.Context, userID string) error {
	sctx, cancel := s.storeCtx(ctx)
	user, err := s.repos.Users.GetByID(sctx, userID)
	cancel()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("get user for verification: %w", err)
	}
	if user.EmailVerified {
		return apperrors.BadRequest("ALREADY_VERIFIED", "Email is already verified")
	}

	raw, err := token.GenerateOpaqueToken(0)
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}
	now := s.now()
	verification := &domain.EmailVerificationToken{
		UserID:    user.ID,
		TokenHash: token.HashToken(raw),
		Email:     user.Email,
		ExpiresAt: now.Add(s.cfg.VerificationTokenTTL),
		CreatedAt: now,
	}

	sctx, cancel = s.storeCtx(ctx)
	err = s.repos.Verifications.Create(sctx, verification)
	cancel()
	if err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	s.publish(ctx, "email_verification_requested", func(ctx context.Context) error {
		return s.events.PublishEmailVerificationRequested(ctx, user, raw, verification.ExpiresAt)
	})
	return nil
}

// notifyPasswordChanged loads the user for the event payload. Failures are
// logged only.
func (s *AuthService) notifyPasswordChanged(ctx context.Context, userID string, reason domain.RevokeReason) {
	if s.events == nil {
		return
	}
	sctx, cancel := s.storeCtx(ctx)
	user, err := s.repos.Users.GetByID(sctx, userID)
	cancel()
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load user for event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.publish(ctx, "password_changed", func(ctx context.Context) error {
		return s.events.PublishPasswordChanged(ctx, user, reason)
	})
}

func invalidResetToken() *apperrors.AppError {
	return apperrors.BadRequest("INVALID_RESET_TOKEN", "Invalid or expired reset token")
}

func invalidVerificationToken() *apperrors.AppError {
	return apperrors.BadRequest("INVALID_VERIFICATION_TOKEN", "Invalid or expired verification token")
}

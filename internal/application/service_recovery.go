package application

import (
	"context"
	"fmt"

	"github.com/meridianbank/authd/internal/domain"
	"github.com/meridianbank/authd/internal/ports"
)

// EmailVerificationRequest mails a verification link to the user's own
// address. The link carries an email_validation token pointing at path on
// the public frontend.
func (s *Service) EmailVerificationRequest(ctx context.Context, userID, path string) error {
	user, err := s.users.GetUser(ctx, ports.UserSelector{ID: userID},
		ports.FieldIdentifier, ports.FieldSecurity, ports.FieldProfile)
	if err != nil {
		return s.fail(ctx, "email_verification_request", err)
	}
	if user == nil {
		return s.fail(ctx, "email_verification_request", fmt.Errorf("no user %q", userID))
	}
	if user.Security.EmailVerified {
		return domain.ErrEmailVerified
	}

	token, err := s.tokens.Create(domain.EmailValidationPayload{UserID: user.ID})
	if err != nil {
		return s.fail(ctx, "email_verification_request", err)
	}
	if err := s.email.SendVerifyEmail(ctx, *user, token, path); err != nil {
		return s.fail(ctx, "email_verification_request", fmt.Errorf("send verify email: %w", err))
	}
	return nil
}

// EmailVerify consumes a mailed verification token and marks the address
// as verified. An expired token fails with ErrEmailVerificationExpired.
func (s *Service) EmailVerify(ctx context.Context, token string) error {
	vt, err := s.tokens.Verify(token, domain.TokenEmailValidation, true)
	if err != nil {
		return s.fail(ctx, "email_verify", err)
	}
	if err := s.users.VerifyEmail(ctx, vt.Payload.Subject()); err != nil {
		return s.fail(ctx, "email_verify", err)
	}
	return nil
}

// PasswordRecoveryRequest mails a reset link when both identifiers match
// the same account. It intentionally reports success for unknown users or
// mismatched identifiers to avoid account enumeration.
func (s *Service) PasswordRecoveryRequest(ctx context.Context, req PasswordRecoveryRequest, path string) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}

	user, err := s.users.GetUser(ctx, ports.UserSelector{Email: email},
		ports.FieldIdentifier, ports.FieldProfile)
	if err != nil {
		return s.fail(ctx, "password_recovery_request", err)
	}
	if user == nil || user.Identifier.IdentityNumber != req.IdentityNumber {
		return nil
	}

	token, err := s.tokens.Create(domain.PasswordRecoveryPayload{UserID: user.ID})
	if err != nil {
		return s.fail(ctx, "password_recovery_request", err)
	}
	if err := s.email.SendRecoveryPassword(ctx, *user, token, path); err != nil {
		return s.fail(ctx, "password_recovery_request", fmt.Errorf("send recovery email: %w", err))
	}
	return nil
}

// PasswordReset consumes a mailed recovery token and replaces the
// password. An expired token fails with ErrPasswordRecoveryExpired.
func (s *Service) PasswordReset(ctx context.Context, req PasswordResetRequest) error {
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return err
	}
	vt, err := s.tokens.Verify(req.Token, domain.TokenPasswordRecovery, true)
	if err != nil {
		return s.fail(ctx, "password_reset", err)
	}

	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return s.fail(ctx, "password_reset", fmt.Errorf("hash password: %w", err))
	}
	if err := s.users.ChangePassword(ctx, vt.Payload.Subject(), passwordHash); err != nil {
		return s.fail(ctx, "password_reset", err)
	}
	return nil
}

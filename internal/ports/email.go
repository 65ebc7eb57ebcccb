package ports

import (
	"context"

	"github.com/meridianbank/authd/internal/domain"
)

// EmailSender delivers the recovery mails. The path arguments name the
// frontend route the mailed link points at; the token is appended as its
// query parameter.
type EmailSender interface {
	SendVerifyEmail(ctx context.Context, user domain.User, token, path string) error
	SendRecoveryPassword(ctx context.Context, user domain.User, token, path string) error
}

package ports

import (
	"time"

	"github.com/meridianbank/authd/internal/domain"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// IDGenerator issues the opaque ids used for users and trusted devices.
type IDGenerator interface {
	NewID() string
}

// VerifiedToken is the result of a successful verification. ExpiresAt is
// surfaced so revocation records can share the token's own lifetime.
type VerifiedToken struct {
	Payload   domain.TokenPayload
	ExpiresAt time.Time
}

// TokenService signs and verifies the service's tokens. Create derives the
// token kind from the payload variant. Verify rejects the empty token with
// domain.ErrMissingToken; when expect is non-empty and strict is true, a
// token of any other kind fails with domain.ErrInvalidToken. Expired tokens
// fail with the expiry error of the expected kind.
type TokenService interface {
	Create(payload domain.TokenPayload) (string, error)
	Verify(token string, expect domain.TokenKind, strict bool) (VerifiedToken, error)
}

// TwoFactorService manages TOTP enrollment material and code checks.
// ProvisioningImage returns a base64 PNG data URI of the otpauth QR code.
type TwoFactorService interface {
	GenerateSecret() (string, error)
	ProvisioningImage(label, secret string) (string, error)
	Validate(code, secret string) bool
}

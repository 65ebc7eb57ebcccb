package domain

import "errors"

var (
	// ErrInvalidCredentials hides whether the identifier or the password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid user or password")
	// ErrRequired2FA tells the client the credentials were correct but a
	// second factor must be presented before any token is issued.
	ErrRequired2FA = errors.New("two factor auth is required")
	ErrInvalid2FA  = errors.New("invalid two factor auth code")
	ErrNotEnabled  = errors.New("two factor auth is not enabled")
	// ErrSessionExpired is returned for expired access or refresh tokens.
	ErrSessionExpired = errors.New("session expired")
	ErrTokenRevoked   = errors.New("token revoked")

	ErrEmailExists          = errors.New("email already exists")
	ErrIdentityNumberExists = errors.New("identity number already exists")
	ErrEmailVerified        = errors.New("email is already verified")
	ErrTwoFactorExists      = errors.New("two factor auth already exists")

	// Recovery tokens expire on their own schedule and map to 410 rather
	// than 401: the resource the link pointed at is gone for good.
	ErrEmailVerificationExpired = errors.New("email verification expired")
	ErrEmailRecoveryExpired     = errors.New("email recovery expired")
	ErrPasswordRecoveryExpired  = errors.New("password recovery expired")

	ErrMissingToken = errors.New("token is required")
	ErrInvalidToken = errors.New("invalid token")

	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotImplemented = errors.New("not implemented")
	ErrInternal       = errors.New("internal error")
)

// knownErrors lists every failure callers are expected to branch on.
// Anything outside this set crossing a use-case boundary is logged and
// replaced by ErrInternal so storage details never leak to clients.
var knownErrors = []error{
	ErrInvalidCredentials,
	ErrRequired2FA,
	ErrInvalid2FA,
	ErrNotEnabled,
	ErrSessionExpired,
	ErrTokenRevoked,
	ErrEmailExists,
	ErrIdentityNumberExists,
	ErrEmailVerified,
	ErrTwoFactorExists,
	ErrEmailVerificationExpired,
	ErrEmailRecoveryExpired,
	ErrPasswordRecoveryExpired,
	ErrMissingToken,
	ErrInvalidToken,
	ErrNotFound,
	ErrInvalidInput,
	ErrNotImplemented,
}

// IsKnown reports whether err is (or wraps) one of the domain sentinels.
func IsKnown(err error) bool {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

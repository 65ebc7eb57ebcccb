package domain

// TokenKind tags every issued token with the flow it belongs to.
// Verification is strict: a token of one kind is never accepted where
// another kind is expected.
type TokenKind string

const (
	TokenAccess           TokenKind = "access"
	TokenRefresh          TokenKind = "refresh"
	TokenEmailValidation  TokenKind = "email_validation"
	TokenEmailRecovery    TokenKind = "email_recovery"
	TokenPasswordRecovery TokenKind = "password_recovery"
	TokenDeviceInfo       TokenKind = "device_info"
)

// ValidTokenKind reports whether k is one of the issued kinds.
func ValidTokenKind(k TokenKind) bool {
	switch k {
	case TokenAccess, TokenRefresh, TokenEmailValidation,
		TokenEmailRecovery, TokenPasswordRecovery, TokenDeviceInfo:
		return true
	}
	return false
}

// TokenPayload is the sum type over token kinds. Each variant carries
// exactly the claims its flow needs, and constructing a variant fixes the
// kind, so a payload can never be signed under the wrong tag.
type TokenPayload interface {
	Kind() TokenKind
	// Subject is the id the token is about: the user id for every kind
	// except device_info, where it is the trusted device id.
	Subject() string
}

// AccessPayload carries the identity snapshot embedded in access tokens.
type AccessPayload struct {
	UserID         string
	Email          string
	IdentityNumber string
	Permissions    []string
}

func (AccessPayload) Kind() TokenKind   { return TokenAccess }
func (p AccessPayload) Subject() string { return p.UserID }

type RefreshPayload struct {
	UserID string
}

func (RefreshPayload) Kind() TokenKind   { return TokenRefresh }
func (p RefreshPayload) Subject() string { return p.UserID }

type EmailValidationPayload struct {
	UserID string
}

func (EmailValidationPayload) Kind() TokenKind   { return TokenEmailValidation }
func (p EmailValidationPayload) Subject() string { return p.UserID }

type EmailRecoveryPayload struct {
	UserID string
}

func (EmailRecoveryPayload) Kind() TokenKind   { return TokenEmailRecovery }
func (p EmailRecoveryPayload) Subject() string { return p.UserID }

type PasswordRecoveryPayload struct {
	UserID string
}

func (PasswordRecoveryPayload) Kind() TokenKind   { return TokenPasswordRecovery }
func (p PasswordRecoveryPayload) Subject() string { return p.UserID }

// DeviceInfoPayload identifies a trusted device. It deliberately carries no
// user reference: trust is established by membership in the user's trusted
// device set, not by the token alone.
type DeviceInfoPayload struct {
	DeviceID   string
	DeviceName string
}

func (DeviceInfoPayload) Kind() TokenKind   { return TokenDeviceInfo }
func (p DeviceInfoPayload) Subject() string { return p.DeviceID }

package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meridianbank/authd/internal/domain"
	"github.com/meridianbank/authd/internal/ports"
)

// TokenTTLs sets the lifetime per token kind.
type TokenTTLs struct {
	Access           time.Duration
	Refresh          time.Duration
	EmailValidation  time.Duration
	EmailRecovery    time.Duration
	PasswordRecovery time.Duration
	DeviceInfo       time.Duration
}

// JWTService signs and verifies all service tokens with a single HS256
// secret. The token kind travels in the "typ" claim so verification can
// enforce that a token is only accepted by the flow that issued it.
type JWTService struct {
	secret []byte
	ttls   TokenTTLs
	nowFn  func() time.Time
}

func NewJWTService(secret string, ttls TokenTTLs) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTService{
		secret: []byte(secret),
		ttls:   ttls,
		nowFn:  time.Now,
	}, nil
}

type signedClaims struct {
	TokenType      string   `json:"typ"`
	Email          string   `json:"email,omitempty"`
	IdentityNumber string   `json:"identity_number,omitempty"`
	Permissions    []string `json:"permissions,omitempty"`
	DeviceName     string   `json:"device_name,omitempty"`
	jwt.RegisteredClaims
}

func (s *JWTService) Create(payload domain.TokenPayload) (string, error) {
	now := s.nowFn()
	claims := signedClaims{
		TokenType: string(payload.Kind()),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Subject(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl(payload.Kind()))),
		},
	}

	switch p := payload.(type) {
	case domain.AccessPayload:
		claims.Email = p.Email
		claims.IdentityNumber = p.IdentityNumber
		claims.Permissions = p.Permissions
	case domain.DeviceInfoPayload:
		claims.DeviceName = p.DeviceName
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) Verify(raw string, expect domain.TokenKind, strict bool) (ports.VerifiedToken, error) {
	if raw == "" {
		return ports.VerifiedToken{}, domain.ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &signedClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.VerifiedToken{}, expiredError(expect)
		}
		return ports.VerifiedToken{}, domain.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*signedClaims)
	if !ok || !parsed.Valid {
		return ports.VerifiedToken{}, domain.ErrInvalidToken
	}

	kind := domain.TokenKind(claims.TokenType)
	if !domain.ValidTokenKind(kind) {
		return ports.VerifiedToken{}, domain.ErrInvalidToken
	}
	if strict && expect != "" && kind != expect {
		return ports.VerifiedToken{}, domain.ErrInvalidToken
	}

	payload, err := payloadFromClaims(kind, claims)
	if err != nil {
		return ports.VerifiedToken{}, err
	}

	return ports.VerifiedToken{
		Payload:   payload,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

func payloadFromClaims(kind domain.TokenKind, claims *signedClaims) (domain.TokenPayload, error) {
	switch kind {
	case domain.TokenAccess:
		return domain.AccessPayload{
			UserID:         claims.Subject,
			Email:          claims.Email,
			IdentityNumber: claims.IdentityNumber,
			Permissions:    claims.Permissions,
		}, nil
	case domain.TokenRefresh:
		return domain.RefreshPayload{UserID: claims.Subject}, nil
	case domain.TokenEmailValidation:
		return domain.EmailValidationPayload{UserID: claims.Subject}, nil
	case domain.TokenEmailRecovery:
		return domain.EmailRecoveryPayload{UserID: claims.Subject}, nil
	case domain.TokenPasswordRecovery:
		return domain.PasswordRecoveryPayload{UserID: claims.Subject}, nil
	case domain.TokenDeviceInfo:
		return domain.DeviceInfoPayload{DeviceID: claims.Subject, DeviceName: claims.DeviceName}, nil
	default:
		return nil, domain.ErrInvalidToken
	}
}

// expiredError maps an expired token to the failure of the flow that was
// expecting it. Access and refresh tokens expire as a session, the mailed
// tokens expire as their link.
func expiredError(expect domain.TokenKind) error {
	switch expect {
	case domain.TokenAccess, domain.TokenRefresh:
		return domain.ErrSessionExpired
	case domain.TokenEmailValidation:
		return domain.ErrEmailVerificationExpired
	case domain.TokenEmailRecovery:
		return domain.ErrEmailRecoveryExpired
	case domain.TokenPasswordRecovery:
		return domain.ErrPasswordRecoveryExpired
	default:
		return domain.ErrInvalidToken
	}
}

func (s *JWTService) ttl(kind domain.TokenKind) time.Duration {
	switch kind {
	case domain.TokenAccess:
		return s.ttls.Access
	case domain.TokenRefresh:
		return s.ttls.Refresh
	case domain.TokenEmailValidation:
		return s.ttls.EmailValidation
	case domain.TokenEmailRecovery:
		return s.ttls.EmailRecovery
	case domain.TokenPasswordRecovery:
		return s.ttls.PasswordRecovery
	case domain.TokenDeviceInfo:
		return s.ttls.DeviceInfo
	default:
		return s.ttls.Access
	}
}

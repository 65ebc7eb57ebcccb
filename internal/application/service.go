package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/meridianbank/authd/internal/domain"
	"github.com/meridianbank/authd/internal/ports"
)

// Config carries application-level policy knobs.
type Config struct {
	// DefaultPermissions is the permission set assigned to new accounts.
	DefaultPermissions []string
}

// Service implements the authentication and recovery use cases.
type Service struct {
	cfg         Config
	users       ports.UserRepository
	revocations ports.RevocationCache
	hasher      ports.PasswordHasher
	tokens      ports.TokenService
	twoFactor   ports.TwoFactorService
	email       ports.EmailSender
	ids         ports.IDGenerator
	logger      *slog.Logger
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Users       ports.UserRepository
	Revocations ports.RevocationCache
	Hasher      ports.PasswordHasher
	Tokens      ports.TokenService
	TwoFactor   ports.TwoFactorService
	Email       ports.EmailSender
	IDs         ports.IDGenerator
	Logger      *slog.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         deps.Config,
		users:       deps.Users,
		revocations: deps.Revocations,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		twoFactor:   deps.TwoFactor,
		email:       deps.Email,
		ids:         deps.IDs,
		logger:      logger,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// fail is the use-case error boundary. Domain failures pass through for
// the transport layer to map; anything else is logged with its cause and
// replaced by ErrInternal so internals never reach a client.
func (s *Service) fail(ctx context.Context, operation string, err error) error {
	if domain.IsKnown(err) {
		return err
	}
	s.logger.ErrorContext(ctx, "unexpected failure",
		"module", "application",
		"layer", "use_case",
		"operation", operation,
		"outcome", "error",
		"error", err.Error(),
	)
	return domain.ErrInternal
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

package ports

import (
	"context"
	"time"

	"github.com/meridianbank/authd/internal/domain"
)

// AvailabilityCheck names the identifiers to test for prior registration.
// Empty fields are skipped.
type AvailabilityCheck struct {
	Email          string
	IdentityNumber string
}

// Conflict values returned by IsAvailable. When both identifiers are taken
// the email conflict is reported first.
const (
	ConflictNone           = ""
	ConflictEmail          = "email"
	ConflictIdentityNumber = "identity_number"
)

// UserSelector picks a user by exactly one identifier. Soft-deleted users
// are never returned.
type UserSelector struct {
	ID             string
	Email          string
	IdentityNumber string
}

// UserField names a projection group of the user aggregate. GetUser with no
// fields hydrates everything; with fields it fills only the named groups
// (the id is always present).
type UserField string

const (
	FieldIdentifier  UserField = "identifier"
	FieldSecurity    UserField = "security"
	FieldPermissions UserField = "permissions"
	FieldProfile     UserField = "profile"
	FieldAddress     UserField = "address"
	FieldLogs        UserField = "logs"
)

// UserRepository defines persistence operations for user accounts.
// Update operations resolve the account by id and fail when it does not
// exist or the id is malformed.
type UserRepository interface {
	SaveUser(ctx context.Context, user domain.User) error
	IsAvailable(ctx context.Context, check AvailabilityCheck) (string, error)
	GetUser(ctx context.Context, selector UserSelector, fields ...UserField) (*domain.User, error)
	ChangeEmail(ctx context.Context, userID, email string) error
	ChangePassword(ctx context.Context, userID, passwordHash string) error
	SaveTwoFactorSecret(ctx context.Context, userID, secret string) error
	VerifyEmail(ctx context.Context, userID string) error
	ActivateTwoFactor(ctx context.Context, userID string) error
	AddTrustedDevice(ctx context.Context, userID string, device domain.TrustedDevice) error
	NewLogin(ctx context.Context, userID string, at time.Time) error
	DeleteTwoFactorAuth(ctx context.Context, userID string) error
	DeleteAccount(ctx context.Context, userID string, at time.Time) error
}

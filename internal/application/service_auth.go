package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/meridianbank/authd/internal/domain"
	"github.com/meridianbank/authd/internal/ports"
)

// CreateAccount registers a new user. Both identifiers are checked for
// availability up front; the storage unique indexes settle any race that
// slips between the check and the insert.
func (s *Service) CreateAccount(ctx context.Context, req RegisterRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	identityNumber := strings.TrimSpace(req.IdentityNumber)
	if identityNumber == "" {
		return fmt.Errorf("%w: identity number is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return err
	}
	if strings.TrimSpace(req.Firstname) == "" || strings.TrimSpace(req.Lastname) == "" {
		return fmt.Errorf("%w: firstname and lastname are required", domain.ErrInvalidInput)
	}
	if req.Birthdate.IsZero() {
		return fmt.Errorf("%w: birthdate is required", domain.ErrInvalidInput)
	}

	conflict, err := s.users.IsAvailable(ctx, ports.AvailabilityCheck{
		Email:          email,
		IdentityNumber: identityNumber,
	})
	if err != nil {
		return s.fail(ctx, "create_account", err)
	}
	switch conflict {
	case ports.ConflictEmail:
		return domain.ErrEmailExists
	case ports.ConflictIdentityNumber:
		return domain.ErrIdentityNumberExists
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return s.fail(ctx, "create_account", fmt.Errorf("hash password: %w", err))
	}

	now := s.nowFn()
	user := domain.User{
		ID: s.ids.NewID(),
		Identifier: domain.Identifier{
			Email:          email,
			IdentityNumber: identityNumber,
			Password:       passwordHash,
		},
		Permissions: s.cfg.DefaultPermissions,
		Profile: domain.Profile{
			Firstname:   strings.TrimSpace(req.Firstname),
			Lastname:    strings.TrimSpace(req.Lastname),
			Birthdate:   req.Birthdate,
			Nationality: strings.TrimSpace(req.Nationality),
			Gender:      strings.TrimSpace(req.Gender),
		},
		Address: domain.Address{
			Region:     req.Region,
			PostalCode: req.PostalCode,
			City:       req.City,
			Address:    req.Address,
		},
		Logs: domain.Logs{CreatedAt: now, UpdatedAt: now},
	}

	if err := s.users.SaveUser(ctx, user); err != nil {
		return s.fail(ctx, "create_account", err)
	}
	return nil
}

// Login exchanges credentials for a token pair. When the account has 2FA
// active, only a valid trusted-device token bypasses the second factor;
// otherwise the caller gets ErrRequired2FA and no tokens.
func (s *Service) Login(ctx context.Context, req LoginRequest) (TokenPair, error) {
	if req.Password == "" {
		return TokenPair{}, domain.ErrInvalidCredentials
	}
	selector, err := loginSelector(req)
	if err != nil {
		return TokenPair{}, err
	}

	user, err := s.users.GetUser(ctx, selector,
		ports.FieldIdentifier, ports.FieldSecurity, ports.FieldPermissions)
	if err != nil {
		return TokenPair{}, s.fail(ctx, "login", err)
	}
	if user == nil || !s.hasher.Compare(user.Identifier.Password, req.Password) {
		return TokenPair{}, domain.ErrInvalidCredentials
	}

	if user.Security.TwoFactorAuth && !s.deviceTrusted(user.Security, req.DeviceToken) {
		return TokenPair{}, domain.ErrRequired2FA
	}

	pair, err := s.issueTokenPair(*user)
	if err != nil {
		return TokenPair{}, s.fail(ctx, "login", err)
	}
	if err := s.users.NewLogin(ctx, user.ID, s.nowFn()); err != nil {
		return TokenPair{}, s.fail(ctx, "login", err)
	}
	return pair, nil
}

func loginSelector(req LoginRequest) (ports.UserSelector, error) {
	switch {
	case req.Email != "":
		email, err := normalizeEmail(req.Email)
		if err != nil {
			return ports.UserSelector{}, err
		}
		return ports.UserSelector{Email: email}, nil
	case req.IdentityNumber != "":
		return ports.UserSelector{IdentityNumber: strings.TrimSpace(req.IdentityNumber)}, nil
	default:
		return ports.UserSelector{}, fmt.Errorf("%w: email or identity number is required", domain.ErrInvalidInput)
	}
}

// deviceTrusted checks the presented device token against the user's
// trusted set. Any verification failure counts as an untrusted device
// rather than an error: the caller just has to pass the 2FA challenge.
func (s *Service) deviceTrusted(security domain.Security, deviceToken string) bool {
	if deviceToken == "" {
		return false
	}
	vt, err := s.tokens.Verify(deviceToken, domain.TokenDeviceInfo, true)
	if err != nil {
		return false
	}
	return security.IsTrustedDevice(vt.Payload.Subject())
}

func (s *Service) issueTokenPair(user domain.User) (TokenPair, error) {
	var pair TokenPair
	g := new(errgroup.Group)
	g.Go(func() error {
		token, err := s.tokens.Create(domain.AccessPayload{
			UserID:         user.ID,
			Email:          user.Identifier.Email,
			IdentityNumber: user.Identifier.IdentityNumber,
			Permissions:    user.Permissions,
		})
		pair.AccessToken = token
		return err
	})
	g.Go(func() error {
		token, err := s.tokens.Create(domain.RefreshPayload{UserID: user.ID})
		pair.RefreshToken = token
		return err
	})
	if err := g.Wait(); err != nil {
		return TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}
	return pair, nil
}

// RefreshToken mints a fresh access token from a refresh token. The user
// is re-read so permission changes take effect without a new login.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	vt, err := s.tokens.Verify(refreshToken, domain.TokenRefresh, true)
	if err != nil {
		return "", s.fail(ctx, "refresh_token", err)
	}
	if err := s.ensureNotRevoked(ctx, refreshToken); err != nil {
		return "", s.fail(ctx, "refresh_token", err)
	}

	user, err := s.users.GetUser(ctx, ports.UserSelector{ID: vt.Payload.Subject()},
		ports.FieldIdentifier, ports.FieldPermissions)
	if err != nil {
		return "", s.fail(ctx, "refresh_token", err)
	}
	if user == nil {
		return "", s.fail(ctx, "refresh_token",
			fmt.Errorf("no user for refresh token subject %q", vt.Payload.Subject()))
	}

	accessToken, err := s.tokens.Create(domain.AccessPayload{
		UserID:         user.ID,
		Email:          user.Identifier.Email,
		IdentityNumber: user.Identifier.IdentityNumber,
		Permissions:    user.Permissions,
	})
	if err != nil {
		return "", s.fail(ctx, "refresh_token", err)
	}
	return accessToken, nil
}

// ValidateAccess verifies an access token and its revocation state. It is
// the check behind every guarded endpoint.
func (s *Service) ValidateAccess(ctx context.Context, accessToken string) (domain.AccessPayload, error) {
	vt, err := s.tokens.Verify(accessToken, domain.TokenAccess, true)
	if err != nil {
		return domain.AccessPayload{}, s.fail(ctx, "validate_access", err)
	}
	if err := s.ensureNotRevoked(ctx, accessToken); err != nil {
		return domain.AccessPayload{}, s.fail(ctx, "validate_access", err)
	}
	payload, ok := vt.Payload.(domain.AccessPayload)
	if !ok {
		return domain.AccessPayload{}, s.fail(ctx, "validate_access",
			errors.New("access token carried wrong payload variant"))
	}
	return payload, nil
}

func (s *Service) ensureNotRevoked(ctx context.Context, token string) error {
	revoked, err := s.revocations.IsTokenRevoked(ctx, token)
	if err != nil {
		return fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return domain.ErrTokenRevoked
	}
	return nil
}

// Logout revokes both session tokens for exactly as long as they would
// otherwise have stayed valid. Tokens that no longer verify are skipped,
// they are already dead.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	for _, token := range []string{accessToken, refreshToken} {
		if token == "" {
			continue
		}
		vt, err := s.tokens.Verify(token, "", false)
		if err != nil {
			continue
		}
		if err := s.revocations.RevokeToken(ctx, token, vt.ExpiresAt); err != nil {
			return s.fail(ctx, "logout", fmt.Errorf("revoke token: %w", err))
		}
	}
	return nil
}

// CreateTwoFactorAuth provisions a TOTP secret for the user and returns
// the enrollment QR image. The secret stays inactive until the first
// successful code through LoginTwoFactor.
func (s *Service) CreateTwoFactorAuth(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetUser(ctx, ports.UserSelector{ID: userID},
		ports.FieldIdentifier, ports.FieldSecurity)
	if err != nil {
		return "", s.fail(ctx, "create_two_factor", err)
	}
	if user == nil {
		return "", s.fail(ctx, "create_two_factor", fmt.Errorf("no user %q", userID))
	}
	if user.Security.TwoFactorSecret != "" {
		return "", domain.ErrTwoFactorExists
	}

	secret, err := s.twoFactor.GenerateSecret()
	if err != nil {
		return "", s.fail(ctx, "create_two_factor", fmt.Errorf("generate secret: %w", err))
	}
	image, err := s.twoFactor.ProvisioningImage(user.Identifier.IdentityNumber, secret)
	if err != nil {
		return "", s.fail(ctx, "create_two_factor", err)
	}
	if err := s.users.SaveTwoFactorSecret(ctx, userID, secret); err != nil {
		return "", s.fail(ctx, "create_two_factor", err)
	}
	return image, nil
}

// LoginTwoFactor completes a login gated on the second factor. The first
// valid code also activates a freshly provisioned secret. When the caller
// names the device, it joins the trusted set and a device token is issued
// so future logins from it skip the challenge.
func (s *Service) LoginTwoFactor(ctx context.Context, req TwoFactorLoginRequest) (TwoFactorLoginResponse, error) {
	user, err := s.users.GetUser(ctx, ports.UserSelector{ID: req.UserID},
		ports.FieldIdentifier, ports.FieldSecurity, ports.FieldPermissions)
	if err != nil {
		return TwoFactorLoginResponse{}, s.fail(ctx, "login_two_factor", err)
	}
	if user == nil {
		return TwoFactorLoginResponse{}, s.fail(ctx, "login_two_factor", fmt.Errorf("no user %q", req.UserID))
	}
	if user.Security.TwoFactorSecret == "" {
		return TwoFactorLoginResponse{}, domain.ErrNotEnabled
	}
	if !s.twoFactor.Validate(req.Code, user.Security.TwoFactorSecret) {
		return TwoFactorLoginResponse{}, domain.ErrInvalid2FA
	}

	if !user.Security.TwoFactorAuth {
		if err := s.users.ActivateTwoFactor(ctx, user.ID); err != nil {
			return TwoFactorLoginResponse{}, s.fail(ctx, "login_two_factor", err)
		}
	}

	var deviceToken string
	if deviceName := strings.TrimSpace(req.DeviceName); deviceName != "" {
		device := domain.TrustedDevice{DeviceID: s.ids.NewID(), DeviceName: deviceName}
		if err := s.users.AddTrustedDevice(ctx, user.ID, device); err != nil {
			return TwoFactorLoginResponse{}, s.fail(ctx, "login_two_factor", err)
		}
		deviceToken, err = s.tokens.Create(domain.DeviceInfoPayload{
			DeviceID:   device.DeviceID,
			DeviceName: device.DeviceName,
		})
		if err != nil {
			return TwoFactorLoginResponse{}, s.fail(ctx, "login_two_factor", err)
		}
	}

	pair, err := s.issueTokenPair(*user)
	if err != nil {
		return TwoFactorLoginResponse{}, s.fail(ctx, "login_two_factor", err)
	}
	if err := s.users.NewLogin(ctx, user.ID, s.nowFn()); err != nil {
		return TwoFactorLoginResponse{}, s.fail(ctx, "login_two_factor", err)
	}
	return TwoFactorLoginResponse{Tokens: pair, DeviceToken: deviceToken}, nil
}

// DeleteTwoFactorAuth deactivates 2FA and clears the secret together with
// the trusted device set.
func (s *Service) DeleteTwoFactorAuth(ctx context.Context, userID string) error {
	user, err := s.users.GetUser(ctx, ports.UserSelector{ID: userID}, ports.FieldSecurity)
	if err != nil {
		return s.fail(ctx, "delete_two_factor", err)
	}
	if user == nil {
		return s.fail(ctx, "delete_two_factor", fmt.Errorf("no user %q", userID))
	}
	if !user.Security.TwoFactorAuth && user.Security.TwoFactorSecret == "" {
		return domain.ErrNotEnabled
	}
	if err := s.users.DeleteTwoFactorAuth(ctx, userID); err != nil {
		return s.fail(ctx, "delete_two_factor", err)
	}
	return nil
}

// DeleteAccount soft-deletes the account; the user disappears from every
// lookup but the document is retained.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.DeleteAccount(ctx, userID, s.nowFn()); err != nil {
		return s.fail(ctx, "delete_account", err)
	}
	return nil
}

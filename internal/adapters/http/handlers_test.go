package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meridianbank/authd/internal/adapters/security"
	"github.com/meridianbank/authd/internal/application"
	"github.com/meridianbank/authd/internal/domain"
	"github.com/meridianbank/authd/internal/ports"
	"github.com/meridianbank/authd/internal/router"
)

type testServer struct {
	router *router.Router
	users  *memUsers
	email  *memEmail
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tokens, err := security.NewJWTService("test-secret", security.TokenTTLs{
		Access:           time.Hour,
		Refresh:          24 * time.Hour,
		EmailValidation:  30 * time.Minute,
		EmailRecovery:    30 * time.Minute,
		PasswordRecovery: 15 * time.Minute,
		DeviceInfo:       90 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new jwt service: %v", err)
	}

	users := &memUsers{byID: map[string]domain.User{}}
	email := &memEmail{}
	svc := application.NewService(application.Dependencies{
		Config:      application.Config{DefaultPermissions: []string{"user"}},
		Users:       users,
		Revocations: &memRevocations{revoked: map[string]bool{}},
		Hasher:      security.NewBcryptHasher(4),
		Tokens:      tokens,
		TwoFactor:   stubTwoFactor{},
		Email:       email,
		IDs:         security.UUIDGenerator{},
	})

	return &testServer{
		router: NewRouter(NewHandler(svc)),
		users:  users,
		email:  email,
	}
}

func (s *testServer) do(t *testing.T, method, target, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return body
}

const registerBody = `{
	"email": "user@example.com",
	"identityNumber": "12345678",
	"password": "SecurePass123",
	"firstname": "Ada",
	"lastname": "Lovelace",
	"birthdate": "1990-06-15T00:00:00Z",
	"nationality": "GB",
	"region": "London",
	"postalCode": "SW1A",
	"city": "London",
	"address": "1 Example Street"
}`

const loginBody = `{"email": "user@example.com", "password": "SecurePass123"}`

func (s *testServer) registerAndLogin(t *testing.T) (access, refresh string) {
	t.Helper()
	if rec := s.do(t, http.MethodPost, "/api/auth/register", registerBody); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec := s.do(t, http.MethodPost, "/api/auth/login", loginBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := envelope(t, rec)["data"].(map[string]any)
	access, _ = data["accessToken"].(string)
	refresh, _ = data["refreshToken"].(string)
	if access == "" || refresh == "" {
		t.Fatalf("missing tokens in login response: %v", data)
	}
	return access, refresh
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := envelope(t, rec); body["message"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	access, refresh := s.registerAndLogin(t)

	rec := s.do(t, http.MethodPost, "/api/auth/refresh",
		fmt.Sprintf(`{"refreshToken": %q}`, refresh))
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := envelope(t, rec)["data"].(map[string]any)
	if token, _ := data["accessToken"].(string); token == "" {
		t.Fatalf("expected a fresh access token, got %v", data)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/logout",
		fmt.Sprintf(`{"refreshToken": %q}`, refresh), withBearer(access))
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/auth/refresh",
		fmt.Sprintf(`{"refreshToken": %q}`, refresh))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a revoked refresh token, got %d", rec.Code)
	}
	if body := envelope(t, rec); body["error"] != "token revoked" {
		t.Fatalf("unexpected error message: %v", body)
	}
}

func TestLogoutRevokesRefreshTokenFromChunkedBody(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	access, refresh := s.registerAndLogin(t)

	// Wrapping the body hides its size from httptest, which leaves
	// ContentLength at -1 the way a chunked request does.
	body := io.MultiReader(strings.NewReader(fmt.Sprintf(`{"refreshToken": %q}`, refresh)))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", body)
	req.Header.Set("Authorization", "Bearer "+access)
	if req.ContentLength != -1 {
		t.Fatalf("expected an unknown content length, got %d", req.ContentLength)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/auth/refresh",
		fmt.Sprintf(`{"refreshToken": %q}`, refresh))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token must be revoked after logout, got %d", rec.Code)
	}
	if body := envelope(t, rec); body["error"] != "token revoked" {
		t.Fatalf("unexpected error message: %v", body)
	}
}

func TestAuthTokenCookieFallback(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	access, _ := s.registerAndLogin(t)

	rec := s.do(t, http.MethodPost, "/api/auth/logout", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "auth_token", Value: access})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie auth: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterRejectsBadBodies(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/register", `{"email": "user@example.com", "surprise": true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown fields must be rejected, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/register", `{}{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("multiple JSON values must be rejected, got %d", rec.Code)
	}
}

func TestRegisterConflictIs409(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.registerAndLogin(t)

	rec := s.do(t, http.MethodPost, "/api/auth/register", registerBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := envelope(t, rec); body["error"] != "email already exists" {
		t.Fatalf("unexpected error message: %v", body)
	}
}

func TestLoginFailureIs401(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.registerAndLogin(t)

	rec := s.do(t, http.MethodPost, "/api/auth/login",
		`{"email": "user@example.com", "password": "WrongPass123"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGuardedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/logout", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without a token, got %d", rec.Code)
	}
	if body := envelope(t, rec); body["error"] != "token is required" {
		t.Fatalf("unexpected error message: %v", body)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/logout", "", withBearer("garbage"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a malformed token, got %d", rec.Code)
	}
}

func TestRouteFallbacks(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/auth/register", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for a wrong method, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown path, got %d", rec.Code)
	}
	if body := envelope(t, rec); body["error"] != "route not found" {
		t.Fatalf("unexpected 404 envelope: %v", body)
	}
}

func TestEmailVerificationOverHTTP(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	access, _ := s.registerAndLogin(t)

	rec := s.do(t, http.MethodGet, "/api/auth/validate-email", "", withBearer(access))
	if rec.Code != http.StatusOK {
		t.Fatalf("verification request: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token := s.email.lastVerifyToken(t)

	rec = s.do(t, http.MethodGet, "/api/recovery/email-validation?token="+token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("email verify: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !s.users.byEmail(t, "user@example.com").Security.EmailVerified {
		t.Fatal("email should be verified")
	}

	// A second request now conflicts with the verified state.
	rec = s.do(t, http.MethodGet, "/api/auth/validate-email", "", withBearer(access))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for an already verified email, got %d", rec.Code)
	}
}

func TestPasswordRecoveryOverHTTP(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.registerAndLogin(t)

	// Unknown accounts get the same response as known ones.
	rec := s.do(t, http.MethodPost, "/api/recovery/password",
		`{"email": "ghost@example.com", "identityNumber": "00000000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an unknown account, got %d", rec.Code)
	}
	if len(s.email.recoveryTokens()) != 0 {
		t.Fatal("no recovery mail may be sent for unknown accounts")
	}

	rec = s.do(t, http.MethodPost, "/api/recovery/password",
		`{"email": "user@example.com", "identityNumber": "12345678"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("recovery request: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	tokens := s.email.recoveryTokens()
	if len(tokens) != 1 {
		t.Fatalf("expected one recovery mail, got %d", len(tokens))
	}

	rec = s.do(t, http.MethodPut, "/api/recovery/password?token="+tokens[0],
		`{"newPassword": "BrandNewPass42"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("password reset: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/auth/login",
		`{"email": "user@example.com", "password": "BrandNewPass42"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new password: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTwoFactorLoginSetsDeviceCookie(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	access, _ := s.registerAndLogin(t)

	rec := s.do(t, http.MethodPost, "/api/auth/2fa", "", withBearer(access))
	if rec.Code != http.StatusCreated {
		t.Fatalf("2fa enrollment: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := envelope(t, rec)["data"].(map[string]any)
	if qr, _ := data["qr"].(string); qr == "" {
		t.Fatalf("expected a qr image, got %v", data)
	}

	user := s.users.byEmail(t, "user@example.com")
	rec = s.do(t, http.MethodPost, "/api/auth/2fa/login",
		fmt.Sprintf(`{"userId": %q, "code": "123456", "deviceName": "laptop"}`, user.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("2fa login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var deviceCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "device_token" {
			deviceCookie = cookie
		}
	}
	if deviceCookie == nil || deviceCookie.Value == "" {
		t.Fatal("expected a device_token cookie")
	}
	if !deviceCookie.HttpOnly {
		t.Fatal("device cookie must be http-only")
	}

	// With the secret activated, plain logins are gated unless the
	// trusted device cookie is presented.
	rec = s.do(t, http.MethodPost, "/api/auth/login", loginBody)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 requiring 2fa, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/login", loginBody, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "device_token", Value: deviceCookie.Value})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("trusted device login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

type memUsers struct {
	mu   sync.Mutex
	byID map[string]domain.User
}

func (m *memUsers) SaveUser(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[user.ID] = user
	return nil
}

func (m *memUsers) IsAvailable(_ context.Context, check ports.AvailabilityCheck) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conflict := ports.ConflictNone
	for _, u := range m.byID {
		if check.Email != "" && u.Identifier.Email == check.Email {
			return ports.ConflictEmail, nil
		}
		if check.IdentityNumber != "" && u.Identifier.IdentityNumber == check.IdentityNumber {
			conflict = ports.ConflictIdentityNumber
		}
	}
	return conflict, nil
}

func (m *memUsers) GetUser(_ context.Context, selector ports.UserSelector, _ ...ports.UserField) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Logs.DeletedAt != nil {
			continue
		}
		switch {
		case selector.ID != "" && u.ID == selector.ID,
			selector.Email != "" && u.Identifier.Email == selector.Email,
			selector.IdentityNumber != "" && u.Identifier.IdentityNumber == selector.IdentityNumber:
			copied := u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memUsers) mutate(userID string, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok || u.Logs.DeletedAt != nil {
		return fmt.Errorf("invalid user id %q", userID)
	}
	fn(&u)
	m.byID[userID] = u
	return nil
}

func (m *memUsers) ChangeEmail(_ context.Context, userID, email string) error {
	return m.mutate(userID, func(u *domain.User) {
		u.Identifier.Email = email
		u.Security.EmailVerified = false
	})
}

func (m *memUsers) ChangePassword(_ context.Context, userID, passwordHash string) error {
	return m.mutate(userID, func(u *domain.User) { u.Identifier.Password = passwordHash })
}

func (m *memUsers) SaveTwoFactorSecret(_ context.Context, userID, secret string) error {
	return m.mutate(userID, func(u *domain.User) {
		u.Security.TwoFactorSecret = secret
		u.Security.TwoFactorAuth = false
	})
}

func (m *memUsers) VerifyEmail(_ context.Context, userID string) error {
	return m.mutate(userID, func(u *domain.User) { u.Security.EmailVerified = true })
}

func (m *memUsers) ActivateTwoFactor(_ context.Context, userID string) error {
	return m.mutate(userID, func(u *domain.User) { u.Security.TwoFactorAuth = true })
}

func (m *memUsers) AddTrustedDevice(_ context.Context, userID string, device domain.TrustedDevice) error {
	return m.mutate(userID, func(u *domain.User) {
		u.Security.TrustedDevices = append(u.Security.TrustedDevices, device)
	})
}

func (m *memUsers) NewLogin(_ context.Context, userID string, at time.Time) error {
	return m.mutate(userID, func(u *domain.User) { u.Security.LastLogin = &at })
}

func (m *memUsers) DeleteTwoFactorAuth(_ context.Context, userID string) error {
	return m.mutate(userID, func(u *domain.User) {
		u.Security.TwoFactorAuth = false
		u.Security.TwoFactorSecret = ""
		u.Security.TrustedDevices = nil
	})
}

func (m *memUsers) DeleteAccount(_ context.Context, userID string, at time.Time) error {
	return m.mutate(userID, func(u *domain.User) { u.Logs.DeletedAt = &at })
}

func (m *memUsers) byEmail(t *testing.T, email string) domain.User {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Identifier.Email == email {
			return u
		}
	}
	t.Fatalf("no user with email %q", email)
	return domain.User{}
}

type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memRevocations) RevokeToken(_ context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if time.Until(expiresAt) <= 0 {
		return nil
	}
	m.revoked[token] = true
	return nil
}

func (m *memRevocations) IsTokenRevoked(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[token], nil
}

type memEmail struct {
	mu       sync.Mutex
	verify   []string
	recovery []string
}

func (m *memEmail) SendVerifyEmail(_ context.Context, _ domain.User, token, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verify = append(m.verify, token)
	return nil
}

func (m *memEmail) SendRecoveryPassword(_ context.Context, _ domain.User, token, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recovery = append(m.recovery, token)
	return nil
}

func (m *memEmail) lastVerifyToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.verify) == 0 {
		t.Fatal("no verification mail was sent")
	}
	return m.verify[len(m.verify)-1]
}

func (m *memEmail) recoveryTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.recovery...)
}

type stubTwoFactor struct{}

func (stubTwoFactor) GenerateSecret() (string, error) { return "stub-secret", nil }

func (stubTwoFactor) ProvisioningImage(label, secret string) (string, error) {
	return "data:image/png;base64,stub-" + label, nil
}

func (stubTwoFactor) Validate(code, secret string) bool { return code == "123456" }

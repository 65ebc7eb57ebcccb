package security

import (
	"bytes"
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/url"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPService provisions and checks time-based one-time passwords.
type TOTPService struct {
	issuer string
}

func NewTOTPService(issuer string) *TOTPService {
	if issuer == "" {
		issuer = "authd"
	}
	return &TOTPService{issuer: issuer}
}

// GenerateSecret returns a fresh base32 secret. The secret is stored
// inactive until the user proves possession with a first valid code.
func (s *TOTPService) GenerateSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// ProvisioningImage renders the otpauth enrollment QR code for the secret
// as a base64 PNG data URI, ready to embed in a client response.
func (s *TOTPService) ProvisioningImage(label, secret string) (string, error) {
	rawURL := fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(s.issuer), url.PathEscape(label),
		url.QueryEscape(secret), url.QueryEscape(s.issuer))

	key, err := otp.NewKeyFromURL(rawURL)
	if err != nil {
		return "", fmt.Errorf("build otpauth key: %w", err)
	}
	img, err := key.Image(256, 256)
	if err != nil {
		return "", fmt.Errorf("render qr image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode qr png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *TOTPService) Validate(code, secret string) bool {
	return totp.Validate(code, secret)
}

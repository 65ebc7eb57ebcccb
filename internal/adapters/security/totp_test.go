package security

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestGenerateSecretIsBase32AndUnique(t *testing.T) {
	t.Parallel()

	svc := NewTOTPService("authd")
	first, err := svc.GenerateSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	second, err := svc.GenerateSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	if first == second {
		t.Fatal("secrets must not repeat")
	}
	if strings.ContainsAny(first, "=") {
		t.Fatalf("secret should be unpadded base32, got %q", first)
	}
}

func TestValidateAcceptsCurrentCode(t *testing.T) {
	t.Parallel()

	svc := NewTOTPService("authd")
	secret, err := svc.GenerateSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if !svc.Validate(code, secret) {
		t.Fatal("current code should validate")
	}
	if svc.Validate("000000", secret) && code != "000000" {
		t.Fatal("arbitrary code should not validate")
	}
}

func TestProvisioningImageIsDataURI(t *testing.T) {
	t.Parallel()

	svc := NewTOTPService("authd")
	secret, err := svc.GenerateSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}

	image, err := svc.ProvisioningImage("12345678", secret)
	if err != nil {
		t.Fatalf("provisioning image: %v", err)
	}
	if !strings.HasPrefix(image, "data:image/png;base64,") {
		t.Fatalf("expected a png data uri, got %q", image[:min(len(image), 40)])
	}
}

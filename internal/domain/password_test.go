package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		password  string
		wantError bool
	}{
		{name: "valid", password: "StrongPass123", wantError: false},
		{name: "too short", password: "Ab1", wantError: true},
		{name: "too long", password: strings.Repeat("Aa1", 50), wantError: true},
		{name: "at bcrypt input limit", password: "Aa1" + strings.Repeat("x", 66) + "9AZ", wantError: false},
		{name: "just over bcrypt input limit", password: "Aa1" + strings.Repeat("x", 70), wantError: true},
		{name: "no upper", password: "strongpass123", wantError: true},
		{name: "no lower", password: "STRONGPASS123", wantError: true},
		{name: "no digit", password: "StrongPassword", wantError: true},
		{name: "weak pattern", password: "Password123", wantError: true},
		{name: "weak pattern cased", password: "QwErTy99abc", wantError: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePassword(tc.password)
			if tc.wantError && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !tc.wantError && err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
		})
	}
}

package domain

import "time"

// User is the canonical account aggregate. Identity, security posture and
// profile data live in sub-structs so repositories can project each group
// independently instead of always hydrating the whole document.
type User struct {
	ID          string
	Identifier  Identifier
	Security    Security
	Permissions []string
	Profile     Profile
	Address     Address
	Logs        Logs
}

// Identifier holds the credentials a user can authenticate with.
// Password always carries the hash, never the plaintext.
type Identifier struct {
	Email          string
	IdentityNumber string
	Password       string
}

// TrustedDevice is a device the user confirmed with a second factor.
// Logins from a trusted device skip the 2FA challenge.
type TrustedDevice struct {
	DeviceID   string
	DeviceName string
}

// Security tracks the account's verification and second-factor state.
// TwoFactorSecret may be set while TwoFactorAuth is still false: the secret
// is provisioned first and only activated by the first successful code.
type Security struct {
	EmailVerified   bool
	TwoFactorAuth   bool
	TwoFactorSecret string
	LastLogin       *time.Time
	TrustedDevices  []TrustedDevice
}

// IsTrustedDevice reports whether the device id is in the trusted set.
func (s Security) IsTrustedDevice(deviceID string) bool {
	if deviceID == "" {
		return false
	}
	for _, d := range s.TrustedDevices {
		if d.DeviceID == deviceID {
			return true
		}
	}
	return false
}

type Profile struct {
	Firstname   string
	Lastname    string
	Birthdate   time.Time
	Nationality string
	Gender      string
}

type Address struct {
	Region     string
	PostalCode string
	City       string
	Address    string
}

// Logs records lifecycle timestamps. A non-nil DeletedAt marks the account
// as soft-deleted; repositories must treat such users as absent.
type Logs struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

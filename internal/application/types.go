package application

import "time"

type RegisterRequest struct {
	Email          string `json:"email"`
	IdentityNumber string `json:"identityNumber"`
	Password       string `json:"password"`

	Firstname   string    `json:"firstname"`
	Lastname    string    `json:"lastname"`
	Birthdate   time.Time `json:"birthdate"`
	Nationality string    `json:"nationality"`
	Gender      string    `json:"gender,omitempty"`

	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Address    string `json:"address"`
}

// LoginRequest authenticates by email or identity number; exactly one of
// the two is required. DeviceToken is the optional trusted-device cookie.
type LoginRequest struct {
	Email          string `json:"email,omitempty"`
	IdentityNumber string `json:"identityNumber,omitempty"`
	Password       string `json:"password"`
	DeviceToken    string `json:"-"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type TwoFactorLoginRequest struct {
	UserID     string `json:"userId"`
	Code       string `json:"code"`
	DeviceName string `json:"deviceName,omitempty"`
}

// TwoFactorLoginResponse returns the session pair and, when the caller
// asked to remember the device, the device token to set as a cookie.
type TwoFactorLoginResponse struct {
	Tokens      TokenPair
	DeviceToken string
}

type PasswordRecoveryRequest struct {
	Email          string `json:"email"`
	IdentityNumber string `json:"identityNumber"`
}

type PasswordResetRequest struct {
	Token       string `json:"-"`
	NewPassword string `json:"newPassword"`
}

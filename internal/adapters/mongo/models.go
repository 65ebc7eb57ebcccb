package mongo

import (
	"time"

	"github.com/meridianbank/authd/internal/domain"
)

type userDocument struct {
	ID          string         `bson:"_id"`
	Identifier  identifierDoc  `bson:"identifier"`
	Security    securityDoc    `bson:"security"`
	Permissions []string       `bson:"permissions"`
	Profile     profileDoc     `bson:"profile"`
	Address     addressDoc     `bson:"address"`
	Logs        logsDoc        `bson:"logs"`
}

type identifierDoc struct {
	Email          string `bson:"email"`
	IdentityNumber string `bson:"identityNumber"`
	Password       string `bson:"password"`
}

type trustedDeviceDoc struct {
	DeviceID   string `bson:"deviceId"`
	DeviceName string `bson:"deviceName"`
}

type securityDoc struct {
	EmailVerified   bool               `bson:"emailVerified"`
	TwoFactorAuth   bool               `bson:"twoFactorAuth"`
	TwoFactorSecret string             `bson:"twoFactorSecret,omitempty"`
	LastLogin       *time.Time         `bson:"lastLogin,omitempty"`
	TrustedDevices  []trustedDeviceDoc `bson:"trustedDevices"`
}

type profileDoc struct {
	Firstname   string    `bson:"firstname"`
	Lastname    string    `bson:"lastname"`
	Birthdate   time.Time `bson:"birthdate"`
	Nationality string    `bson:"nationality"`
	Gender      string    `bson:"gender,omitempty"`
}

type addressDoc struct {
	Region     string `bson:"region"`
	PostalCode string `bson:"postalCode"`
	City       string `bson:"city"`
	Address    string `bson:"address"`
}

type logsDoc struct {
	CreatedAt time.Time  `bson:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty"`
}

func toDocument(u domain.User) userDocument {
	devices := make([]trustedDeviceDoc, 0, len(u.Security.TrustedDevices))
	for _, d := range u.Security.TrustedDevices {
		devices = append(devices, trustedDeviceDoc{DeviceID: d.DeviceID, DeviceName: d.DeviceName})
	}
	return userDocument{
		ID: u.ID,
		Identifier: identifierDoc{
			Email:          u.Identifier.Email,
			IdentityNumber: u.Identifier.IdentityNumber,
			Password:       u.Identifier.Password,
		},
		Security: securityDoc{
			EmailVerified:   u.Security.EmailVerified,
			TwoFactorAuth:   u.Security.TwoFactorAuth,
			TwoFactorSecret: u.Security.TwoFactorSecret,
			LastLogin:       u.Security.LastLogin,
			TrustedDevices:  devices,
		},
		Permissions: u.Permissions,
		Profile: profileDoc{
			Firstname:   u.Profile.Firstname,
			Lastname:    u.Profile.Lastname,
			Birthdate:   u.Profile.Birthdate,
			Nationality: u.Profile.Nationality,
			Gender:      u.Profile.Gender,
		},
		Address: addressDoc{
			Region:     u.Address.Region,
			PostalCode: u.Address.PostalCode,
			City:       u.Address.City,
			Address:    u.Address.Address,
		},
		Logs: logsDoc{
			CreatedAt: u.Logs.CreatedAt,
			UpdatedAt: u.Logs.UpdatedAt,
			DeletedAt: u.Logs.DeletedAt,
		},
	}
}

func toDomainUser(doc userDocument) domain.User {
	devices := make([]domain.TrustedDevice, 0, len(doc.Security.TrustedDevices))
	for _, d := range doc.Security.TrustedDevices {
		devices = append(devices, domain.TrustedDevice{DeviceID: d.DeviceID, DeviceName: d.DeviceName})
	}
	return domain.User{
		ID: doc.ID,
		Identifier: domain.Identifier{
			Email:          doc.Identifier.Email,
			IdentityNumber: doc.Identifier.IdentityNumber,
			Password:       doc.Identifier.Password,
		},
		Security: domain.Security{
			EmailVerified:   doc.Security.EmailVerified,
			TwoFactorAuth:   doc.Security.TwoFactorAuth,
			TwoFactorSecret: doc.Security.TwoFactorSecret,
			LastLogin:       doc.Security.LastLogin,
			TrustedDevices:  devices,
		},
		Permissions: doc.Permissions,
		Profile: domain.Profile{
			Firstname:   doc.Profile.Firstname,
			Lastname:    doc.Profile.Lastname,
			Birthdate:   doc.Profile.Birthdate,
			Nationality: doc.Profile.Nationality,
			Gender:      doc.Profile.Gender,
		},
		Address: domain.Address{
			Region:     doc.Address.Region,
			PostalCode: doc.Address.PostalCode,
			City:       doc.Address.City,
			Address:    doc.Address.Address,
		},
		Logs: domain.Logs{
			CreatedAt: doc.Logs.CreatedAt,
			UpdatedAt: doc.Logs.UpdatedAt,
			DeletedAt: doc.Logs.DeletedAt,
		},
	}
}

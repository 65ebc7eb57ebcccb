package security

import "github.com/google/uuid"

// UUIDGenerator issues random v4 ids for users and trusted devices.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

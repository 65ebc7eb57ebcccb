package ports

import (
	"context"
	"time"
)

// RevocationCache keeps revocation markers with token-aligned TTL.
// This allows immediate logout semantics without persisting session state:
// a marker becomes irrelevant exactly when the token would expire anyway.
type RevocationCache interface {
	RevokeToken(ctx context.Context, token string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

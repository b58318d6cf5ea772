package services

import (
	"context"
	"crypto/subtle"
)

// AdministratorCredential decides whether a supplied credential may mutate cases.
// Swapping the implementation (per-officer accounts, say) leaves CaseManager unchanged.
type AdministratorCredential interface {
	Authorize(ctx context.Context, credential string) error
}

// SharedSecret authorizes callers presenting one static administrative password
type SharedSecret struct {
	secret []byte
}

// NewSharedSecret returns a SharedSecret for secret. An empty secret authorizes nobody.
func NewSharedSecret(secret string) SharedSecret {
	return SharedSecret{secret: []byte(secret)}
}

// Authorize returns ErrUnauthorized unless credential equals the configured secret
func (s SharedSecret) Authorize(_ context.Context, credential string) error {
	if len(s.secret) == 0 || credential == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(credential), s.secret) != 1 {
		return ErrUnauthorized
	}
	return nil
}

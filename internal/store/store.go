// Package store defines the durable key/value storage that holds the client session.
package store

import "context"

// Persisted session keys.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
	KeyRole         = "role"
	KeyEmail        = "email"
	KeyName         = "name"
	KeyID           = "id"
)

// SessionKeys lists every key written on login and removed on logout.
var SessionKeys = []string{KeyToken, KeyRefreshToken, KeyRole, KeyEmail, KeyName, KeyID}

// Store is a small durable key/value map scoped to one profile.
type Store interface {
	// Get returns the value for key or errs.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes key.
	Set(ctx context.Context, key, value string) error
	// SetMany writes all pairs at once.
	SetMany(ctx context.Context, kv map[string]string) error
	// Delete removes keys; absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

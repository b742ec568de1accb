// Package limiter throttles repeated failed sign-ins from this client.
package limiter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Limiter controls sign-in attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether a sign-in for account is currently allowed and, if not, how long to wait.
	Allow(ctx context.Context, account string) (bool, time.Duration, error)
	// Success resets counters after a successful sign-in.
	Success(ctx context.Context, account string) error
	// Failure records a failed attempt; it reports whether the account is now blocked and for how long.
	Failure(ctx context.Context, account string) (bool, time.Duration, error)
}

// HashAccount returns a stable key for an account so raw emails are not stored.
func HashAccount(account string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(account))))
	return hex.EncodeToString(h[:])
}

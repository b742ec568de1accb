package limiter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/and161185/libdesk/internal/errs"
	"github.com/and161185/libdesk/internal/store"
)

// Store is a Limiter kept in a store.Store, with a sliding failure window and lockout.
type Store struct {
	st       store.Store
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

type record struct {
	Fails        int   `json:"fails"`
	UpdatedAt    int64 `json:"updated_at"`
	BlockedUntil int64 `json:"blocked_until"`
}

// NewStore constructs a store-backed limiter.
func NewStore(st store.Store, window time.Duration, maxFails int, blockFor time.Duration) *Store {
	return &Store{st: st, window: window, maxFails: maxFails, blockFor: blockFor, now: time.Now}
}

func key(account string) string { return "signin:" + HashAccount(account) }

func (l *Store) load(ctx context.Context, account string) (record, error) {
	var r record
	raw, err := l.st.Get(ctx, key(account))
	if errors.Is(err, errs.ErrNotFound) {
		return r, nil
	}
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		// a corrupt counter must not lock anyone out
		return record{}, nil
	}
	return r, nil
}

// Allow reports whether sign-in is currently allowed and a retry-after duration.
func (l *Store) Allow(ctx context.Context, account string) (bool, time.Duration, error) {
	r, err := l.load(ctx, account)
	if err != nil {
		return false, 0, err
	}
	until := time.Unix(r.BlockedUntil, 0)
	if now := l.now(); r.BlockedUntil > 0 && until.After(now) {
		return false, until.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for account.
func (l *Store) Success(ctx context.Context, account string) error {
	return l.st.Delete(ctx, key(account))
}

// Failure records a failed attempt; fails older than the window start a new count.
func (l *Store) Failure(ctx context.Context, account string) (bool, time.Duration, error) {
	r, err := l.load(ctx, account)
	if err != nil {
		return false, 0, err
	}
	now := l.now()
	if r.UpdatedAt == 0 || now.Sub(time.Unix(r.UpdatedAt, 0)) > l.window {
		r.Fails = 1
	} else {
		r.Fails++
	}
	r.UpdatedAt = now.Unix()

	blocked := r.Fails >= l.maxFails
	if blocked {
		r.BlockedUntil = now.Add(l.blockFor).Unix()
		r.Fails = 0
	}
	b, err := json.Marshal(r)
	if err != nil {
		return false, 0, err
	}
	if err := l.st.Set(ctx, key(account), string(b)); err != nil {
		return false, 0, err
	}
	if blocked {
		return true, l.blockFor, nil
	}
	return false, 0, nil
}

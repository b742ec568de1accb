package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/libdesk/internal/errs"
)

// Store keeps session keys in session_kv rows scoped by profile.
type Store struct {
	db      *DB
	profile string
}

// NewStore returns a store for profile.
func NewStore(db *DB, profile string) *Store { return &Store{db: db, profile: profile} }

// Get selects one key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM session_kv WHERE profile=$1 AND key=$2`
	var v string
	if err := s.db.Pool.QueryRow(ctx, q, s.profile, key).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

// Set upserts one key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

// SetMany upserts all pairs in a single transaction, in key order.
func (s *Store) SetMany(ctx context.Context, kv map[string]string) (err error) {
	if len(kv) == 0 {
		return nil
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const q = `
INSERT INTO session_kv (profile, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	for _, k := range keys {
		if _, err = tx.Exec(ctx, q, s.profile, k, kv[k]); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes keys; absent keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const q = `DELETE FROM session_kv WHERE profile=$1 AND key = ANY($2)`
	_, err := s.db.Pool.Exec(ctx, q, s.profile, keys)
	return err
}

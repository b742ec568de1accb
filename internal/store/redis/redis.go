// Package redis implements store.Store as one Redis hash per profile.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/and161185/libdesk/internal/errs"
)

// Store keeps a profile in the hash libdesk:session:<profile>.
type Store struct {
	client *goredis.Client
	key    string
	ttl    time.Duration
}

// New returns a store for profile. A positive ttl expires the whole hash after the last write.
func New(client *goredis.Client, profile string, ttl time.Duration) *Store {
	return &Store{client: client, key: sessionKey(profile), ttl: ttl}
}

func sessionKey(profile string) string { return fmt.Sprintf("libdesk:session:%s", profile) }

// Get returns the stored value or errs.ErrNotFound.
func (s *Store) Get(ctx context.Context, field string) (string, error) {
	v, err := s.client.HGet(ctx, s.key, field).Result()
	if errors.Is(err, goredis.Nil) {
		return "", errs.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set writes a single field.
func (s *Store) Set(ctx context.Context, field, value string) error {
	return s.SetMany(ctx, map[string]string{field: value})
}

// SetMany writes all pairs in one transaction and refreshes the TTL.
func (s *Store) SetMany(ctx context.Context, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	args := make([]any, 0, 2*len(kv))
	for k, v := range kv {
		args = append(args, k, v)
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key, args...)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Delete removes fields; absent fields are ignored.
func (s *Store) Delete(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.client.HDel(ctx, s.key, fields...).Err()
}

// Package file implements store.Store as a JSON document in the user's config directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/libdesk/internal/crypto/sealbox"
	"github.com/and161185/libdesk/internal/errs"
)

// Store keeps one profile per file: <dir>/<profile>.json, mode 0600.
type Store struct {
	mu         sync.Mutex
	path       string
	profile    string
	passphrase []byte
}

// New returns a store for profile under dir. A non-empty passphrase seals the document at rest.
func New(dir, profile, passphrase string) *Store {
	s := &Store{path: filepath.Join(dir, profile+".json"), profile: profile}
	if passphrase != "" {
		s.passphrase = []byte(passphrase)
	}
	return s
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if sealbox.IsSealed(b) {
		if s.passphrase == nil {
			return nil, errors.New("session file is sealed; set a passphrase")
		}
		if b, err = sealbox.Open(s.passphrase, s.profile, b); err != nil {
			return nil, err
		}
	}
	m := map[string]string{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return m, nil
}

func (s *Store) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if s.passphrase != nil {
		if b, err = sealbox.Seal(s.passphrase, s.profile, b); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Get returns the stored value or errs.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := m[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// Set writes a single key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

// SetMany writes all pairs in one file replacement.
func (s *Store) SetMany(_ context.Context, kv map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	for k, v := range kv {
		m[k] = v
	}
	return s.save(m)
}

// Delete removes keys. The file is removed once it holds nothing.
func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(m, k)
	}
	if len(m) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return s.save(m)
}

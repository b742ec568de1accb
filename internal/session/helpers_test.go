package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/libdesk/internal/errs"
	"github.com/and161185/libdesk/internal/model"
	"github.com/and161185/libdesk/internal/store"
)

type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore { return &memStore{m: map[string]string{}} }

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memStore) SetMany(_ context.Context, kv map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range kv {
		s.m[k] = v
	}
	return nil
}

func (s *memStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}

func (s *memStore) snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.m))
	for k, v := range s.m {
		out[k] = v
	}
	return out
}

type fakeAuth struct {
	verify   func(token string) (bool, error)
	refresh  func(rt string) (string, error)
	verifies atomic.Int32
	refreshs atomic.Int32
}

func (f *fakeAuth) Login(context.Context, string, string) (model.Tokens, model.Identity, error) {
	return model.Tokens{}, model.Identity{}, errs.ErrUnauthorized
}

func (f *fakeAuth) Verify(_ context.Context, token string) (bool, error) {
	f.verifies.Add(1)
	if f.verify == nil {
		return true, nil
	}
	return f.verify(token)
}

func (f *fakeAuth) Refresh(_ context.Context, rt string) (string, error) {
	f.refreshs.Add(1)
	if f.refresh == nil {
		return "", errs.ErrUnauthorized
	}
	return f.refresh(rt)
}

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

var testIdentity = model.Identity{UserID: "u-1", Role: model.RoleLibrarian, Email: "siti@lib.my", Name: "Siti"}

// recorder collects bus events.
type recorder struct {
	mu       sync.Mutex
	states   []State
	routes   []string
	warnings []time.Duration
}

func (r *recorder) subscribe(t *testing.T, m *Manager) {
	t.Helper()
	require.NoError(t, m.Bus().Subscribe(TopicState, func(s State) {
		r.mu.Lock()
		r.states = append(r.states, s)
		r.mu.Unlock()
	}))
	require.NoError(t, m.Bus().Subscribe(TopicNavigate, func(route string) {
		r.mu.Lock()
		r.routes = append(r.routes, route)
		r.mu.Unlock()
	}))
	require.NoError(t, m.Bus().Subscribe(TopicWarning, func(left time.Duration) {
		r.mu.Lock()
		r.warnings = append(r.warnings, left)
		r.mu.Unlock()
	}))
}

func (r *recorder) snapshot() ([]State, []string, []time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...), append([]string(nil), r.routes...), append([]time.Duration(nil), r.warnings...)
}

func newManager(t *testing.T, st store.Store, auth Authenticator, opts Options) (*Manager, *recorder) {
	t.Helper()
	if opts.CheckInterval == 0 {
		opts.CheckInterval = time.Hour
	}
	opts.Logger = zaptest.NewLogger(t)
	m := New(st, auth, opts)
	t.Cleanup(m.Close)
	rec := &recorder{}
	rec.subscribe(t, m)
	return m, rec
}

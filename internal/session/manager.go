// Package session owns the client's authentication lifecycle: persisted tokens, verification on load,
// periodic expiry checks, the expiry warning with its inactivity timeout, refresh and logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/and161185/libdesk/internal/errs"
	"github.com/and161185/libdesk/internal/limiter"
	"github.com/and161185/libdesk/internal/model"
	"github.com/and161185/libdesk/internal/store"
)

// Authenticator is the slice of the backend the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (model.Tokens, model.Identity, error)
	Verify(ctx context.Context, token string) (bool, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Options tunes the monitor. Zero durations take the defaults.
type Options struct {
	CheckInterval     time.Duration
	WarnThreshold     time.Duration
	InactivityTimeout time.Duration

	// Limiter throttles failed sign-ins; nil disables it.
	Limiter limiter.Limiter

	Bus    evbus.Bus
	Logger *zap.Logger
	Now    func() time.Time
}

const (
	DefaultCheckInterval     = time.Minute
	DefaultWarnThreshold     = 5 * time.Minute
	DefaultInactivityTimeout = 30 * time.Second
)

type refreshCall struct {
	done chan struct{}
	err  error
}

// Manager is safe for concurrent use. Network calls are made without holding its lock,
// and their results are dropped if the session generation moved on meanwhile.
type Manager struct {
	store store.Store
	auth  Authenticator
	lim   limiter.Limiter
	bus   evbus.Bus
	log   *zap.Logger
	now   func() time.Time
	warn  time.Duration

	check *Periodic
	idle  *OneShot

	mu       sync.Mutex
	state    State
	identity model.Identity
	access   string
	gen      uint64
	inflight *refreshCall
}

func New(st store.Store, auth Authenticator, opts Options) *Manager {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.WarnThreshold <= 0 {
		opts.WarnThreshold = DefaultWarnThreshold
	}
	if opts.InactivityTimeout <= 0 {
		opts.InactivityTimeout = DefaultInactivityTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Bus == nil {
		opts.Bus = evbus.New()
	}
	m := &Manager{
		store: st,
		auth:  auth,
		lim:   opts.Limiter,
		bus:   opts.Bus,
		log:   opts.Logger,
		now:   opts.Now,
		warn:  opts.WarnThreshold,
	}
	m.check = NewPeriodic(opts.CheckInterval, func() { m.Check(context.Background()) })
	m.idle = NewOneShot(opts.InactivityTimeout, m.onIdle)
	return m
}

// Bus returns the bus events are published on.
func (m *Manager) Bus() evbus.Bus { return m.bus }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether the session may call the backend.
func (m *Manager) IsAuthenticated() bool { return m.State().Live() }

func (m *Manager) Identity() model.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Generation increments every time a session starts or ends.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// AccessToken returns the current bearer token, empty when signed out.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

// Rejected is called when the backend refused the access token: one refresh, then logout on failure.
func (m *Manager) Rejected(ctx context.Context) {
	if !m.State().Live() {
		return
	}
	if err := m.Refresh(ctx); err != nil {
		m.log.Warn("session rejected", zap.Error(err))
	}
}

// Load restores a persisted session. Without a stored access token the session stays Unauthenticated.
func (m *Manager) Load(ctx context.Context) error {
	kv := make(map[string]string, len(store.SessionKeys))
	for _, k := range store.SessionKeys {
		v, err := m.store.Get(ctx, k)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		kv[k] = v
	}

	m.mu.Lock()
	if kv[store.KeyToken] == "" {
		m.mu.Unlock()
		return nil
	}
	role, _ := model.ParseRole(kv[store.KeyRole])
	m.identity = model.Identity{
		UserID: kv[store.KeyID],
		Role:   role,
		Email:  kv[store.KeyEmail],
		Name:   kv[store.KeyName],
	}
	m.access = kv[store.KeyToken]
	m.mu.Unlock()

	return m.Verify(ctx)
}

// SignIn authenticates against the backend and starts a session. Nothing is stored on failure.
func (m *Manager) SignIn(ctx context.Context, email, password string) (model.Identity, error) {
	if m.lim != nil {
		ok, wait, err := m.lim.Allow(ctx, email)
		if err != nil {
			m.log.Warn("sign-in limiter", zap.Error(err))
		} else if !ok {
			return model.Identity{}, fmt.Errorf("%w: try again in %s", errs.ErrTooManyAttempts, wait.Round(time.Second))
		}
	}

	tokens, id, err := m.auth.Login(ctx, email, password)
	if err != nil {
		if m.lim != nil && errors.Is(err, errs.ErrUnauthorized) {
			if blocked, d, lerr := m.lim.Failure(ctx, email); lerr != nil {
				m.log.Warn("sign-in limiter", zap.Error(lerr))
			} else if blocked {
				m.log.Info("sign-in locked", zap.Duration("for", d))
			}
		}
		return model.Identity{}, err
	}
	if err := m.Login(ctx, tokens, id); err != nil {
		return model.Identity{}, err
	}
	if m.lim != nil {
		if err := m.lim.Success(ctx, email); err != nil {
			m.log.Warn("sign-in limiter", zap.Error(err))
		}
	}
	return id, nil
}

// Login persists a freshly issued session and navigates to the dashboard.
func (m *Manager) Login(ctx context.Context, tokens model.Tokens, id model.Identity) error {
	if tokens.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", errs.ErrMalformed)
	}
	m.mu.Lock()
	err := m.store.SetMany(ctx, map[string]string{
		store.KeyToken:        tokens.AccessToken,
		store.KeyRefreshToken: tokens.RefreshToken,
		store.KeyRole:         string(id.Role),
		store.KeyEmail:        id.Email,
		store.KeyName:         id.Name,
		store.KeyID:           id.UserID,
	})
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persist session: %w", err)
	}
	m.gen++
	m.identity = id
	m.access = tokens.AccessToken
	m.idle.Disarm()
	m.check.Arm()
	evs := m.setStateLocked(Authenticated)
	m.mu.Unlock()

	m.log.Info("signed in", zap.String("user_id", id.UserID), zap.String("role", string(id.Role)))
	publish(m.bus, append(evs, navigateEvent(RouteDashboard)))
	return nil
}

// Logout forgets the session everywhere and navigates to the login page.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.gen++
	m.check.Disarm()
	m.idle.Disarm()
	m.access = ""
	m.identity = model.Identity{}
	err := m.store.Delete(ctx, store.SessionKeys...)
	evs := m.setStateLocked(Unauthenticated)
	m.mu.Unlock()

	publish(m.bus, append(evs, navigateEvent(RouteLogin)))
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Verify asks the backend whether the current access token is accepted.
// Any failure gets exactly one refresh attempt.
func (m *Manager) Verify(ctx context.Context) error {
	m.mu.Lock()
	token := m.access
	if token == "" {
		m.mu.Unlock()
		return errs.ErrNotAuthenticated
	}
	g := m.gen
	var evs []event
	if !m.state.Live() {
		evs = m.setStateLocked(Verifying)
	}
	m.mu.Unlock()
	publish(m.bus, evs)

	ok, err := m.auth.Verify(ctx, token)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	m.mu.Lock()
	if m.gen != g {
		m.mu.Unlock()
		return errs.ErrSessionEnded
	}
	if err == nil && ok {
		if exp, has, derr := ExpiresAt(token); derr != nil || (has && !exp.After(m.now())) {
			m.mu.Unlock()
			m.log.Info("verified token already expired")
			return m.Refresh(ctx)
		}
		if m.state != ExpiringSoon {
			evs = m.setStateLocked(Authenticated)
		}
		m.check.Arm()
		m.mu.Unlock()
		publish(m.bus, evs)
		return nil
	}
	m.mu.Unlock()

	if err != nil {
		m.log.Warn("verify failed", zap.Error(err))
	} else {
		m.log.Info("access token no longer valid")
	}
	return m.Refresh(ctx)
}

// Refresh exchanges the stored refresh token for a new access token. Concurrent callers share one exchange.
// Without a refresh token, or when the exchange fails, the session is logged out.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if c := m.inflight; c != nil {
		m.mu.Unlock()
		select {
		case <-c.done:
			return c.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c := &refreshCall{done: make(chan struct{})}
	m.inflight = c
	g := m.gen
	m.mu.Unlock()

	c.err = m.refresh(ctx, g)

	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()
	close(c.done)
	return c.err
}

func (m *Manager) refresh(ctx context.Context, g uint64) error {
	rt, err := m.store.Get(ctx, store.KeyRefreshToken)
	if errors.Is(err, errs.ErrNotFound) || (err == nil && rt == "") {
		m.log.Info("no refresh token, signing out")
		if lerr := m.Logout(ctx); lerr != nil {
			m.log.Warn("logout", zap.Error(lerr))
		}
		return errs.ErrNoRefreshToken
	}
	if err != nil {
		m.log.Warn("read refresh token, signing out", zap.Error(err))
		if lerr := m.Logout(ctx); lerr != nil {
			m.log.Warn("logout", zap.Error(lerr))
		}
		return fmt.Errorf("read refresh token: %w", err)
	}

	token, err := m.auth.Refresh(ctx, rt)

	m.mu.Lock()
	if m.gen != g {
		m.mu.Unlock()
		return errs.ErrSessionEnded
	}
	if err != nil {
		evs := m.setStateLocked(RefreshFailed)
		m.mu.Unlock()
		publish(m.bus, evs)
		m.log.Warn("refresh failed, signing out", zap.Error(err))
		if lerr := m.Logout(ctx); lerr != nil {
			m.log.Warn("logout", zap.Error(lerr))
		}
		return fmt.Errorf("refresh: %w", err)
	}
	if err := m.store.Set(ctx, store.KeyToken, token); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persist access token: %w", err)
	}
	m.access = token
	m.idle.Disarm()
	m.check.Arm()
	evs := m.setStateLocked(Authenticated)
	m.mu.Unlock()

	m.log.Debug("access token refreshed")
	publish(m.bus, evs)
	return nil
}

// Check inspects the access token's exp claim. An expired token goes down the refresh path;
// one expiring within the warn threshold moves the session to ExpiringSoon and starts the inactivity timer.
func (m *Manager) Check(ctx context.Context) {
	m.mu.Lock()
	if !m.state.Live() {
		m.mu.Unlock()
		return
	}
	token := m.access
	exp, ok, err := ExpiresAt(token)
	if err != nil {
		m.mu.Unlock()
		m.log.Warn("undecodable access token", zap.Error(err))
		m.refreshQuietly(ctx)
		return
	}
	if !ok {
		m.mu.Unlock()
		return
	}
	left := exp.Sub(m.now())
	if left <= 0 {
		m.mu.Unlock()
		m.log.Info("access token expired")
		m.refreshQuietly(ctx)
		return
	}
	if left >= m.warn || m.state != Authenticated {
		m.mu.Unlock()
		return
	}
	evs := m.setStateLocked(ExpiringSoon)
	m.idle.Arm()
	m.mu.Unlock()

	m.log.Info("access token expiring soon", zap.Duration("left", left))
	publish(m.bus, append(evs, warningEvent(left)))
}

// Activity records user input. While the expiry warning is up it refreshes the session.
func (m *Manager) Activity(ctx context.Context) error {
	if m.State() != ExpiringSoon {
		return nil
	}
	return m.Refresh(ctx)
}

// Close stops both timers. The persisted session is left alone.
func (m *Manager) Close() {
	m.check.Disarm()
	m.idle.Disarm()
}

func (m *Manager) onIdle() {
	if m.State() != ExpiringSoon {
		return
	}
	m.log.Info("inactive while expiring, signing out")
	if err := m.Logout(context.Background()); err != nil {
		m.log.Warn("logout", zap.Error(err))
	}
}

func (m *Manager) refreshQuietly(ctx context.Context) {
	if err := m.Refresh(ctx); err != nil {
		m.log.Warn("refresh", zap.Error(err))
	}
}

func (m *Manager) setStateLocked(s State) []event {
	if m.state == s {
		return nil
	}
	m.state = s
	return []event{stateEvent(s)}
}

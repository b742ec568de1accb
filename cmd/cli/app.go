package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/libdesk/internal/access"
	"github.com/and161185/libdesk/internal/api"
	"github.com/and161185/libdesk/internal/circulation"
	"github.com/and161185/libdesk/internal/config"
	"github.com/and161185/libdesk/internal/errs"
	"github.com/and161185/libdesk/internal/limiter"
	"github.com/and161185/libdesk/internal/logger"
	"github.com/and161185/libdesk/internal/model"
	"github.com/and161185/libdesk/internal/session"
)

// globalFlags override the loaded configuration.
type globalFlags struct {
	configPath string
	apiURL     string
	profile    string
	driver     string
	logLevel   string
	caCert     string
	insecure   bool
	json       bool
}

type app struct {
	stdin  io.Reader
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	flags  globalFlags

	cfg     config.Config
	log     *zap.Logger
	client  *api.Client
	sess    *session.Manager
	closers []func()
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, in: bufio.NewReader(stdin), out: stdout, errOut: stderr}
}

// setup wires config, logger, store, API client and session for the command about to run.
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.log == nil {
		if a.log, err = logger.New(cfg.Log.Level); err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = a.log.Sync() })
	}

	st, closeStore, err := openStore(ctx, cfg.Store, a.log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	a.closers = append(a.closers, closeStore)

	tlsCfg, err := loadTLS(cfg.API.CACert, cfg.API.Insecure)
	if err != nil {
		return err
	}
	hc := &http.Client{Timeout: cfg.API.Timeout}
	if tlsCfg != nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = tlsCfg
		hc.Transport = tr
	}
	if a.client, err = api.New(cfg.API.BaseURL, hc, a.log); err != nil {
		return err
	}

	a.sess = session.New(st.session, a.client, session.Options{
		CheckInterval:     cfg.Session.CheckInterval,
		WarnThreshold:     cfg.Session.WarnThreshold,
		InactivityTimeout: cfg.Session.InactivityTimeout,
		Limiter:           limiter.NewStore(st.throttle, throttleWindow, throttleMaxFails, throttleBlock),
		Logger:            a.log,
	})
	a.client.SetCredentials(a.sess)
	a.closers = append(a.closers, a.sess.Close)
	return nil
}

func (a *app) applyFlags(cfg *config.Config) {
	if a.flags.apiURL != "" {
		cfg.API.BaseURL = a.flags.apiURL
	}
	if a.flags.profile != "" {
		cfg.Store.Profile = a.flags.profile
	}
	if a.flags.driver != "" {
		cfg.Store.Driver = a.flags.driver
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	if a.flags.caCert != "" {
		cfg.API.CACert = a.flags.caCert
	}
	if a.flags.insecure {
		cfg.API.Insecure = true
	}
}

// requireSession restores the stored session and fails unless it is live.
func (a *app) requireSession(ctx context.Context) (model.Identity, access.Capabilities, error) {
	if err := a.sess.Load(ctx); err != nil {
		return model.Identity{}, access.Capabilities{}, fmt.Errorf("%w: %v; run `lib login`", errs.ErrNotAuthenticated, err)
	}
	if !a.sess.IsAuthenticated() {
		return model.Identity{}, access.Capabilities{}, fmt.Errorf("%w: run `lib login`", errs.ErrNotAuthenticated)
	}
	id := a.sess.Identity()
	return id, access.Resolve(id.Role), nil
}

func (a *app) workflow(assumeYes bool) *circulation.Workflow {
	return circulation.NewWorkflow(a.client, a.confirmer(assumeYes), a.sess, a.log)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func denied(what string) error {
	return fmt.Errorf("your role may not %s", what)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/meddesk/meddesk/internal/api"
	"github.com/meddesk/meddesk/internal/auth"
	"github.com/meddesk/meddesk/internal/config"
	"github.com/meddesk/meddesk/internal/prefs"
	"github.com/meddesk/meddesk/internal/session"
	"github.com/meddesk/meddesk/internal/state"
	"github.com/meddesk/meddesk/internal/storage"
	"github.com/meddesk/meddesk/internal/ui"
)

// App is the wired set of collaborators every front end shares.
type App struct {
	Config  config.Config
	Tokens  *auth.TokenStore
	Local   *storage.Local
	Client  *api.Client
	Session *session.Manager
	Logger  *slog.Logger

	closers []io.Closer
}

// New opens local storage and the configured token backend, then builds the
// API client and session on top of them.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base, err := api.ParseBaseURL(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	local, err := storage.OpenLocal(cfg.LocalPath())
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}

	a := &App{Config: cfg, Local: local, Logger: logger}
	kv, jar, err := a.openTokenBackend(ctx, base.String())
	if err != nil {
		return nil, err
	}

	a.Tokens = auth.NewTokenStore(kv,
		auth.WithTTL(cfg.TokenTTL),
		auth.WithJWTExpiry(cfg.JWTExpiry),
		auth.WithLogger(logger),
	)

	clientOpts := []api.Option{
		api.WithTimeout(cfg.RequestTimeout),
		api.WithAuthPaths(cfg.LoginPath, cfg.InfoPath),
		api.WithTokenSource(a.Tokens.TokenSource(ctx)),
	}
	if jar != nil {
		clientOpts = append(clientOpts, api.WithCookieJar(jar))
	}
	a.Client, err = api.NewClient(base.String(), clientOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	sess := session.New(ctx, a.Tokens, local, session.WithStateLogger(logger))
	a.Session = session.NewManager(sess, a.Tokens, a.Client, session.WithLogger(logger))
	return a, nil
}

// openTokenBackend returns the KV the token lives in and, for the cookie
// backend, the jar the HTTP client should share.
func (a *App) openTokenBackend(ctx context.Context, origin string) (storage.KV, *storage.CookieJar, error) {
	switch a.Config.TokenBackend {
	case config.BackendFile:
		return a.Local, nil, nil
	case config.BackendRedis:
		dialCtx, cancel := context.WithTimeout(ctx, a.Config.RequestTimeout)
		defer cancel()
		rdb, err := storage.DialRedis(dialCtx, a.Config.RedisAddr, a.Config.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open token backend: %w", err)
		}
		a.closers = append(a.closers, rdb)
		return rdb, nil, nil
	case config.BackendCookie, "":
		jar, err := storage.OpenCookieJar(a.Config.CookiePath(), origin)
		if err != nil {
			return nil, nil, fmt.Errorf("open token backend: %w", err)
		}
		return jar, jar, nil
	default:
		return nil, nil, fmt.Errorf("open token backend: unknown backend %q", a.Config.TokenBackend)
	}
}

// Close releases backend connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// TUIOptions configure RunTUI.
type TUIOptions struct {
	PrefsPath string // empty uses default ~/.config/meddesk/prefs.toml
	PollEvery time.Duration
}

// RunTUI starts the patient poller and the terminal UI, blocking until the
// user quits or ctx is cancelled.
func (a *App) RunTUI(ctx context.Context, opts TUIOptions) error {
	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		a.Logger.Warn("load prefs failed, using defaults", "error", err)
	}

	store := &state.Store{}
	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}

	doctor := func() (api.ID, bool) {
		if _, ok := a.Session.State().Token(); !ok {
			return "", false
		}
		return a.Session.State().DoctorID()
	}

	// Do initial refresh to populate store before UI starts
	poller := NewPoller(store, a.Client, doctor, a.Logger)
	poller.Refresh(ctx)
	poller.Start(ctx, interval)

	return ui.Run(ui.Options{
		Context:   ctx,
		Session:   a.Session,
		Patients:  a.Client,
		Diagnoses: a.Client,
		Store:     store,
		Refresh:   poller.Refresh,
		PollTick:  interval,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Logger:    a.Logger,
	})
}

// Package app assembles a ready-to-use ems client from a config.Config:
// telemetry, the backend client, the twelve feature stores, session storage
// and health checks.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/auth"
	"github.com/jonwraymond/ems/cache"
	"github.com/jonwraymond/ems/config"
	"github.com/jonwraymond/ems/features"
	"github.com/jonwraymond/ems/health"
	"github.com/jonwraymond/ems/observe"
)

// ErrNotWatchable indicates the session store has no file to watch.
var ErrNotWatchable = errors.New("app: session store is not file backed")

// App is an assembled client.
type App struct {
	Config   config.Config
	Observer observe.Observer
	Logger   observe.Logger
	Client   *api.Client
	Root     *features.Root
	Sessions auth.SessionStore
	Health   *health.Aggregator

	mu    sync.Mutex
	token string

	stopWatch func()
	watching  chan struct{}
}

// Option adjusts assembly.
type Option func(*options)

type options struct {
	httpClient *http.Client
	sessions   auth.SessionStore
}

// WithHTTPClient replaces the transport used for backend calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithSessionStore replaces the store selected by config.
func WithSessionStore(s auth.SessionStore) Option {
	return func(o *options) { o.sessions = s }
}

// New assembles an App. A 401 from the backend logs the user out.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("app: observer: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("app: middleware: %w", err)
	}

	a := &App{Config: cfg, Observer: obs, Logger: obs.Logger(), Sessions: o.sessions}
	if a.Sessions == nil {
		a.Sessions = sessionStore(cfg.Session)
	}

	a.Client, err = api.New(api.Config{
		BaseURL:       cfg.API.BaseURL,
		TenantHost:    cfg.API.TenantHost,
		DataPath:      cfg.API.DataPath,
		Timeout:       time.Duration(cfg.API.Timeout),
		MaxConcurrent: cfg.API.MaxConcurrent,
		HTTPClient:    o.httpClient,
		Logger:        a.Logger,
		OnUnauthorized: func(ctx context.Context) {
			if err := a.Logout(ctx); err != nil {
				a.Logger.Warn(ctx, "logout after 401", observe.Field{Key: "error", Value: err.Error()})
			}
		},
	})
	if err != nil {
		return nil, err
	}

	a.Root, err = features.NewRoot(a.Client, features.Options{
		Policy:     cfg.Cache.Default.Policy(),
		Policies:   cfg.Cache.Policies(),
		Middleware: []cache.Middleware{features.Instrument(mw)},
		Sessions:   a.Sessions,
		Logger:     a.Logger,
	})
	if err != nil {
		return nil, err
	}

	a.Health = health.NewAggregator(time.Duration(cfg.Health.Timeout))
	a.Health.Register(
		health.NewBackendChecker(a.Client, cfg.Health.Path),
		health.NewSessionChecker(a.Sessions),
		health.NewCacheChecker(a.Root),
	)

	if cfg.Session.Watch {
		if err := a.startWatch(ctx); err != nil {
			_ = obs.Shutdown(ctx)
			return nil, err
		}
	}
	return a, nil
}

// startWatch runs WatchSession in the background until Close.
func (a *App) startWatch(ctx context.Context) error {
	if _, ok := a.Sessions.(*auth.FileSessionStore); !ok {
		return ErrNotWatchable
	}
	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopWatch = cancel
	a.watching = make(chan struct{})
	go func() {
		defer close(a.watching)
		if err := a.WatchSession(wctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Warn(wctx, "session watch stopped", observe.Field{Key: "error", Value: err.Error()})
		}
	}()
	return nil
}

func sessionStore(cfg config.SessionConfig) auth.SessionStore {
	if cfg.Path == "" {
		return auth.NewMemorySessionStore()
	}
	return auth.NewFileSessionStore(cfg.Path)
}

// Context restores the persisted session and attaches it to ctx. An
// expired session is cleared and ctx carries the signed-out session.
func (a *App) Context(ctx context.Context) (context.Context, error) {
	s, err := auth.Restore(a.Sessions)
	if err != nil {
		return ctx, err
	}
	a.remember(s.Token)
	return auth.WithSession(ctx, s), nil
}

// Login persists s and returns ctx carrying it. Cached data from a previous
// user is dropped.
func (a *App) Login(ctx context.Context, s auth.Session) (context.Context, error) {
	if !s.HasToken() {
		return ctx, auth.ErrNoSession
	}
	if err := a.Sessions.Save(s); err != nil {
		return ctx, err
	}
	a.Root.ClearAll()
	a.remember(s.Token)
	a.Logger.Info(ctx, "signed in", observe.Field{Key: "role", Value: string(s.Role)})
	return auth.WithSession(ctx, s), nil
}

// Logout clears every feature store and the persisted session.
func (a *App) Logout(ctx context.Context) error {
	a.remember("")
	if err := a.Root.Logout(ctx); err != nil {
		return err
	}
	a.Logger.Info(ctx, "signed out")
	return nil
}

// WatchSession follows the session file and drops cached data when another
// process signs out or switches user. It blocks until ctx is done.
func (a *App) WatchSession(ctx context.Context) error {
	store, ok := a.Sessions.(*auth.FileSessionStore)
	if !ok {
		return ErrNotWatchable
	}
	if s, err := store.Load(); err == nil {
		a.remember(s.Token)
	}
	return store.Watch(ctx, func(s auth.Session, err error) {
		if err != nil {
			a.Logger.Warn(ctx, "session watch", observe.Field{Key: "error", Value: err.Error()})
			return
		}
		if a.remember(s.Token) {
			a.Root.ClearAll()
			a.Logger.Info(ctx, "session changed externally", observe.Field{Key: "signed_in", Value: s.HasToken()})
		}
	})
}

// remember records token and reports whether it differs from the last one.
func (a *App) remember(token string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	changed := a.token != token
	a.token = token
	return changed
}

// HealthHandler serves the health report as JSON.
func (a *App) HealthHandler() http.Handler {
	return health.Handler(a.Health)
}

// Close stops the session watch, if running, and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	if a.stopWatch != nil {
		a.stopWatch()
		<-a.watching
	}
	return a.Observer.Shutdown(ctx)
}

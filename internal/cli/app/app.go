// Package app is the composition root of the console: it builds the session
// store and the API client, hands the store to the client as its token source,
// and turns the client's "unauthorized" event into logout plus navigation.
package app

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"BookmarkAdmin/internal/cli/api"
	"BookmarkAdmin/internal/cli/bootstrap"
	"BookmarkAdmin/internal/cli/repo"
	"BookmarkAdmin/internal/cli/session"
	"BookmarkAdmin/internal/config"
	"BookmarkAdmin/internal/logger"
)

type App struct {
	Config    *config.Config
	Log       *zap.SugaredLogger
	API       *api.Client
	Session   *session.Store
	Navigator Navigator

	closers []func() error
}

// Open builds the application from config: logger, session storage backend,
// API client and session store.
func Open(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	kv, closeKV, err := bootstrap.OpenSessionStore(ctx, cfg)
	if err != nil {
		logger.Sync(log)
		return nil, err
	}
	a, err := Wire(ctx, cfg, kv, NewConsoleNavigator(out), log)
	if err != nil {
		_ = closeKV()
		logger.Sync(log)
		return nil, err
	}
	a.closers = append(a.closers, closeKV, func() error { logger.Sync(log); return nil })
	return a, nil
}

// Wire connects already constructed parts. Tests use it with an in-memory store
// and a recording navigator.
func Wire(ctx context.Context, cfg *config.Config, kv repo.KVStore, nav Navigator, log *zap.SugaredLogger, opts ...api.Option) (*App, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	client := api.New(cfg.APIURL, append([]api.Option{api.WithLogger(log)}, opts...)...)
	store, err := session.New(ctx, kv, client, log)
	if err != nil {
		return nil, err
	}
	client.SetTokenSource(store)

	a := &App{
		Config:    cfg,
		Log:       log,
		API:       client,
		Session:   store,
		Navigator: nav,
	}
	unsubscribe := client.OnUnauthorized(a.handleUnauthorized)
	a.closers = append(a.closers, func() error { unsubscribe(); return nil })
	return a, nil
}

// handleUnauthorized runs synchronously inside the failing request, so the session
// is already cleared when the caller receives the 401 error.
func (a *App) handleUnauthorized(err error) {
	a.Log.Debugw("unauthorized", "error", err)
	ctx, cancel := context.WithTimeout(context.Background(), config.RequestTimeout)
	defer cancel()
	a.Session.Logout(ctx)
	if a.Navigator != nil {
		a.Navigator.Navigate(LoginPath)
	}
}

// Close releases the storage backend and flushes the logger.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

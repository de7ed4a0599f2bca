package app

import (
	"context"
	"fmt"
	"io"

	"github.com/moneta-finance/moneta/internal/config"
	"github.com/moneta-finance/moneta/internal/event_bus"
	"github.com/moneta-finance/moneta/internal/utils"
	"github.com/moneta-finance/moneta/pkg/analytics"
	"github.com/moneta-finance/moneta/pkg/api"
	"github.com/moneta-finance/moneta/pkg/lifecycle"
	"github.com/moneta-finance/moneta/pkg/session"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services of the client application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	SessionStore session.Store
	Session      *session.Session

	Client     *api.ClientImpl
	Controller *lifecycle.Controller

	AnalyticsService  analytics.Service
	CsvReportRenderer *analytics.CsvReportRendererImpl

	closers []io.Closer
}

// BuildDependencies initializes and wires all application services.
func BuildDependencies(ctx context.Context, cfg config.Application, clock utils.Clock) (*Dependencies, error) {
	deps := &Dependencies{}
	deps.Clock = clock
	deps.EventBus = event_bus.NewEventBus()

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	deps.SessionStore = store
	if closer, ok := store.(io.Closer); ok {
		deps.closers = append(deps.closers, closer)
	}
	deps.Session = session.New(store)
	if err := deps.Session.Load(ctx); err != nil {
		deps.Close()
		return nil, err
	}

	deps.Client = api.NewClient(cfg.Api.BaseUrl, deps.Session, api.WithTimeout(cfg.Api.Timeout))
	deps.Controller = lifecycle.NewController(deps.Client, deps.Session, deps.EventBus, deps.Clock, cfg.Session.IdleTimeout)
	deps.Client.SetUnauthorizedHandler(deps.Controller.HandleUnauthorized)

	deps.AnalyticsService = analytics.NewService(deps.Client, deps.Clock)
	deps.CsvReportRenderer = analytics.NewCsvReportRenderer()

	return deps, nil
}

func openStore(cfg config.Application) (session.Store, error) {
	if cfg.Session.Store == config.StoreMemory {
		return session.NewMemoryStore(), nil
	}
	path, err := cfg.SessionPath()
	if err != nil {
		return nil, err
	}
	log.Debugf("Using %s session store at %s", cfg.Session.Store, path)
	switch cfg.Session.Store {
	case config.StoreFile:
		store, err := session.NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreSQLite:
		store, err := session.OpenSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
}

// Close stops the controller and releases the session store.
func (d *Dependencies) Close() error {
	if d.Controller != nil {
		d.Controller.Close()
	}
	var firstErr error
	for _, closer := range d.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.closers = nil
	return firstErr
}

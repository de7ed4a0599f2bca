package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/moneta-finance/moneta/internal/config"
	"github.com/moneta-finance/moneta/internal/utils"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, services and the interactive shell.
type Application struct {
	cfg   config.Application
	deps  *Dependencies
	shell *Shell
}

// NewApplication constructs the client application, ready to Run().
func NewApplication(ctx context.Context, configPath string, in io.Reader, out io.Writer) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	// LOG_LEVEL set in the environment wins over the configured level
	if os.Getenv("LOG_LEVEL") == "" {
		level, err := log.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
		}
		log.SetLevel(level)
	}
	return newApplication(ctx, cfg, utils.SystemClock{}, in, out)
}

func newApplication(ctx context.Context, cfg config.Application, clock utils.Clock, in io.Reader, out io.Writer) (*Application, error) {
	deps, err := BuildDependencies(ctx, cfg, clock)
	if err != nil {
		return nil, err
	}
	return &Application{
		cfg:   cfg,
		deps:  deps,
		shell: NewShell(deps, in, out),
	}, nil
}

// Run starts an anonymous session and blocks in the shell until the user
// quits or ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if err := a.deps.Close(); err != nil {
			log.Errorf("Failed to close session store: %v", err)
		}
	}()

	if err := a.deps.Controller.Start(ctx); err != nil {
		return err
	}
	log.Infof("Using backend at %s", a.cfg.Api.BaseUrl)
	err := a.shell.Run(ctx)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

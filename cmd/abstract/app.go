// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abstractsdk/abstract/internal/config"
	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/internal/store/badgerstore"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and opens a session on the configured state through it.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		flags  globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
	}

	// globalFlags holds the persistent flags of the root command.
	globalFlags struct {
		configFile string
		stateDir   string
		sender     string
		output     string
		verbose    bool
	}

	// session is an opened state directory: the configuration, the store and
	// the host running on it.
	session struct {
		cfg   *config.Config
		log   *log.Logger
		kv    store.KVStore
		chain *host.Chain
		close func() error
	}
)

// NewApp builds an App, filling missing dependencies with defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.flags.configFile, StateDir: a.flags.stateDir}
}

func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, a.loadOptions())
}

// open loads the configuration and opens the store and host it names.
func (a *App) open(ctx context.Context) (*session, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Log.NewLogger(a.stderr)
	if err != nil {
		return nil, err
	}
	if a.flags.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	s := &session{cfg: cfg, log: logger, close: func() error { return nil }}
	switch cfg.Store.Backend {
	case config.BackendMemory:
		s.kv = store.NewMemory()
	case config.BackendBadger:
		db, err := badgerstore.Open(badgerstore.Options{
			Path:       cfg.Store.Path,
			SyncWrites: cfg.Store.SyncWrites,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		s.kv, s.close = db, db.Close
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidStoreBackend, cfg.Store.Backend)
	}
	s.chain = host.New(s.kv, host.WithLogger(logger))
	logger.Debug("state opened", "backend", cfg.Store.Backend, "path", cfg.Store.Path, "height", s.chain.Height())
	return s, nil
}

// withDeployment opens the state, loads the deployment and runs fn on it.
func (a *App) withDeployment(ctx context.Context, fn func(*session, *deploy.Deployment) error) error {
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil {
			s.log.Error("close store", "err", cerr)
		}
	}()
	d, err := deploy.Load(s.kv, s.chain)
	if err != nil {
		return err
	}
	return fn(s, d)
}

// sender returns the --sender flag, or fallback when it is unset.
func (a *App) sender(fallback types.Addr) (types.Addr, error) {
	addr := fallback
	if a.flags.sender != "" {
		addr = types.Addr(a.flags.sender)
	}
	if err := addr.Validate(); err != nil {
		return "", err
	}
	return addr, nil
}

// account resolves an account id argument together with the address acting
// on it: the --sender flag or the account owner.
func (a *App) account(ctx context.Context, d *deploy.Deployment, arg string) (deploy.Account, error) {
	id, err := types.ParseAccountID(arg)
	if err != nil {
		return deploy.Account{}, err
	}
	acc, err := d.Account(ctx, id)
	if err != nil {
		return deploy.Account{}, err
	}
	if acc.Owner, err = a.sender(acc.Owner); err != nil {
		return deploy.Account{}, err
	}
	return acc, nil
}

var errAlreadyDeployed = errors.New("framework is already deployed")

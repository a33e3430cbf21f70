package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/xvierd/focusflow/internal/adapters/git"
	"github.com/xvierd/focusflow/internal/adapters/storage"
	"github.com/xvierd/focusflow/internal/auth"
	"github.com/xvierd/focusflow/internal/config"
	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/ports"
	"github.com/xvierd/focusflow/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config       *config.Config
	logger       *slog.Logger
	storage      ports.Storage
	gateway      *services.SessionGateway
	worker       *services.PersistenceWorker
	timer        *services.TimerService
	tasks        *services.TaskService
	distractions *services.DistractionService
	analytics    *services.AnalyticsService
	settings     *services.SettingsService
	auth         *auth.Service
	git          *git.Detector

	// user and state are resolved on first use by localState.
	user  *domain.User
	state *services.StateService
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
func initializeServices() error {
	if app.storage != nil {
		return nil
	}

	var err error
	if configPath != "" {
		app.config, err = config.LoadFrom(configPath)
	} else {
		app.config, err = config.Load()
	}
	if err != nil {
		// If config loading fails, use defaults
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		app.config = config.DefaultConfig()
	}

	app.logger, err = app.config.Log.NewLogger(os.Stderr)
	if err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}

	app.storage, err = openStorage(app.config)
	if err != nil {
		return err
	}

	app.gateway = services.NewSessionGateway(app.storage, app.logger)
	app.worker = services.NewPersistenceWorker(app.gateway, app.config.Server.QueueSize, app.logger)
	go func() {
		// Returns after Close once the backlog is applied.
		_ = app.worker.Run(context.Background())
	}()

	app.timer = services.NewTimerService(app.storage, app.gateway, app.worker, app.logger)
	app.tasks = services.NewTaskService(app.storage)
	app.tasks.OnDelete(app.timer.ForgetTask)
	app.distractions = services.NewDistractionService(app.storage, app.gateway)
	app.distractions.UseTimer(app.timer)
	app.analytics = services.NewAnalyticsService(app.gateway)
	app.settings = services.NewSettingsService(app.storage, app.timer)
	app.git = git.NewDetector()

	sealer, err := auth.NewCookieSealer([]byte(app.config.Auth.Secret))
	if err != nil {
		return err
	}
	app.auth = auth.NewService(app.storage.Users(), sealer, auth.Config{
		CookieName:    app.config.Auth.CookieName,
		SessionTTL:    app.config.Auth.SessionTTL.Std(),
		SecureCookies: app.config.Auth.SecureCookies,
		BcryptCost:    app.config.Auth.BcryptCost,
	}, app.logger)

	return nil
}

func openStorage(cfg *config.Config) (ports.Storage, error) {
	if cfg.Storage.Driver == "memory" && dbPath == "" {
		return storage.NewInMemory(), nil
	}

	path := dbPath
	if path == "" {
		path = config.GetDBPath(cfg)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	s, err := storage.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return s, nil
}

// cleanupServices flushes pending session writes and closes storage. It is
// safe to call more than once.
func cleanupServices() error {
	if app.storage == nil {
		return nil
	}

	if app.worker != nil {
		app.worker.Close()
		select {
		case <-app.worker.Done():
		case <-time.After(5 * time.Second):
			app.logger.Warn("persistence backlog not flushed before exit")
		}
	}

	err := app.storage.Close()
	app = appDeps{}
	return err
}

// localState returns the state service for the account the CLI runs as,
// creating the account on first use.
func localState(ctx context.Context) (*services.StateService, error) {
	if app.state != nil {
		return app.state, nil
	}

	user, err := app.auth.EnsureUser(ctx, app.config.CLI.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to load local user: %w", err)
	}
	app.user = user
	app.state = services.NewStateService(user.ID, app.timer, app.tasks, app.distractions, app.analytics)
	return app.state, nil
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

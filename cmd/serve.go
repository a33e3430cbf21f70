package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/focusflow/internal/adapters/httpapi"
	"github.com/xvierd/focusflow/internal/adapters/notification"
)

var serveAddr string

// serveCmd runs the HTTP API and the timer scheduler.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the JSON API and the live timer stream. Timers for every user
tick in this process; interval transitions are logged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := setupSignalHandler()
		defer stop()

		cfg := app.config
		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		app.timer.AddNotifier(notification.NewLog(app.logger))

		server := httpapi.New(httpapi.Services{
			Auth:         app.auth,
			Timer:        app.timer,
			Sessions:     app.gateway,
			Tasks:        app.tasks,
			Distractions: app.distractions,
			Analytics:    app.analytics,
			Settings:     app.settings,
		}, httpapi.Options{
			Addr:            addr,
			ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
			Compress:        cfg.Server.Compress,
			OriginPatterns:  cfg.Server.OriginPatterns,
			Logger:          app.logger,
		})

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = app.timer.Run(ctx, cfg.Timer.TickInterval.Std())
		}()

		app.logger.Info("starting focusflow",
			"version", Version,
			"addr", addr,
			"storage", cfg.Storage.Driver,
			"tick", time.Duration(cfg.Timer.TickInterval),
		)
		err := server.Serve(ctx)

		// Stop ticking before the worker is closed by cleanup.
		cancel()
		wg.Wait()

		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

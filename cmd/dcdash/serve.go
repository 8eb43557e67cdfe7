package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atdtech/dcdash/internal/cli"
	"github.com/atdtech/dcdash/internal/httpapi"
	"github.com/atdtech/dcdash/internal/metrics"
	"github.com/atdtech/dcdash/internal/version"
	"github.com/atdtech/dcdash/pkg/reports"
	"github.com/atdtech/dcdash/pkg/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve every report under /api/v1, plus /health, /dbhealth and /metrics.

The server stops accepting requests on SIGINT or SIGTERM and waits up to
server.shutdown_timeout for in-flight reports to release their sessions.`,
	Example: `  # Serve on the configured port
  dcdash serve

  # Serve on another port
  dcdash serve --port 9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, resolveInt(servePort, cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default: server.port)")
}

func runServe(ctx context.Context, port int) error {
	sc, err := cfg.SessionConfig()
	if err != nil {
		return cli.ConfigError("resolving database settings", err)
	}

	m := metrics.New()
	mgr, err := session.Open(sc, session.WithLogger(logger), session.WithObserver(m))
	if err != nil {
		return cli.DBConnectError("opening session manager", err)
	}
	defer func() { _ = mgr.Close() }()

	svc := reports.NewService(mgr, reports.WithLogger(logger), reports.WithRecorder(m))
	handler := httpapi.New(svc,
		httpapi.WithLogger(logger),
		httpapi.WithMetrics(m.Handler()),
		httpapi.WithIdentity(cfg.App.Name, version.Short()),
	)

	srv := &http.Server{
		Addr:         net.JoinHostPort("", strconv.Itoa(port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "database", sc.Target, "schema", sc.Schema)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return cli.GeneralError("serving", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return cli.GeneralError("shutting down", err)
	}
	stats := mgr.Stats()
	logger.Info("stopped", "sessions_acquired", stats.Acquired, "sessions_released", stats.Released)
	return nil
}

// resolveInt returns the first non-zero value.
// Used to implement precedence: flag > config > default.
func resolveInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

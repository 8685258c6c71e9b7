package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ppiankov/ssl-checker/internal/config"
	"github.com/ppiankov/ssl-checker/internal/history"
	"github.com/ppiankov/ssl-checker/internal/metrics"
	"github.com/ppiankov/ssl-checker/internal/notify"
	"github.com/ppiankov/ssl-checker/internal/report"
	"github.com/ppiankov/ssl-checker/internal/result"
	"github.com/ppiankov/ssl-checker/internal/scheduler"
	"github.com/ppiankov/ssl-checker/internal/telemetry"
	"github.com/ppiankov/ssl-checker/internal/web"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a long-lived service with periodic checks and /metrics",
	Long: `Start ssl_checker as a long-running service. Targets are checked on a
fixed interval and the latest report is served over HTTP.

Endpoints:
  /metrics         Prometheus scrape endpoint
  /healthz         Liveness probe (503 when the check loop is stale)
  /api/v1/report   JSON report of the latest run
  /api/v1/history  Past run summaries (requires history_db)
  /api/v1/trend    Per-target outcome history (requires history_db)`,
	Example: `  # Run with config.toml from the working directory
  ssl_checker serve

  # Custom config, 5 minute check interval via the file's check_every
  ssl_checker serve --config /etc/ssl_checker/config.toml

  # Override listen address, enable run history
  ssl_checker serve --listen :9090 --history-db /var/lib/ssl_checker/history.db

  # JSON logging for log aggregation
  ssl_checker serve --log-format json --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Path to config file (TOML or YAML)")
	serveCmd.Flags().StringSliceP("targets", "t", nil, "Targets to check (host[:port], https://..., tcp://...)")
	serveCmd.Flags().String("listen", "", "Listen address (overrides config)")
	serveCmd.Flags().Duration("check-every", 0, "Interval between check runs (overrides config)")
	serveCmd.Flags().String("history-db", "", "Path to SQLite history database (enables /api/v1/history and /api/v1/trend)")
	serveCmd.Flags().Int("warning-days", 0, "Warn when a certificate expires within this many days (default from config)")
	serveCmd.Flags().Int("error-days", 0, "Mark a certificate red within this many days (default from config)")
	serveCmd.Flags().Duration("timeout", 0, "Per-target connect timeout (default from config)")
	serveCmd.Flags().Int("concurrency", 0, "Maximum targets inspected at once (default from config)")
	serveCmd.Flags().String("slack-webhook-url", "", "Slack incoming webhook for problem reports")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, targets, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets: provide --targets or a config file with a [[targets]] list")
	}

	listenFlag, _ := cmd.Flags().GetString("listen") //nolint:errcheck // flag registered above
	if listenFlag != "" {
		cfg.ListenAddr = listenFlag
	}
	checkEvery, _ := cmd.Flags().GetDuration("check-every") //nolint:errcheck // flag registered above
	if checkEvery > 0 {
		cfg.CheckEvery = config.Duration(checkEvery)
	}
	historyDB, _ := cmd.Flags().GetString("history-db") //nolint:errcheck // flag registered above
	if historyDB != "" {
		cfg.HistoryDB = historyDB
	}

	var histStore *history.Store
	if cfg.HistoryDB != "" {
		var histErr error
		histStore, histErr = history.Open(cfg.HistoryDB)
		if histErr != nil {
			return fmt.Errorf("opening history database: %w", histErr)
		}
		defer histStore.Close() //nolint:errcheck // best-effort cleanup on shutdown
		slog.Info("history storage enabled", "path", cfg.HistoryDB)
	}

	// Initialize tracing
	otelEndpoint, _ := cmd.Flags().GetString("otel-endpoint") //nolint:errcheck // flag registered above
	tracer, tracerShutdown, tracerErr := telemetry.InitTracer(context.Background(), otelEndpoint, "ssl_checker", version)
	if tracerErr != nil {
		slog.Warn("initializing tracer", "err", tracerErr)
	} else {
		defer tracerShutdown(context.Background()) //nolint:errcheck // best-effort flush
	}

	inspector := scheduler.NewInspector(cfg.WarningHorizon())
	sched := scheduler.New(cfg.Concurrency,
		scheduler.WithInspectFunc(inspector.Inspect),
		scheduler.WithTracer(tracer),
	)

	// Notifications (nil if not configured)
	notifier := notify.New(cfg.SlackWebhookURL)

	// Shared state: mutex-protected latest report
	var mu sync.RWMutex
	var currentRep result.Report

	getReport := func() result.Report {
		mu.RLock()
		defer mu.RUnlock()
		return currentRep
	}

	// Prometheus metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// HTTP server
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", web.HealthzHandler(getReport, staleAfter(cfg.CheckEvery.Std())))
	mux.HandleFunc("/api/v1/report", web.ReportHandler(getReport))
	if histStore != nil {
		mux.HandleFunc("/api/v1/history", web.HistoryHandler(histStore))
		mux.HandleFunc("/api/v1/trend", web.TrendHandler(histStore))
	}
	mux.Handle(cfg.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background check loop
	check := func() {
		start := time.Now()
		outcomes := sched.Run(ctx, targets)
		duration := time.Since(start)
		rep := report.Aggregate(targets, outcomes, start)

		mu.Lock()
		currentRep = rep
		mu.Unlock()

		collector.Update(rep, duration)

		if histStore != nil {
			if saveErr := histStore.Save(rep); saveErr != nil {
				slog.Error("saving run history", "err", saveErr)
			}
		}

		if notifier != nil && notify.HasProblems(rep) {
			notifier.Send(rep)
		}

		slog.Info("check complete",
			"targets", len(rep.Results),
			"ok", rep.Summary[result.CategoryOk],
			"expiring", rep.Summary[result.CategoryExpiringSoon],
			"duration", duration.Round(time.Millisecond))
	}

	// Run initial check
	check()

	// Start periodic check loop
	go func() {
		ticker := time.NewTicker(cfg.CheckEvery.Std())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("check panic recovered", "panic", r)
						}
					}()
					check()
				}()
			}
		}
	}()

	// Start HTTP server
	srvErr := make(chan error, 1)
	go func() {
		slog.Info("ssl_checker serve listening", "version", version, "addr", cfg.ListenAddr, "every", cfg.CheckEvery.Std())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
	case err := <-srvErr:
		return err
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}

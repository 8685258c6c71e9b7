package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ssl-checker/internal/history"
	"github.com/ppiankov/ssl-checker/internal/notify"
	"github.com/ppiankov/ssl-checker/internal/report"
	"github.com/ppiankov/ssl-checker/internal/scheduler"
	"github.com/ppiankov/ssl-checker/internal/telemetry"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "One-shot check — inspect all targets and exit with a status code",
	Long: `Connect to every configured target, capture and evaluate its certificate
chain, print a report, and exit with a code based on the worst finding.

Exit codes:
  0  All targets ok (expiring-soon counts as ok unless --fail-on-warning)
  1  A certificate is expiring soon and --fail-on-warning was given
  2  A certificate is expired, mismatched, or its chain is invalid
  3  A target could not be reached or the handshake failed`,
	Example: `  # Check targets from config.toml in the working directory
  ssl_checker check

  # Ad-hoc targets, no config file
  ssl_checker check -t example.com -t https://api.example.com:8443

  # Fail the pipeline on certificates expiring within 45 days
  ssl_checker check --warning-days 45 --fail-on-warning

  # JSON output for pipeline parsing
  ssl_checker check --output json

  # Quiet mode — exit code only
  ssl_checker check --quiet`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("config", "", "Path to config file (TOML or YAML)")
	checkCmd.Flags().StringSliceP("targets", "t", nil, "Targets to check (host[:port], https://..., tcp://...)")
	checkCmd.Flags().Int("warning-days", 0, "Warn when a certificate expires within this many days (default from config)")
	checkCmd.Flags().Int("error-days", 0, "Mark a certificate red within this many days (default from config)")
	checkCmd.Flags().Duration("timeout", 0, "Per-target connect timeout (default from config)")
	checkCmd.Flags().Int("concurrency", 0, "Maximum targets inspected at once (default from config)")
	checkCmd.Flags().String("slack-webhook-url", "", "Slack incoming webhook for the report")
	checkCmd.Flags().StringP("output", "o", "", "Output format: json, text (default: text)")
	checkCmd.Flags().BoolP("quiet", "q", false, "Suppress output, exit code only")
	checkCmd.Flags().Bool("fail-on-warning", false, "Exit 1 when any certificate is expiring soon")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, targets, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets: provide --targets or a config file with a [[targets]] list")
	}

	outputFlag, _ := cmd.Flags().GetString("output")           //nolint:errcheck // flag registered above
	quiet, _ := cmd.Flags().GetBool("quiet")                   //nolint:errcheck // flag registered above
	failOnWarning, _ := cmd.Flags().GetBool("fail-on-warning") //nolint:errcheck // flag registered above
	if outputFlag != "" && outputFlag != "json" && outputFlag != "text" {
		return fmt.Errorf("invalid --output value %q: must be json or text", outputFlag)
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

	slog.Info("checking targets", "count", len(targets), "concurrency", cfg.Concurrency)
	start := time.Now()
	outcomes := sched.Run(cmd.Context(), targets)
	rep := report.Aggregate(targets, outcomes, start)
	slog.Info("check complete", "targets", len(targets), "duration", time.Since(start).Round(time.Millisecond))

	if cfg.HistoryDB != "" {
		hs, hsErr := history.Open(cfg.HistoryDB)
		if hsErr != nil {
			slog.Warn("opening history store", "path", cfg.HistoryDB, "err", hsErr)
		} else {
			if saveErr := hs.Save(rep); saveErr != nil {
				slog.Warn("saving run history", "err", saveErr)
			}
			hs.Close() //nolint:errcheck // read-only close
		}
	}

	if notifier := notify.New(cfg.SlackWebhookURL); notifier != nil {
		notifier.Send(rep)
	}

	exitCode := report.ExitCode(rep, failOnWarning)

	if !quiet {
		switch outputFlag {
		case "json":
			if err := report.WriteJSON(os.Stdout, rep, exitCode); err != nil {
				return fmt.Errorf("writing JSON output: %w", err)
			}
		default:
			fmt.Print(report.PlainText(rep, cfg.ErrorDays))
		}
	}

	if exitCode != 0 {
		os.Exit(exitCode) //nolint:gocritic // exitAfterDefer — nonzero-exit path
	}
	return nil
}

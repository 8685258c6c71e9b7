package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ssl-checker/internal/config"
	"github.com/ppiankov/ssl-checker/internal/result"
)

// resolveConfig builds the effective configuration for a command: file values
// over defaults, flags over both. Flag targets are appended after the file's
// target list.
func resolveConfig(cmd *cobra.Command) (*config.Config, []result.Target, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	if cfgPath == "" {
		// Pick up config.toml from the working directory when present.
		if _, statErr := os.Stat(config.DefaultPath); statErr == nil {
			cfgPath = config.DefaultPath
		}
	}

	cfg := config.Defaults()
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if cmd.Flags().Lookup("warning-days") != nil {
		warnDays, _ := cmd.Flags().GetInt("warning-days") //nolint:errcheck // flag registered by the command
		if warnDays > 0 {
			cfg.WarningDays = warnDays
		}
		errDays, _ := cmd.Flags().GetInt("error-days") //nolint:errcheck // flag registered by the command
		if errDays > 0 {
			cfg.ErrorDays = errDays
		}
	}
	if cmd.Flags().Lookup("timeout") != nil {
		timeout, _ := cmd.Flags().GetDuration("timeout") //nolint:errcheck // flag registered by the command
		if timeout > 0 {
			cfg.Timeout = config.Duration(timeout)
		}
	}
	if cmd.Flags().Lookup("concurrency") != nil {
		concurrency, _ := cmd.Flags().GetInt("concurrency") //nolint:errcheck // flag registered by the command
		if concurrency > 0 {
			cfg.Concurrency = concurrency
		}
	}
	if cmd.Flags().Lookup("slack-webhook-url") != nil {
		webhook, _ := cmd.Flags().GetString("slack-webhook-url") //nolint:errcheck // flag registered by the command
		if webhook != "" {
			cfg.SlackWebhookURL = webhook
		}
	}

	if cmd.Flags().Lookup("targets") != nil {
		flagTargets, _ := cmd.Flags().GetStringSlice("targets") //nolint:errcheck // flag registered by the command
		for _, s := range flagTargets {
			tc, parseErr := config.ParseTarget(s)
			if parseErr != nil {
				return nil, nil, parseErr
			}
			cfg.Targets = append(cfg.Targets, tc)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, cfg.TargetList(), nil
}

// staleAfter is how old the latest report may be before /healthz fails.
func staleAfter(checkEvery time.Duration) time.Duration {
	return 2 * checkEvery
}

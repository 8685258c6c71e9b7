// Package config loads checker configuration from TOML or YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/ssl-checker/internal/result"
)

// DefaultPath is picked up from the working directory when present and no
// explicit config file is given.
const DefaultPath = "config.toml"

// Duration parses "5s"-style strings from both TOML and YAML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler (used by go-toml).
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Std returns the duration as time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// TargetConfig is one endpoint entry in the config file.
type TargetConfig struct {
	Host         string   `toml:"host" yaml:"host"`
	Port         uint16   `toml:"port" yaml:"port"`                   // default 443
	ExpectedName string   `toml:"expected_name" yaml:"expected_name"` // empty = skip hostname check
	Timeout      Duration `toml:"timeout" yaml:"timeout"`             // zero = global timeout
}

// Config holds ssl_checker runtime configuration.
type Config struct {
	Targets         []TargetConfig `toml:"targets" yaml:"targets"`
	WarningDays     int            `toml:"warning_days" yaml:"warning_days"` // default 30
	ErrorDays       int            `toml:"error_days" yaml:"error_days"`     // default 14
	Timeout         Duration       `toml:"timeout" yaml:"timeout"`           // per-target default, 5s
	Concurrency     int            `toml:"concurrency" yaml:"concurrency"`   // default 8
	SlackWebhookURL string         `toml:"slack_webhook_url" yaml:"slack_webhook_url"`
	CheckEvery      Duration       `toml:"check_every" yaml:"check_every"` // serve loop, default 15m
	ListenAddr      string         `toml:"listen_addr" yaml:"listen_addr"` // default ":8080"
	MetricsPath     string         `toml:"metrics_path" yaml:"metrics_path"`
	HistoryDB       string         `toml:"history_db" yaml:"history_db"` // empty = stateless
	LogLevel        string         `toml:"log_level" yaml:"log_level"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		WarningDays: 30,
		ErrorDays:   14,
		Timeout:     Duration(5 * time.Second),
		Concurrency: 8,
		CheckEvery:  Duration(15 * time.Minute),
		ListenAddr:  ":8080",
		MetricsPath: "/metrics",
		LogLevel:    "info",
	}
}

// Load reads a config file and merges it over defaults. The format is chosen
// by extension: .yaml/.yml is YAML, everything else is TOML.
func Load(path string) (*Config, error) {
	c := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, c)
	default:
		err = toml.Unmarshal(b, c)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return c, nil
}

// Validate checks that the config values are sane. An empty target list is
// valid here; the CLI rejects it after flag targets have been merged in.
func (c *Config) Validate() error {
	if c.WarningDays <= 0 {
		return fmt.Errorf("warning_days must be positive, got %d", c.WarningDays)
	}
	if c.ErrorDays <= 0 {
		return fmt.Errorf("error_days must be positive, got %d", c.ErrorDays)
	}
	if c.ErrorDays >= c.WarningDays {
		return fmt.Errorf("error_days (%d) must be less than warning_days (%d)", c.ErrorDays, c.WarningDays)
	}
	if c.Timeout.Std() <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout.Std())
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.CheckEvery.Std() < 30*time.Second {
		return fmt.Errorf("check_every must be at least 30s, got %s", c.CheckEvery.Std())
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	for i := range c.Targets {
		if c.Targets[i].Host == "" {
			return fmt.Errorf("targets[%d]: host must not be empty", i)
		}
	}
	return nil
}

// TargetList converts configured entries into immutable targets, applying
// the port and timeout defaults.
func (c *Config) TargetList() []result.Target {
	targets := make([]result.Target, 0, len(c.Targets))
	for _, tc := range c.Targets {
		t := result.Target{
			Host:         tc.Host,
			Port:         tc.Port,
			ExpectedName: tc.ExpectedName,
			Timeout:      tc.Timeout.Std(),
		}
		if t.Port == 0 {
			t.Port = 443
		}
		if t.Timeout <= 0 {
			t.Timeout = c.Timeout.Std()
		}
		targets = append(targets, t)
	}
	return targets
}

// WarningHorizon returns the expiring-soon horizon as a duration.
func (c *Config) WarningHorizon() time.Duration {
	return time.Duration(c.WarningDays) * 24 * time.Hour
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FOCUSLOG_POLL_INTERVAL=2s
// or FOCUSLOG_REPORT_TOP=5.
const EnvPrefix = "FOCUSLOG"

// ProjectFile is the per-directory config file merged over the global one.
const ProjectFile = ".focuslog.yaml"

// ErrInvalid is wrapped by Validate failures.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configurable focuslog settings.
type Config struct {
	DBPath       string        `mapstructure:"db_path"` // empty uses the XDG data directory
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ForceRefresh time.Duration `mapstructure:"force_refresh"`
	GapThreshold time.Duration `mapstructure:"gap_threshold"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	Browsers     []string      `mapstructure:"browsers"` // recognised in addition to the built-in set
	Report       ReportConfig  `mapstructure:"report"`
	Log          LogConfig     `mapstructure:"log"`
}

// ReportConfig holds the report command defaults.
type ReportConfig struct {
	Top    int    `mapstructure:"top"`
	Gaps   int    `mapstructure:"gaps"`
	Format string `mapstructure:"format"` // "table" | "markdown" | "json"
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" | "json"
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		PollInterval: time.Second,
		ForceRefresh: 2 * time.Minute,
		GapThreshold: 5 * time.Minute,
		ProbeTimeout: 2 * time.Second,
		Browsers:     []string{},
		Report:       ReportConfig{Top: 10, Gaps: 5, Format: "table"},
		Log:          LogConfig{Level: "info", Format: "text"},
	}
}

// GlobalPath returns $XDG_CONFIG_HOME/focuslog/config.yaml, falling back to
// ~/.config/focuslog/config.yaml.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "focuslog", "config.yaml"), nil
}

// LoadGlobal reads the global config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .focuslog.yaml in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// loadFile reads and parses a YAML config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Zero values count as unset and fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer != nil {
			overlay(&result, layer)
		}
	}
	return result
}

func overlay(dst, src *Config) {
	if src.DBPath != "" {
		dst.DBPath = src.DBPath
	}
	if src.PollInterval != 0 {
		dst.PollInterval = src.PollInterval
	}
	if src.ForceRefresh != 0 {
		dst.ForceRefresh = src.ForceRefresh
	}
	if src.GapThreshold != 0 {
		dst.GapThreshold = src.GapThreshold
	}
	if src.ProbeTimeout != 0 {
		dst.ProbeTimeout = src.ProbeTimeout
	}
	if len(src.Browsers) > 0 {
		dst.Browsers = src.Browsers
	}
	if src.Report.Top != 0 {
		dst.Report.Top = src.Report.Top
	}
	if src.Report.Gaps != 0 {
		dst.Report.Gaps = src.Report.Gaps
	}
	if src.Report.Format != "" {
		dst.Report.Format = src.Report.Format
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
}

// ApplyEnv overrides cfg with any FOCUSLOG_* environment variables.
func ApplyEnv(cfg Config) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default for AutomaticEnv to see it during Unmarshal.
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("poll_interval", cfg.PollInterval)
	v.SetDefault("force_refresh", cfg.ForceRefresh)
	v.SetDefault("gap_threshold", cfg.GapThreshold)
	v.SetDefault("probe_timeout", cfg.ProbeTimeout)
	v.SetDefault("browsers", cfg.Browsers)
	v.SetDefault("report.top", cfg.Report.Top)
	v.SetDefault("report.gaps", cfg.Report.Gaps)
	v.SetDefault("report.format", cfg.Report.Format)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return cfg, &ParseError{Path: "environment", Err: err}
	}
	return out, nil
}

// Load merges the global file, the project file and the environment, then
// validates the result.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, fmt.Errorf("loading global config: %w", err)
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, fmt.Errorf("loading project config: %w", err)
	}
	cfg, err := ApplyEnv(Merge(global, project))
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks intervals and enumerations.
func (c Config) Validate() error {
	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"poll_interval", c.PollInterval},
		{"force_refresh", c.ForceRefresh},
		{"gap_threshold", c.GapThreshold},
		{"probe_timeout", c.ProbeTimeout},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, iv.name, iv.d)
		}
	}
	if c.PollInterval > c.ForceRefresh {
		return fmt.Errorf("%w: poll_interval %s exceeds force_refresh %s", ErrInvalid, c.PollInterval, c.ForceRefresh)
	}
	if c.Report.Top < 0 || c.Report.Gaps < 0 {
		return fmt.Errorf("%w: report.top and report.gaps must not be negative", ErrInvalid)
	}
	switch c.Report.Format {
	case "table", "markdown", "json":
	default:
		return fmt.Errorf("%w: report.format %q (want table, markdown or json)", ErrInvalid, c.Report.Format)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want text or json)", ErrInvalid, c.Log.Format)
	}
	return nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Save writes cfg as YAML to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	if cfg.DBPath != "" {
		v.Set("db_path", cfg.DBPath)
	}
	v.Set("poll_interval", cfg.PollInterval.String())
	v.Set("force_refresh", cfg.ForceRefresh.String())
	v.Set("gap_threshold", cfg.GapThreshold.String())
	v.Set("probe_timeout", cfg.ProbeTimeout.String())
	v.Set("browsers", cfg.Browsers)
	v.Set("report.top", cfg.Report.Top)
	v.Set("report.gaps", cfg.Report.Gaps)
	v.Set("report.format", cfg.Report.Format)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

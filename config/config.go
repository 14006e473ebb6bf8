/*
Package config reads server settings from the environment.

VARIABLES:
  ROSTER_PORT                    HTTP port (8080)
  ROSTER_DB_PATH                 SQLite path (roster.db); ":memory:" for tests
  ROSTER_CONFIG_FILE             Roster YAML/JSON; empty uses the embedded default
  ROSTER_LOG_LEVEL               debug | info | warn | error (info)
  ROSTER_LOG_FORMAT              text | json (text)
  ROSTER_STRICT_MEMBERS          Reject records for unknown members (false)
  ROSTER_ALLOWED_ORIGINS         Comma-separated CORS origins
  ROSTER_AUTOGENERATE_INTERVAL   Pre-generation check interval (1h, 0 disables)
  ROSTER_AUTOGENERATE_LOOKAHEAD  Months after the current one to prepare (1)

  A .env file is read first when present; variables already set in the
  environment win.
*/
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/warp/roster-engine/factory"
)

// Config holds the server settings.
type Config struct {
	Port       int    `env:"ROSTER_PORT" envDefault:"8080"`
	DBPath     string `env:"ROSTER_DB_PATH" envDefault:"roster.db"`
	ConfigFile string `env:"ROSTER_CONFIG_FILE"`

	LogLevel  string `env:"ROSTER_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"ROSTER_LOG_FORMAT" envDefault:"text"`

	StrictMembers  bool     `env:"ROSTER_STRICT_MEMBERS" envDefault:"false"`
	AllowedOrigins []string `env:"ROSTER_ALLOWED_ORIGINS" envSeparator:","`

	AutoGenerateInterval  time.Duration `env:"ROSTER_AUTOGENERATE_INTERVAL" envDefault:"1h"`
	AutoGenerateLookahead int           `env:"ROSTER_AUTOGENERATE_LOOKAHEAD" envDefault:"1"`
}

// Load reads the given .env files (default ".env"), then the environment.
// Missing .env files are not an error.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid config: port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("invalid config: database path is required")
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid config: log format %q (want text or json)", c.LogFormat)
	}
	if c.AutoGenerateInterval < 0 {
		return fmt.Errorf("invalid config: negative autogenerate interval %s", c.AutoGenerateInterval)
	}
	if c.AutoGenerateLookahead < 0 {
		return fmt.Errorf("invalid config: negative autogenerate lookahead %d", c.AutoGenerateLookahead)
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid config: log level %q", c.LogLevel)
	}
	return l, nil
}

// NewLogger builds the slog logger described by LogLevel and LogFormat.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Setup loads the roster configuration file, or the embedded default when
// ConfigFile is empty.
func (c Config) Setup() (*factory.Setup, error) {
	f := factory.NewRosterFactory()
	if c.ConfigFile == "" {
		return f.Default()
	}
	return f.Load(c.ConfigFile)
}

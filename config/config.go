// Package config loads runtime settings from defaults, an optional .env
// file and CATALOGDASH_* environment variables. Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spektr-org/catalogdash/validation"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CATALOGDASH_"

// Config holds all application configuration.
type Config struct {
	Environment string `yaml:"environment" validate:"required,oneof=development production test"`

	DataPath   string        `yaml:"data_path" validate:"required"`
	TablesPath string        `yaml:"tables_path"`
	Reload     bool          `yaml:"reload"`
	Watch      bool          `yaml:"watch" validate:"excluded_with=Reload"`
	WatchDelay time.Duration `yaml:"watch_delay" validate:"gt=0"`

	Addr           string        `yaml:"addr" validate:"required"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	AllowedOrigins []string      `yaml:"allowed_origins" validate:"min=1"`
	PNGRate        float64       `yaml:"png_rate" validate:"gte=0"`
	PNGBurst       int           `yaml:"png_burst" validate:"gte=0"`

	LogLevel  string `yaml:"log_level" validate:"required,oneof=trace debug info warn error fatal panic disabled"`
	LogFormat string `yaml:"log_format" validate:"required,oneof=console json"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Environment:    "development",
		DataPath:       "netflix_data.csv",
		WatchDelay:     500 * time.Millisecond,
		Addr:           ":8501",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		AllowedOrigins: []string{"*"},
		PNGRate:        5,
		PNGBurst:       10,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables already set, then builds the Config from the
// environment over the defaults. An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", envFile, err)
	}

	cfg := Default()
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.DataPath = getEnv("DATA", cfg.DataPath)
	cfg.TablesPath = getEnv("TABLES", cfg.TablesPath)
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))

	var err error
	if cfg.Reload, err = getEnvBool("RELOAD", cfg.Reload); err != nil {
		return nil, err
	}
	if cfg.Watch, err = getEnvBool("WATCH", cfg.Watch); err != nil {
		return nil, err
	}
	if cfg.WatchDelay, err = getEnvDuration("WATCH_DELAY", cfg.WatchDelay); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = getEnvDuration("READ_TIMEOUT", cfg.ReadTimeout); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = getEnvDuration("WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return nil, err
	}
	if cfg.IdleTimeout, err = getEnvDuration("IDLE_TIMEOUT", cfg.IdleTimeout); err != nil {
		return nil, err
	}
	if cfg.PNGRate, err = getEnvFloat("PNG_RATE", cfg.PNGRate); err != nil {
		return nil, err
	}
	if cfg.PNGBurst, err = getEnvInt("PNG_BURST", cfg.PNGBurst); err != nil {
		return nil, err
	}
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validation.New().Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ============================================================================
// ENV HELPERS
// ============================================================================

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(EnvPrefix + key)); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) (bool, error) {
	val := getEnv(key, "")
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("config: %s%s=%q is not a boolean", EnvPrefix, key, val)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("config: %s%s=%q is not a duration", EnvPrefix, key, val)
	}
	return d, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	val := getEnv(key, "")
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("config: %s%s=%q is not an integer", EnvPrefix, key, val)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	val := getEnv(key, "")
	if val == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s%s=%q is not a number", EnvPrefix, key, val)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// LevelTrace sits below slog's built-in levels; "trace" in the config maps
// to it.
const LevelTrace = slog.LevelDebug - 4

// Config holds all server configuration. It is read from an optional TOML
// file and overridden by environment variables prefixed with APP_; nested
// sections use a __ separator (APP_DB__REDIS_URL).
type Config struct {
	IP       string          `toml:"ip"`
	Port     int             `toml:"port"`
	LogLevel string          `toml:"log_level"`
	DB       DatabaseConfig  `toml:"db"`
	Telem    TelemetryConfig `toml:"telem"`
}

// DatabaseConfig holds the shared-store connection URLs.
type DatabaseConfig struct {
	// Connection URL for Redis, eg redis://host:port/num.
	RedisURL string `toml:"redis_url"`

	// Connection DSN for MySQL, eg user:password@tcp(host:port)/dbname.
	MySQLURL string `toml:"mysql_url"`
}

// TelemetryConfig is reserved for an OTLP exporter; only the endpoint is
// read today.
type TelemetryConfig struct {
	Endpoint string `toml:"endpoint"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		IP:       "127.0.0.1",
		Port:     8080,
		LogLevel: "info",
	}
}

// Load reads config from the TOML file at path (missing file is fine) and
// then applies APP_ environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("APP_IP"); ok {
		cfg.IP = v
	}
	if v, ok := os.LookupEnv("APP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("APP_PORT %q is not a number", v)
		}
		cfg.Port = port
	}
	if v, ok := os.LookupEnv("APP_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("APP_DB__REDIS_URL"); ok {
		cfg.DB.RedisURL = v
	}
	if v, ok := os.LookupEnv("APP_DB__MYSQL_URL"); ok {
		cfg.DB.MySQLURL = v
	}
	if v, ok := os.LookupEnv("APP_TELEM__ENDPOINT"); ok {
		cfg.Telem.Endpoint = v
	}
	return nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.IP, c.Port)
}

// SlogLevel maps the configured log level onto slog.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

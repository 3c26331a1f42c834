// Package config loads the optional TOML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Config mirrors config.toml. Zero values mean "use the default".
type Config struct {
	Storage StorageConfig `toml:"storage"`
	App     AppConfig     `toml:"app"`
	Server  ServerConfig  `toml:"server"`
	Sync    SyncConfig    `toml:"sync"`
}

type StorageConfig struct {
	Backend   string `toml:"backend"`
	Path      string `toml:"path"`
	DSN       string `toml:"dsn"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	KeyPrefix string `toml:"key_prefix"`
}

type AppConfig struct {
	Timezone string `toml:"timezone"`
	// WeekStart is informational; weeks always start on Sunday
	WeekStart string `toml:"week_start"`
	LogLevel  string `toml:"log_level"`
}

type ServerConfig struct {
	Listen  string `toml:"listen"`
	Metrics *bool  `toml:"metrics"`
}

type SyncConfig struct {
	URL string `toml:"url"`
}

// Default returns the configuration used when no file exists
func Default() Config {
	metrics := true
	return Config{
		Storage: StorageConfig{
			Backend:   constants.BackendSQLite,
			KeyPrefix: constants.DefaultKeyPrefix,
		},
		App: AppConfig{
			Timezone:  constants.DefaultTimezone,
			WeekStart: "sunday",
		},
		Server: ServerConfig{
			Listen:  constants.DefaultListenAddr,
			Metrics: &metrics,
		},
	}
}

// Load reads a TOML config from path on top of Default(). A missing file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to stat config: %w", err)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Save writes cfg as TOML, creating the parent directory
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return f.Close()
}

// Validate rejects unknown backends and timezones
func (c Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case constants.BackendSQLite, constants.BackendFile, constants.BackendMemory:
	case constants.BackendPostgres:
		// The DSN may also come from the keyring, so it is not required here
	case constants.BackendRedis:
		if c.Storage.RedisAddr == "" {
			errs = append(errs, errors.New("storage.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.Storage.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("storage.redis_db must be >= 0, got %d", c.Storage.RedisDB))
	}

	if !utils.ValidateTimezone(c.App.Timezone) {
		errs = append(errs, fmt.Errorf("app.timezone: unknown timezone %q", c.App.Timezone))
	}

	if ws := strings.ToLower(c.App.WeekStart); ws != "" && ws != "sunday" {
		errs = append(errs, fmt.Errorf("app.week_start must be sunday, got %q", c.App.WeekStart))
	}

	return errors.Join(errs...)
}

// MetricsEnabled reports whether /metrics is served
func (c Config) MetricsEnabled() bool {
	return c.Server.Metrics == nil || *c.Server.Metrics
}

package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nevindra/pedforum/storage"
)

// DefaultPath is read when PEDFORUM_CONFIG is unset.
const DefaultPath = "pedforum.toml"

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Storage  storage.Config `toml:"storage"`
	Extract  ExtractConfig  `toml:"extract"`
	Log      LogConfig      `toml:"log"`
	Observer ObserverConfig `toml:"observer"`
}

type ServerConfig struct {
	Addr            string `toml:"addr"`
	MaxUploadBytes  int64  `toml:"max_upload_bytes"`
	ShutdownSeconds int    `toml:"shutdown_seconds"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "postgres"
	Path   string `toml:"path"`
	URL    string `toml:"url"`
}

type ExtractConfig struct {
	MaxEntryBytes int64 `toml:"max_entry_bytes"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080", MaxUploadBytes: 32 << 20, ShutdownSeconds: 30},
		Database: DatabaseConfig{Driver: "sqlite", Path: "pedforum.db"},
		Storage: storage.Config{
			Endpoint: storage.DefaultEndpoint,
			Region:   storage.DefaultRegion,
			Bucket:   storage.DefaultBucket,
		},
		Extract: ExtractConfig{MaxEntryBytes: 100 << 20},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
// An empty path falls back to PEDFORUM_CONFIG, then DefaultPath.
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PEDFORUM_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("PEDFORUM_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		cfg.Database.Driver = "postgres"
	}
	if v := os.Getenv("PEDFORUM_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Storage.AccessKeyID = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Storage.SecretAccessKey = v
	}
	if v := os.Getenv("S3_BUCKET_NAME"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("PEDFORUM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if os.Getenv("PEDFORUM_OBSERVER_ENABLED") == "true" || os.Getenv("PEDFORUM_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}

	// Fallbacks
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = Default().Server.MaxUploadBytes
	}
	if cfg.Server.ShutdownSeconds <= 0 {
		cfg.Server.ShutdownSeconds = Default().Server.ShutdownSeconds
	}

	return cfg
}

// SlogLevel maps the configured level name to a slog.Level. Unknown names
// mean info.
func (c LogConfig) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

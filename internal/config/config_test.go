package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadBytes != 32<<20 {
		t.Errorf("expected 32 MiB, got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Storage.Endpoint != "https://storage.yandexcloud.net" {
		t.Errorf("unexpected endpoint %s", cfg.Storage.Endpoint)
	}
	if cfg.Storage.Bucket != "pedagogical-forum-files" || cfg.Storage.Region != "ru-central1" {
		t.Errorf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.Database.Driver)
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[server]
addr = ":9090"

[storage]
bucket = "files"

[extract]
max_entry_bytes = 1024
`), 0644)

	cfg := Load(path)
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Storage.Bucket != "files" {
		t.Errorf("expected files, got %s", cfg.Storage.Bucket)
	}
	if cfg.Extract.MaxEntryBytes != 1024 {
		t.Errorf("expected 1024, got %d", cfg.Extract.MaxEntryBytes)
	}
	// Defaults preserved
	if cfg.Storage.Region != "ru-central1" {
		t.Errorf("default should be preserved, got %s", cfg.Storage.Region)
	}
}

func TestLoadUsesConfigEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.toml")
	os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0644)
	t.Setenv("PEDFORUM_CONFIG", path)

	cfg := Load("")
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug, got %s", cfg.Log.Level)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/forum")
	t.Setenv("AWS_ACCESS_KEY_ID", "key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_BUCKET_NAME", "other-bucket")
	t.Setenv("PEDFORUM_OBSERVER_ENABLED", "1")

	cfg := Load("/nonexistent/path.toml")
	if cfg.Database.URL != "postgres://u:p@localhost/forum" {
		t.Errorf("unexpected url %s", cfg.Database.URL)
	}
	// DATABASE_URL implies postgres
	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.Database.Driver)
	}
	if cfg.Storage.AccessKeyID != "key" || cfg.Storage.SecretAccessKey != "secret" {
		t.Errorf("credentials not applied: %+v", cfg.Storage)
	}
	if cfg.Storage.Bucket != "other-bucket" {
		t.Errorf("expected other-bucket, got %s", cfg.Storage.Bucket)
	}
	if !cfg.Observer.Enabled {
		t.Error("observer should be enabled")
	}
}

func TestExplicitDriverWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/forum")
	t.Setenv("PEDFORUM_DB_DRIVER", "SQLite")

	cfg := Load("/nonexistent/path.toml")
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.Database.Driver)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("[server]\nmax_upload_bytes = -1\nshutdown_seconds = 0\n"), 0644)

	cfg := Load(path)
	if cfg.Server.MaxUploadBytes != 32<<20 {
		t.Errorf("expected default upload limit, got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Server.ShutdownSeconds != 30 {
		t.Errorf("expected 30, got %d", cfg.Server.ShutdownSeconds)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (LogConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

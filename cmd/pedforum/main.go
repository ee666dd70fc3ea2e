// Command pedforum serves the pedagogical forum API: articles, methodical
// materials, the message board, and document upload with HTML extraction.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nevindra/pedforum"
	"github.com/nevindra/pedforum/extract"
	"github.com/nevindra/pedforum/internal/config"
	"github.com/nevindra/pedforum/internal/httpapi"
	"github.com/nevindra/pedforum/observer"
	"github.com/nevindra/pedforum/storage"
	"github.com/nevindra/pedforum/store/postgres"
	"github.com/nevindra/pedforum/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("pedforum: fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg := config.Load("")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Create store
	store, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	// 3. Create extractor, instrumented when observability is on
	var extractor httpapi.Extractor = extract.New(
		extract.WithLogger(logger),
		extract.WithMaxEntrySize(cfg.Extract.MaxEntryBytes),
	)
	if cfg.Observer.Enabled {
		inst, shutdown, err := observer.Init(ctx)
		if err != nil {
			return fmt.Errorf("init observer: %w", err)
		}
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutCtx); err != nil {
				logger.Warn("observer shutdown", "error", err)
			}
		}()
		extractor = observer.WrapExtractor(extractor, inst)
		logger.Info("observer enabled")
	}

	// 4. Object storage
	opts := []httpapi.Option{
		httpapi.WithLogger(logger),
		httpapi.WithExtractor(extractor),
		httpapi.WithMaxBodyBytes(cfg.Server.MaxUploadBytes),
	}
	if cfg.Storage.AccessKeyID != "" {
		opts = append(opts, httpapi.WithUploader(storage.New(cfg.Storage, storage.WithLogger(logger))))
	} else {
		logger.Warn("object storage credentials not set; /upload-to-s3 disabled")
	}

	// 5. Serve
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.New(store, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	shutCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("stopped")
	return nil
}

// openStore returns the configured store and a function releasing its
// resources.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (pedforum.Store, func(), error) {
	switch cfg.Driver {
	case "postgres":
		if cfg.URL == "" {
			return nil, nil, errors.New("postgres driver requires DATABASE_URL")
		}
		pool, err := pgxpool.New(ctx, cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("store: postgres")
		return postgres.New(pool, postgres.WithLogger(logger)), pool.Close, nil
	case "sqlite", "":
		s := sqlite.New(cfg.Path, sqlite.WithLogger(logger))
		logger.Info("store: sqlite", "path", cfg.Path)
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

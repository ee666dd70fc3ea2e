// Package postgres implements pedforum.Store using PostgreSQL.
//
// Store accepts an externally-owned *pgxpool.Pool via constructor
// injection. The caller creates and closes the pool. Every method acquires
// a pooled connection for the duration of a single statement.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nevindra/pedforum"
)

// Store implements pedforum.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	cfg  pgConfig
}

// pgConfig holds store configuration set via Option functions.
type pgConfig struct {
	logger *slog.Logger
}

// Option configures a PostgreSQL Store.
type Option func(*pgConfig)

// WithLogger sets a structured logger for the store. Operations are logged
// at debug level with their duration.
func WithLogger(l *slog.Logger) Option {
	return func(c *pgConfig) { c.logger = l }
}

var _ pedforum.Store = (*Store)(nil)

// New creates a Store using an existing pgxpool.Pool.
// The caller owns the pool and is responsible for closing it.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	cfg := pgConfig{logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(&cfg)
	}
	return &Store{pool: pool, cfg: cfg}
}

// Init creates all required tables and indexes.
// Safe to call multiple times (all statements are idempotent).
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			excerpt TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS articles_category_idx ON articles(category, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS materials (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL,
			category TEXT NOT NULL,
			file_type TEXT NOT NULL,
			downloads INTEGER NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			author TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS messages_created_idx ON messages(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init: %w", err)
		}
	}
	s.cfg.logger.Info("postgres: init completed")
	return nil
}

// --- Articles ---

// articlesQuery builds the listing query. An empty category or "all"
// disables filtering.
func articlesQuery(category string) (string, []any) {
	q := `SELECT id, title, excerpt, author, category, created_at FROM articles`
	var args []any
	if category != "" && category != pedforum.AllCategories {
		q += ` WHERE category = $1`
		args = append(args, category)
	}
	return q + ` ORDER BY created_at DESC, id DESC`, args
}

// ListArticles returns articles newest first, optionally filtered by category.
func (s *Store) ListArticles(ctx context.Context, category string) ([]pedforum.Article, error) {
	start := time.Now()
	q, args := articlesQuery(category)
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list articles: %w", err)
	}
	defer rows.Close()

	articles := []pedforum.Article{}
	for rows.Next() {
		var a pedforum.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Excerpt, &a.Author, &a.Category, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list articles: %w", err)
	}
	s.cfg.logger.Debug("postgres: list articles", "category", category, "count", len(articles), "duration", time.Since(start))
	return articles, nil
}

// CreateArticle inserts an article and returns it with its assigned ID.
func (s *Store) CreateArticle(ctx context.Context, a pedforum.Article) (pedforum.Article, error) {
	start := time.Now()
	a = a.WithDefaults()
	if a.CreatedAt == 0 {
		a.CreatedAt = pedforum.NowUnix()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO articles (title, excerpt, author, category, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		a.Title, a.Excerpt, a.Author, a.Category, a.Content, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return pedforum.Article{}, fmt.Errorf("postgres: create article: %w", err)
	}
	s.cfg.logger.Debug("postgres: create article", "id", a.ID, "duration", time.Since(start))
	return a, nil
}

// --- Materials ---

// ListMaterials returns materials newest first.
func (s *Store) ListMaterials(ctx context.Context) ([]pedforum.Material, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, author, category, file_type, downloads, created_at
		 FROM materials ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list materials: %w", err)
	}
	defer rows.Close()

	materials := []pedforum.Material{}
	for rows.Next() {
		var m pedforum.Material
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Author, &m.Category, &m.FileType, &m.Downloads, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list materials: %w", err)
	}
	s.cfg.logger.Debug("postgres: list materials", "count", len(materials), "duration", time.Since(start))
	return materials, nil
}

// CreateMaterial inserts a material with zero downloads.
func (s *Store) CreateMaterial(ctx context.Context, m pedforum.Material) (pedforum.Material, error) {
	start := time.Now()
	m = m.WithDefaults()
	m.Downloads = 0
	if m.CreatedAt == 0 {
		m.CreatedAt = pedforum.NowUnix()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO materials (title, description, author, category, file_type, downloads, created_at)
		 VALUES ($1, $2, $3, $4, $5, 0, $6) RETURNING id`,
		m.Title, m.Description, m.Author, m.Category, m.FileType, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return pedforum.Material{}, fmt.Errorf("postgres: create material: %w", err)
	}
	s.cfg.logger.Debug("postgres: create material", "id", m.ID, "duration", time.Since(start))
	return m, nil
}

// DeleteMaterial removes a material, returning pedforum.ErrNotFound when
// no row has the given id.
func (s *Store) DeleteMaterial(ctx context.Context, id int64) error {
	var deleted int64
	err := s.pool.QueryRow(ctx, `DELETE FROM materials WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return pedforum.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("postgres: delete material: %w", err)
	}
	s.cfg.logger.Debug("postgres: delete material", "id", id)
	return nil
}

// --- Messages ---

// ListMessages returns messages oldest first.
func (s *Store) ListMessages(ctx context.Context) ([]pedforum.Message, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx,
		`SELECT id, author, text, created_at FROM messages ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list messages: %w", err)
	}
	defer rows.Close()

	messages := []pedforum.Message{}
	for rows.Next() {
		var m pedforum.Message
		if err := rows.Scan(&m.ID, &m.Author, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list messages: %w", err)
	}
	s.cfg.logger.Debug("postgres: list messages", "count", len(messages), "duration", time.Since(start))
	return messages, nil
}

// CreateMessage inserts a message and returns it with its assigned ID.
func (s *Store) CreateMessage(ctx context.Context, m pedforum.Message) (pedforum.Message, error) {
	start := time.Now()
	m = m.WithDefaults()
	if m.CreatedAt == 0 {
		m.CreatedAt = pedforum.NowUnix()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (author, text, created_at) VALUES ($1, $2, $3) RETURNING id`,
		m.Author, m.Text, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return pedforum.Message{}, fmt.Errorf("postgres: create message: %w", err)
	}
	s.cfg.logger.Debug("postgres: create message", "id", m.ID, "duration", time.Since(start))
	return m, nil
}

// Close is a no-op. The caller owns the pool.
func (s *Store) Close() error {
	return nil
}

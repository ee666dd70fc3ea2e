// Package sqlite implements pedforum.Store using pure-Go SQLite.
// Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/nevindra/pedforum"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store.
// When set, the store emits debug logs for every operation including
// timing, row counts, and key parameters. If not set, no logs are emitted.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store implements pedforum.Store backed by a local SQLite file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ pedforum.Store = (*Store)(nil)

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(slog.DiscardHandler)

// New creates a Store using a local SQLite file at dbPath.
// It opens a single shared connection pool with SetMaxOpenConns(1) so that
// all goroutines serialize through one connection, eliminating SQLITE_BUSY
// errors caused by concurrent writers opening independent connections.
func New(dbPath string, opts ...StoreOption) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: store opened", "path", dbPath)
	return s
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Init creates all required tables. Safe to call multiple times.
func (s *Store) Init(ctx context.Context) error {
	start := time.Now()
	s.logger.Debug("sqlite: init started")
	tables := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			excerpt TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS materials (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL,
			category TEXT NOT NULL,
			file_type TEXT NOT NULL,
			downloads INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			author TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	}
	for _, ddl := range tables {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	// Indexes on frequently queried columns.
	_, _ = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category, created_at)`)
	_, _ = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at)`)

	s.logger.Info("sqlite: init completed", "duration", time.Since(start))
	return nil
}

// --- Articles ---

// ListArticles returns articles newest first, optionally filtered by category.
func (s *Store) ListArticles(ctx context.Context, category string) ([]pedforum.Article, error) {
	start := time.Now()
	s.logger.Debug("sqlite: list articles", "category", category)

	query := `SELECT id, title, excerpt, author, category, created_at FROM articles`
	var args []any
	if category != "" && category != pedforum.AllCategories {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("sqlite: list articles failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := []pedforum.Article{}
	for rows.Next() {
		var a pedforum.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Excerpt, &a.Author, &a.Category, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	s.logger.Debug("sqlite: list articles ok", "count", len(articles), "duration", time.Since(start))
	return articles, nil
}

// CreateArticle inserts an article and returns it with its assigned ID.
func (s *Store) CreateArticle(ctx context.Context, a pedforum.Article) (pedforum.Article, error) {
	start := time.Now()
	a = a.WithDefaults()
	if a.CreatedAt == 0 {
		a.CreatedAt = pedforum.NowUnix()
	}
	s.logger.Debug("sqlite: create article", "title", a.Title, "category", a.Category, "content_len", len(a.Content))

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO articles (title, excerpt, author, category, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		a.Title, a.Excerpt, a.Author, a.Category, a.Content, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		s.logger.Error("sqlite: create article failed", "error", err, "duration", time.Since(start))
		return pedforum.Article{}, fmt.Errorf("insert article: %w", err)
	}
	s.logger.Debug("sqlite: create article ok", "id", a.ID, "duration", time.Since(start))
	return a, nil
}

// --- Materials ---

// ListMaterials returns materials newest first.
func (s *Store) ListMaterials(ctx context.Context) ([]pedforum.Material, error) {
	start := time.Now()
	s.logger.Debug("sqlite: list materials")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, author, category, file_type, downloads, created_at
		 FROM materials ORDER BY created_at DESC, id DESC`)
	if err != nil {
		s.logger.Error("sqlite: list materials failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	materials := []pedforum.Material{}
	for rows.Next() {
		var m pedforum.Material
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Author, &m.Category, &m.FileType, &m.Downloads, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	s.logger.Debug("sqlite: list materials ok", "count", len(materials), "duration", time.Since(start))
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
	s.logger.Debug("sqlite: create material", "title", m.Title, "file_type", m.FileType)

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO materials (title, description, author, category, file_type, downloads, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?) RETURNING id`,
		m.Title, m.Description, m.Author, m.Category, m.FileType, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		s.logger.Error("sqlite: create material failed", "error", err, "duration", time.Since(start))
		return pedforum.Material{}, fmt.Errorf("insert material: %w", err)
	}
	s.logger.Debug("sqlite: create material ok", "id", m.ID, "duration", time.Since(start))
	return m, nil
}

// DeleteMaterial removes a material, returning pedforum.ErrNotFound when
// no row has the given id.
func (s *Store) DeleteMaterial(ctx context.Context, id int64) error {
	start := time.Now()
	s.logger.Debug("sqlite: delete material", "id", id)

	res, err := s.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		s.logger.Error("sqlite: delete material failed", "id", id, "error", err, "duration", time.Since(start))
		return fmt.Errorf("delete material: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if n == 0 {
		return pedforum.ErrNotFound
	}
	s.logger.Debug("sqlite: delete material ok", "id", id, "duration", time.Since(start))
	return nil
}

// --- Messages ---

// ListMessages returns messages oldest first.
func (s *Store) ListMessages(ctx context.Context) ([]pedforum.Message, error) {
	start := time.Now()
	s.logger.Debug("sqlite: list messages")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, author, text, created_at FROM messages ORDER BY created_at ASC, id ASC`)
	if err != nil {
		s.logger.Error("sqlite: list messages failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []pedforum.Message{}
	for rows.Next() {
		var m pedforum.Message
		if err := rows.Scan(&m.ID, &m.Author, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	s.logger.Debug("sqlite: list messages ok", "count", len(messages), "duration", time.Since(start))
	return messages, nil
}

// CreateMessage inserts a message and returns it with its assigned ID.
func (s *Store) CreateMessage(ctx context.Context, m pedforum.Message) (pedforum.Message, error) {
	start := time.Now()
	m = m.WithDefaults()
	if m.CreatedAt == 0 {
		m.CreatedAt = pedforum.NowUnix()
	}
	s.logger.Debug("sqlite: create message", "author", m.Author, "text_len", len(m.Text))

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (author, text, created_at) VALUES (?, ?, ?) RETURNING id`,
		m.Author, m.Text, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		s.logger.Error("sqlite: create message failed", "error", err, "duration", time.Since(start))
		return pedforum.Message{}, fmt.Errorf("insert message: %w", err)
	}
	s.logger.Debug("sqlite: create message ok", "id", m.ID, "duration", time.Since(start))
	return m, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.logger.Debug("sqlite: closing store")
	return s.db.Close()
}

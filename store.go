package pedforum

import "context"

// Store abstracts persistence of the portal's records. Each method runs a
// single statement; implementations acquire and release their connection
// within the call.
type Store interface {
	// --- Articles ---
	// ListArticles returns articles newest first. An empty category or "all"
	// returns every article.
	ListArticles(ctx context.Context, category string) ([]Article, error)
	CreateArticle(ctx context.Context, a Article) (Article, error)

	// --- Materials ---
	ListMaterials(ctx context.Context) ([]Material, error)
	CreateMaterial(ctx context.Context, m Material) (Material, error)
	// DeleteMaterial returns ErrNotFound when no material has the given id.
	DeleteMaterial(ctx context.Context, id int64) error

	// --- Messages ---
	// ListMessages returns messages oldest first.
	ListMessages(ctx context.Context) ([]Message, error)
	CreateMessage(ctx context.Context, m Message) (Message, error)

	// --- Lifecycle ---
	Init(ctx context.Context) error
	Close() error
}

// AllCategories is the category filter value that disables filtering.
const AllCategories = "all"

package server

import (
	"context"
	"log"

	"github.com/mohammad-safakhou/readmode/internal/export"
	"github.com/mohammad-safakhou/readmode/internal/search"
	"github.com/mohammad-safakhou/readmode/models"
	"github.com/mohammad-safakhou/readmode/repository"
)

// ArticleReader retrieves articles through the model and answers questions.
type ArticleReader interface {
	FetchArticle(ctx context.Context, pageURL string) (models.Article, error)
	AskQuestion(ctx context.Context, content, question string) string
}

// ArticleExtractor builds an article from the page without the model.
type ArticleExtractor interface {
	Extract(ctx context.Context, rawURL string) (models.Article, error)
}

// ArticleStore persists saved articles.
type ArticleStore interface {
	SaveArticle(ctx context.Context, a models.Article) (models.SavedArticle, error)
	GetArticle(ctx context.Context, id string) (models.SavedArticle, error)
	ListArticles(ctx context.Context, limit int) ([]models.SavedArticle, error)
	DeleteArticle(ctx context.Context, id string) error
}

// SearchIndex is the full-text index over saved articles.
type SearchIndex interface {
	Index(id string, a models.Article) error
	Delete(id string) error
	Search(q string, limit int) ([]search.Hit, error)
}

// SheetSaver appends saved articles to a spreadsheet.
type SheetSaver interface {
	Save(ctx context.Context, a models.Article) error
}

// Deps are the collaborators behind the HTTP handlers. Store, Index, Sheets
// and Printer are optional; routes that need a missing one answer 503.
type Deps struct {
	Reader    ArticleReader
	Extractor ArticleExtractor
	History   repository.HistoryRepository
	Store     ArticleStore
	Index     SearchIndex
	Printer   export.Printer
	Sheets    SheetSaver
	Logger    *log.Logger
}

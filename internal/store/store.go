package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/mohammad-safakhou/readmode/internal/helpers"
	"github.com/mohammad-safakhou/readmode/models"
)

// DefaultListLimit caps ListArticles when no limit is given.
const DefaultListLimit = 50

type Store struct {
	DB *sql.DB
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// SaveArticle stores a, keyed by its canonical URL. Saving the same page
// again replaces the stored copy and keeps the original id and saved_at.
func (s *Store) SaveArticle(ctx context.Context, a models.Article) (models.SavedArticle, error) {
	if strings.TrimSpace(a.Title) == "" {
		return models.SavedArticle{}, fmt.Errorf("title required")
	}
	fingerprint, err := helpers.URLFingerprint(a.URL)
	if err != nil {
		return models.SavedArticle{}, fmt.Errorf("url: %w", err)
	}
	sources := a.Sources
	if sources == nil {
		sources = []models.Source{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return models.SavedArticle{}, err
	}

	rec := models.SavedArticle{Article: a.Clone(), ContentHash: helpers.ContentHash(a.Content)}
	rec.Article.Sources = sources
	err = s.DB.QueryRowContext(ctx, `
INSERT INTO articles (id, url_fingerprint, url, title, author, site_name, content, sources, content_hash)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (url_fingerprint) DO UPDATE
SET url=EXCLUDED.url, title=EXCLUDED.title, author=EXCLUDED.author, site_name=EXCLUDED.site_name,
    content=EXCLUDED.content, sources=EXCLUDED.sources, content_hash=EXCLUDED.content_hash, updated_at=NOW()
RETURNING id, saved_at, updated_at
`, uuid.NewString(), fingerprint, a.URL, a.Title, a.Author, a.SiteName, a.Content, sourcesJSON, rec.ContentHash).
		Scan(&rec.ID, &rec.SavedAt, &rec.UpdatedAt)
	if err != nil {
		return models.SavedArticle{}, err
	}
	return rec, nil
}

const selectArticle = `
SELECT id, url, title, author, site_name, content, sources, content_hash, saved_at, updated_at
FROM articles
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (models.SavedArticle, error) {
	var rec models.SavedArticle
	var sources []byte
	a := &rec.Article
	if err := row.Scan(&rec.ID, &a.URL, &a.Title, &a.Author, &a.SiteName, &a.Content, &sources, &rec.ContentHash, &rec.SavedAt, &rec.UpdatedAt); err != nil {
		return models.SavedArticle{}, err
	}
	a.Sources = []models.Source{}
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &a.Sources); err != nil {
			return models.SavedArticle{}, fmt.Errorf("decode sources: %w", err)
		}
	}
	return rec, nil
}

// GetArticle returns the saved article with id, or models.ErrArticleNotFound.
func (s *Store) GetArticle(ctx context.Context, id string) (models.SavedArticle, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.SavedArticle{}, models.ErrArticleNotFound
	}
	rec, err := scanArticle(s.DB.QueryRowContext(ctx, selectArticle+`WHERE id=$1
`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.SavedArticle{}, models.ErrArticleNotFound
	}
	return rec, err
}

// ListArticles returns saved articles, most recently updated first.
func (s *Store) ListArticles(ctx context.Context, limit int) ([]models.SavedArticle, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.DB.QueryContext(ctx, selectArticle+`ORDER BY updated_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.SavedArticle{}
	for rows.Next() {
		rec, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteArticle removes a saved article.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrArticleNotFound
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM articles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrArticleNotFound
	}
	return nil
}

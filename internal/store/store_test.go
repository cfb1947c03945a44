package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/mohammad-safakhou/readmode/internal/helpers"
	"github.com/mohammad-safakhou/readmode/models"
)

type anyUUID struct{}

func (anyUUID) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && len(s) == 36
}

var articleColumns = []string{"id", "url", "title", "author", "site_name", "content", "sources", "content_hash", "saved_at", "updated_at"}

func TestSaveArticle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()

	a := models.Article{Title: "Title", Content: "Body", Author: "Unknown", SiteName: "Web", URL: "https://example.com/a?utm_source=x"}
	fp, _ := helpers.URLFingerprint(a.URL)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO articles (id, url_fingerprint, url, title, author, site_name, content, sources, content_hash)`)).
		WithArgs(anyUUID{}, fp, a.URL, "Title", "Unknown", "Web", "Body", []byte(`[]`), helpers.ContentHash("Body")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "saved_at", "updated_at"}).AddRow("6f1c1e4e-7c1f-4a55-9d51-58b1b7d1a001", now, now))

	rec, err := st.SaveArticle(context.Background(), a)
	if err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if rec.ID != "6f1c1e4e-7c1f-4a55-9d51-58b1b7d1a001" || !rec.SavedAt.Equal(now) {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if rec.Article.Sources == nil {
		t.Fatalf("expected non-nil sources")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveArticleValidation(t *testing.T) {
	st := &Store{}
	if _, err := st.SaveArticle(context.Background(), models.Article{URL: "https://example.com"}); err == nil {
		t.Fatalf("expected error for missing title")
	}
	if _, err := st.SaveArticle(context.Background(), models.Article{Title: "T", URL: "ftp://x"}); !errors.Is(err, helpers.ErrInvalidURL) {
		t.Fatalf("expected invalid url error, got %v", err)
	}
}

func TestGetArticle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()
	id := "6f1c1e4e-7c1f-4a55-9d51-58b1b7d1a001"

	mock.ExpectQuery(regexp.QuoteMeta(selectArticle + `WHERE id=$1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(articleColumns).AddRow(
			id, "https://example.com/a", "Title", "Jane", "Site", "Body",
			[]byte(`[{"title":"example.com","uri":"https://example.com/a"}]`), "hash", now, now,
		))

	rec, err := st.GetArticle(context.Background(), id)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if rec.Article.Title != "Title" || rec.Article.Author != "Jane" || rec.ContentHash != "hash" {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if len(rec.Article.Sources) != 1 || rec.Article.Sources[0].URI != "https://example.com/a" {
		t.Fatalf("unexpected sources: %#v", rec.Article.Sources)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	id := "6f1c1e4e-7c1f-4a55-9d51-58b1b7d1a002"

	mock.ExpectQuery(regexp.QuoteMeta(selectArticle + `WHERE id=$1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(articleColumns))

	if _, err := st.GetArticle(context.Background(), id); !errors.Is(err, models.ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
	if _, err := st.GetArticle(context.Background(), "not-a-uuid"); !errors.Is(err, models.ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound for malformed id, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListArticles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(selectArticle + `ORDER BY updated_at DESC`)).
		WithArgs(DefaultListLimit).
		WillReturnRows(sqlmock.NewRows(articleColumns).
			AddRow("id-1", "https://a.com", "A", "Unknown", "Web", "a", []byte(`[]`), "h1", now, now).
			AddRow("id-2", "https://b.com", "B", "Unknown", "Web", "b", nil, "h2", now, now))

	recs, err := st.ListArticles(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(recs) != 2 || recs[0].Article.Title != "A" || recs[1].Article.Sources == nil {
		t.Fatalf("unexpected records: %#v", recs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteArticle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	id := "6f1c1e4e-7c1f-4a55-9d51-58b1b7d1a003"

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM articles WHERE id=$1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM articles WHERE id=$1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := st.DeleteArticle(context.Background(), id); err != nil {
		t.Fatalf("DeleteArticle: %v", err)
	}
	if err := st.DeleteArticle(context.Background(), id); !errors.Is(err, models.ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMigrateRequiresDSN(t *testing.T) {
	if err := Migrate("file://migrations", "", "up", 0); err == nil {
		t.Fatalf("expected error without dsn")
	}
}

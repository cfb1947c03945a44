package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/readmode/config"
	"github.com/mohammad-safakhou/readmode/internal/reader"
	"github.com/mohammad-safakhou/readmode/internal/search"
	"github.com/mohammad-safakhou/readmode/models"
	"github.com/mohammad-safakhou/readmode/repository"
)

type fakeReader struct {
	article  models.Article
	err      error
	gotURL   string
	answer   string
	question string
}

func (f *fakeReader) FetchArticle(_ context.Context, pageURL string) (models.Article, error) {
	f.gotURL = pageURL
	if f.err != nil {
		return models.Article{}, f.err
	}
	a := f.article
	a.URL = pageURL
	return a, nil
}

func (f *fakeReader) AskQuestion(_ context.Context, _, question string) string {
	f.question = question
	return f.answer
}

type fakeStore struct {
	saved   map[string]models.SavedArticle
	saveErr error
}

func newFakeStore() *fakeStore { return &fakeStore{saved: map[string]models.SavedArticle{}} }

func (s *fakeStore) SaveArticle(_ context.Context, a models.Article) (models.SavedArticle, error) {
	if s.saveErr != nil {
		return models.SavedArticle{}, s.saveErr
	}
	rec := models.SavedArticle{ID: "id-" + a.Title, Article: a, SavedAt: time.Now(), UpdatedAt: time.Now()}
	s.saved[rec.ID] = rec
	return rec, nil
}

func (s *fakeStore) GetArticle(_ context.Context, id string) (models.SavedArticle, error) {
	rec, ok := s.saved[id]
	if !ok {
		return models.SavedArticle{}, models.ErrArticleNotFound
	}
	return rec, nil
}

func (s *fakeStore) ListArticles(context.Context, int) ([]models.SavedArticle, error) {
	out := []models.SavedArticle{}
	for _, rec := range s.saved {
		out = append(out, rec)
	}
	return out, nil
}

func (s *fakeStore) DeleteArticle(_ context.Context, id string) error {
	if _, ok := s.saved[id]; !ok {
		return models.ErrArticleNotFound
	}
	delete(s.saved, id)
	return nil
}

type fakeSheets struct {
	rows []models.Article
	err  error
}

func (f *fakeSheets) Save(_ context.Context, a models.Article) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, a)
	return nil
}

type fakePrinter struct{}

func (fakePrinter) Print(context.Context, models.Article) ([]byte, error) {
	return []byte("%PDF-1.4 fake"), nil
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestServer(t *testing.T, deps Deps) *echo.Echo {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = quietLogger()
	}
	return New(config.ServerConfig{RequestTimeout: time.Second}, deps)
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestFetchArticleRecordsHistory(t *testing.T) {
	rd := &fakeReader{article: models.Article{Title: "Hello", Content: "Body", Author: "Unknown", SiteName: "Web", Sources: []models.Source{}}}
	hist := repository.NewMemoryHistory(10)
	e := newTestServer(t, Deps{Reader: rd, History: hist})

	rec := do(e, http.MethodPost, "/api/articles", `{"url":"example.com/post"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rd.gotURL != "https://example.com/post" {
		t.Fatalf("reader got %q", rd.gotURL)
	}
	var a models.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Title != "Hello" || a.URL != "https://example.com/post" {
		t.Fatalf("unexpected article: %+v", a)
	}

	entries, _ := hist.List(context.Background())
	if len(entries) != 1 || entries[0].Title != "Hello" {
		t.Fatalf("history not recorded: %+v", entries)
	}
}

func TestFetchArticleErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"safety block", &reader.ContentBlocked{Kind: reader.BlockSafety}, http.StatusUnprocessableEntity},
		{"copyright block", &reader.ContentBlocked{Kind: reader.BlockCopyright}, http.StatusUnprocessableEntity},
		{"generation failure", &reader.GenerationFailure{Kind: reader.FailureEmpty}, http.StatusBadGateway},
		{"timeout", &reader.GenerationFailure{Kind: reader.FailureTransport, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist := repository.NewMemoryHistory(10)
			e := newTestServer(t, Deps{Reader: &fakeReader{err: tt.err}, History: hist})
			rec := do(e, http.MethodPost, "/api/articles", `{"url":"https://example.com"}`)
			if rec.Code != tt.code {
				t.Fatalf("expected %d got %d", tt.code, rec.Code)
			}
			var body map[string]string
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body["error"] == "" {
				t.Fatalf("expected an error message, got %s", rec.Body.String())
			}
			if entries, _ := hist.List(context.Background()); len(entries) != 0 {
				t.Fatalf("failed fetch should not be recorded: %+v", entries)
			}
		})
	}
}

func TestFetchArticleHidesProviderDetail(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transport failure", &reader.GenerationFailure{Kind: reader.FailureTransport, Model: "m", Err: errors.New("googleapi: Error 500: secret detail")}},
		{"unclassified error", errors.New("dial tcp 10.0.0.1:443: secret detail")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(t, Deps{Reader: &fakeReader{err: tt.err}})
			rec := do(e, http.MethodPost, "/api/articles", `{"url":"https://example.com"}`)
			if rec.Code != http.StatusBadGateway {
				t.Fatalf("expected 502 got %d", rec.Code)
			}
			if strings.Contains(rec.Body.String(), "secret detail") {
				t.Fatalf("provider detail leaked: %s", rec.Body.String())
			}
			var body map[string]string
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body["error"] == "" {
				t.Fatalf("expected an error message, got %s", rec.Body.String())
			}
		})
	}
}

func TestFetchArticleRejectsBadURL(t *testing.T) {
	e := newTestServer(t, Deps{Reader: &fakeReader{}})
	rec := do(e, http.MethodPost, "/api/articles", `{"url":"ftp://example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAskAlwaysOK(t *testing.T) {
	rd := &fakeReader{answer: reader.FallbackAnswer}
	e := newTestServer(t, Deps{Reader: rd})
	rec := do(e, http.MethodPost, "/api/articles/ask", `{"content":"","question":"why?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["answer"] != reader.FallbackAnswer || rd.question != "why?" {
		t.Fatalf("unexpected answer %q for %q", body["answer"], rd.question)
	}
}

const articleJSON = `{"title":"Go & You","content":"Hello **world**","author":"Unknown","siteName":"Web","url":"https://example.com/go"}`

func TestExportFormats(t *testing.T) {
	e := newTestServer(t, Deps{Reader: &fakeReader{}, Printer: fakePrinter{}})
	tests := []struct {
		format      string
		contentType string
		filename    string
		contains    string
	}{
		{"md", "text/markdown", "go-you.md", "# Go & You"},
		{"html", "text/html", "go-you.html", "<strong>world</strong>"},
		{"pdf", "application/pdf", "go-you.pdf", "%PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/articles/export?format="+tt.format, articleJSON)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, tt.contentType) {
				t.Fatalf("content type %q", ct)
			}
			if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, tt.filename) {
				t.Fatalf("content disposition %q", cd)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Fatalf("body missing %q", tt.contains)
			}
		})
	}

	if rec := do(e, http.MethodPost, "/api/articles/export?format=docx", articleJSON); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/articles/export", `{"content":"x"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without title, got %d", rec.Code)
	}
}

func TestSaveIndexesAndAppendsSheet(t *testing.T) {
	st := newFakeStore()
	idx, err := search.Open("")
	if err != nil {
		t.Fatalf("search.Open: %v", err)
	}
	defer idx.Close()
	sheet := &fakeSheets{}
	e := newTestServer(t, Deps{Reader: &fakeReader{}, Store: st, Index: idx, Sheets: sheet})

	rec := do(e, http.MethodPost, "/api/articles/save", `{"title":"Concurrency","content":"goroutines and channels","url":"https://example.com/c"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["id"] != "id-Concurrency" || body["indexed"] != true || body["sheet"] != "appended" {
		t.Fatalf("unexpected response: %v", body)
	}
	if len(sheet.rows) != 1 {
		t.Fatalf("expected one sheet row, got %d", len(sheet.rows))
	}

	rec = do(e, http.MethodGet, "/api/articles/search?q=channels", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("search: %d", rec.Code)
	}
	var hits []search.Hit
	if err := json.Unmarshal(rec.Body.Bytes(), &hits); err != nil {
		t.Fatalf("decode hits: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "id-Concurrency" {
		t.Fatalf("unexpected hits: %+v", hits)
	}

	if rec := do(e, http.MethodGet, "/api/articles/saved/id-Concurrency", ""); rec.Code != http.StatusOK {
		t.Fatalf("get saved: %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/api/articles/saved/id-Concurrency", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete saved: %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/articles/saved/id-Concurrency", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if n, _ := idx.Count(); n != 0 {
		t.Fatalf("expected index entry removed, count=%d", n)
	}
}

func TestSaveSheetFailureDoesNotFail(t *testing.T) {
	e := newTestServer(t, Deps{Reader: &fakeReader{}, Store: newFakeStore(), Sheets: &fakeSheets{err: errors.New("quota")}})
	rec := do(e, http.MethodPost, "/api/articles/save", articleJSON)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sheet":"failed"`) {
		t.Fatalf("expected sheet failure reported: %s", rec.Body.String())
	}
}

func TestOptionalDependenciesUnavailable(t *testing.T) {
	e := newTestServer(t, Deps{Reader: &fakeReader{}})
	for _, tc := range []struct{ method, target, body string }{
		{http.MethodPost, "/api/articles/save", articleJSON},
		{http.MethodGet, "/api/articles/search?q=x", ""},
		{http.MethodGet, "/api/articles/saved", ""},
		{http.MethodPost, "/api/articles/extract", `{"url":"https://example.com"}`},
		{http.MethodPost, "/api/articles/export?format=pdf", articleJSON},
	} {
		if rec := do(e, tc.method, tc.target, tc.body); rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s %s: expected 503 got %d", tc.method, tc.target, rec.Code)
		}
	}
}

func TestHistoryRoutes(t *testing.T) {
	hist := repository.NewMemoryHistory(10)
	ctx := context.Background()
	first, _ := hist.Add(ctx, models.HistoryEntry{URL: "https://a.example.com", Title: "A"})
	_, _ = hist.Add(ctx, models.HistoryEntry{URL: "https://b.example.com", Title: "B"})
	e := newTestServer(t, Deps{Reader: &fakeReader{}, History: hist})

	rec := do(e, http.MethodGet, "/api/history", "")
	var entries []models.HistoryEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 || entries[0].Title != "B" {
		t.Fatalf("unexpected history: %+v", entries)
	}

	if rec := do(e, http.MethodDelete, "/api/history/"+first.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("remove: %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/api/history/"+first.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for removed entry, got %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/api/history", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear: %d", rec.Code)
	}
	if entries, _ := hist.List(ctx); len(entries) != 0 {
		t.Fatalf("expected empty history, got %+v", entries)
	}
}

func TestHealthz(t *testing.T) {
	e := newTestServer(t, Deps{Reader: &fakeReader{}})
	rec := do(e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
}

func TestExportFilename(t *testing.T) {
	tests := map[string]string{
		"Go & You":          "go-you",
		"  ":                "article",
		"Déjà vu: a story!": "d-j-vu-a-story",
	}
	for title, want := range tests {
		if got := exportFilename(title, "md"); got != want+".md" {
			t.Fatalf("exportFilename(%q) = %q, want %q", title, got, want+".md")
		}
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/readmode/internal/export"
	"github.com/mohammad-safakhou/readmode/internal/helpers"
	"github.com/mohammad-safakhou/readmode/internal/reader"
	"github.com/mohammad-safakhou/readmode/models"
)

// ArticlesHandler serves retrieval, questions, export and saved articles.
type ArticlesHandler struct {
	Deps
	// Timeout bounds each request; zero leaves the request context alone.
	Timeout time.Duration
}

func (h *ArticlesHandler) Register(g *echo.Group) {
	g.POST("", h.fetch)
	g.POST("/ask", h.ask)
	g.POST("/extract", h.extract)
	g.POST("/export", h.export)
	g.POST("/save", h.save)
	g.GET("/search", h.search)
	g.GET("/saved", h.listSaved)
	g.GET("/saved/:id", h.getSaved)
	g.DELETE("/saved/:id", h.deleteSaved)
}

func (h *ArticlesHandler) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.Default()
}

func (h *ArticlesHandler) requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	if h.Timeout > 0 {
		return context.WithTimeout(c.Request().Context(), h.Timeout)
	}
	return context.WithCancel(c.Request().Context())
}

type urlRequest struct {
	URL string `json:"url"`
}

func bindURL(c echo.Context) (string, error) {
	var req urlRequest
	if err := c.Bind(&req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := helpers.EnsureScheme(req.URL)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return u, nil
}

// retrievalError maps reader and extractor failures to HTTP statuses. The
// response carries a fixed message; err is kept as the internal cause so the
// error handler logs it.
func retrievalError(err error) error {
	var blocked *reader.ContentBlocked
	var failed *reader.GenerationFailure
	switch {
	case errors.As(err, &blocked):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, blocked.Error()).SetInternal(err)
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "the request timed out").SetInternal(err)
	case errors.As(err, &failed):
		return echo.NewHTTPError(http.StatusBadGateway, failed.Error()).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusBadGateway, "could not retrieve the page").SetInternal(err)
	}
}

func (h *ArticlesHandler) recordHistory(ctx context.Context, a models.Article) {
	if h.History == nil {
		return
	}
	if _, err := h.History.Add(ctx, models.HistoryEntry{URL: a.URL, Title: a.Title}); err != nil {
		h.logger().Printf("history add %s: %v", a.URL, err)
	}
}

// fetch retrieves the article at url through the model.
func (h *ArticlesHandler) fetch(c echo.Context) error {
	pageURL, err := bindURL(c)
	if err != nil {
		return err
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()
	a, err := h.Reader.FetchArticle(ctx, pageURL)
	if err != nil {
		return retrievalError(err)
	}
	h.recordHistory(ctx, a)
	return c.JSON(http.StatusOK, a)
}

// ask answers a question about the given content. It always answers 200.
func (h *ArticlesHandler) ask(c echo.Context) error {
	var req struct {
		Content  string `json:"content"`
		Question string `json:"question"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()
	answer := h.Reader.AskQuestion(ctx, req.Content, req.Question)
	return c.JSON(http.StatusOK, map[string]string{"answer": answer})
}

// extract builds the article locally with readability.
func (h *ArticlesHandler) extract(c echo.Context) error {
	if h.Extractor == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "extraction not configured")
	}
	pageURL, err := bindURL(c)
	if err != nil {
		return err
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()
	a, err := h.Extractor.Extract(ctx, pageURL)
	if err != nil {
		return retrievalError(err)
	}
	h.recordHistory(ctx, a)
	return c.JSON(http.StatusOK, a)
}

func bindArticle(c echo.Context) (models.Article, error) {
	var a models.Article
	if err := c.Bind(&a); err != nil {
		return a, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.URL) == "" {
		return a, echo.NewHTTPError(http.StatusBadRequest, "title and url required")
	}
	if a.Sources == nil {
		a.Sources = []models.Source{}
	}
	return a, nil
}

// export renders the posted article as md, html or pdf.
func (h *ArticlesHandler) export(c echo.Context) error {
	a, err := bindArticle(c)
	if err != nil {
		return err
	}
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = "md"
	}
	var body []byte
	var contentType string
	switch format {
	case "md", "markdown":
		format, contentType = "md", "text/markdown; charset=utf-8"
		body, err = export.Markdown(a)
	case "html":
		contentType = echo.MIMETextHTMLCharsetUTF8
		body, err = export.HTML(a)
	case "pdf":
		if h.Printer == nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "pdf export not configured")
		}
		contentType = "application/pdf"
		ctx, cancel := h.requestContext(c)
		defer cancel()
		body, err = h.Printer.Print(ctx, a)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exportFilename(a.Title, format)))
	return c.Blob(http.StatusOK, contentType, body)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// exportFilename derives an ASCII file name from the title.
func exportFilename(title, ext string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	slug = helpers.TruncateRunes(slug, 80)
	slug = strings.TrimRight(slug, "-")
	if slug == "" {
		slug = "article"
	}
	return slug + "." + ext
}

// save persists the article, indexes it and appends it to the sheet when
// one is configured. Index and sheet failures do not fail the save.
func (h *ArticlesHandler) save(c echo.Context) error {
	if h.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage not configured")
	}
	a, err := bindArticle(c)
	if err != nil {
		return err
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()
	rec, err := h.Store.SaveArticle(ctx, a)
	if errors.Is(err, helpers.ErrInvalidURL) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := map[string]interface{}{
		"id":         rec.ID,
		"saved_at":   rec.SavedAt,
		"updated_at": rec.UpdatedAt,
		"indexed":    false,
	}
	if h.Index != nil {
		if err := h.Index.Index(rec.ID, rec.Article); err != nil {
			h.logger().Printf("index %s: %v", rec.ID, err)
		} else {
			resp["indexed"] = true
		}
	}
	if h.Sheets != nil {
		if err := h.Sheets.Save(ctx, rec.Article); err != nil {
			h.logger().Printf("sheet append %s: %v", rec.ID, err)
			resp["sheet"] = "failed"
		} else {
			resp["sheet"] = "appended"
		}
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *ArticlesHandler) search(c echo.Context) error {
	if h.Index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search not configured")
	}
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	hits, err := h.Index.Search(q, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, hits)
}

func (h *ArticlesHandler) listSaved(c echo.Context) error {
	if h.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage not configured")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.Store.ListArticles(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ArticlesHandler) getSaved(c echo.Context) error {
	if h.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage not configured")
	}
	rec, err := h.Store.GetArticle(c.Request().Context(), c.Param("id"))
	if errors.Is(err, models.ErrArticleNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *ArticlesHandler) deleteSaved(c echo.Context) error {
	if h.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage not configured")
	}
	id := c.Param("id")
	err := h.Store.DeleteArticle(c.Request().Context(), id)
	if errors.Is(err, models.ErrArticleNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if h.Index != nil {
		if err := h.Index.Delete(id); err != nil {
			h.logger().Printf("unindex %s: %v", id, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/readmode/config"
	"github.com/mohammad-safakhou/readmode/internal/export"
	"github.com/mohammad-safakhou/readmode/internal/extract"
	"github.com/mohammad-safakhou/readmode/internal/logging"
	"github.com/mohammad-safakhou/readmode/internal/reader"
	"github.com/mohammad-safakhou/readmode/internal/search"
	"github.com/mohammad-safakhou/readmode/internal/store"
	gemini_provider "github.com/mohammad-safakhou/readmode/provider/gemini"
	"github.com/mohammad-safakhou/readmode/repository"
)

// New builds the echo instance with every route mounted.
func New(cfg config.ServerConfig, deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	e.Use(requestMetrics)

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	ah := &ArticlesHandler{Deps: deps, Timeout: cfg.RequestTimeout}
	ah.Register(api.Group("/articles"))
	hh := &HistoryHandler{History: deps.History}
	hh.Register(api.Group("/history"))
	return e
}

// Build wires the runtime dependencies from cfg. The returned cleanup
// releases what was opened and is safe to call when err is non-nil.
func Build(ctx context.Context, cfg *config.Config) (Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	deps := Deps{Logger: logging.New("api")}

	llm, err := gemini_provider.NewClientFromConfig(ctx, cfg.LLM)
	if err != nil {
		return deps, cleanup, err
	}
	deps.Reader = reader.New(llm, reader.OptionsFromConfig(cfg.LLM, logging.New("reader")))

	ex, err := extract.NewFromConfig(cfg.Extract, logging.New("extract"))
	if err != nil {
		return deps, cleanup, err
	}
	deps.Extractor = ex

	hist, err := repository.NewHistoryRepository(ctx, *cfg)
	if err != nil {
		return deps, cleanup, err
	}
	deps.History = hist

	if cfg.Storage.Postgres.Enabled() {
		dsn := cfg.Storage.Postgres.DSN()
		if err := store.Migrate("file://migrations", dsn, "up", 0); err != nil {
			return deps, cleanup, fmt.Errorf("migrate: %w", err)
		}
		st, err := store.NewWithDSN(ctx, dsn)
		if err != nil {
			return deps, cleanup, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, func() { _ = st.Close() })
		deps.Store = st
	} else {
		log.Printf("postgres not configured; saving articles is disabled")
	}

	idx, err := search.Open(cfg.Search.IndexPath)
	if err != nil {
		return deps, cleanup, err
	}
	closers = append(closers, func() { _ = idx.Close() })
	deps.Index = idx

	deps.Printer = export.PDFPrinter{Timeout: cfg.Export.PDFTimeout, Logger: logging.New("pdf")}

	if cfg.Export.Sheets.Enabled() {
		saver, err := export.NewSheetsSaver(ctx, cfg.Export.Sheets)
		if err != nil {
			return deps, cleanup, fmt.Errorf("sheets: %w", err)
		}
		deps.Sheets = saver
	}
	return deps, cleanup, nil
}

// Run serves the API until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	deps, cleanup, err := Build(ctx, cfg)
	defer cleanup()
	if err != nil {
		return err
	}
	e := New(cfg.Server, deps)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", cfg.Server.Address)
	if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

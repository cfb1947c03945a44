package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mohammad-safakhou/readmode/config"
	"github.com/mohammad-safakhou/readmode/internal/export"
	"github.com/mohammad-safakhou/readmode/internal/logging"
	"github.com/mohammad-safakhou/readmode/models"
)

// render encodes a in the requested format: json, md, html or pdf.
func render(ctx context.Context, cfg config.ExportConfig, a models.Article, format string) ([]byte, error) {
	switch format {
	case "", "json":
		b, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case "md", "markdown":
		return export.Markdown(a)
	case "html":
		return export.HTML(a)
	case "pdf":
		p := export.PDFPrinter{Timeout: cfg.PDFTimeout, Logger: logging.New("pdf")}
		return p.Print(ctx, a)
	default:
		return nil, fmt.Errorf("unsupported format %q (json, md, html, pdf)", format)
	}
}

// writeOutput writes b to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, b []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// readArticle loads an article JSON document from path, or from r for "-".
func readArticle(r io.Reader, path string) (models.Article, error) {
	var a models.Article
	var b []byte
	var err error
	if path == "" || path == "-" {
		b, err = io.ReadAll(r)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return a, fmt.Errorf("decode article: %w", err)
	}
	if a.Sources == nil {
		a.Sources = []models.Source{}
	}
	return a, nil
}

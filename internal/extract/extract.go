package extract

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/readmode/internal/helpers"
	"github.com/mohammad-safakhou/readmode/models"
)

// ErrNoContent is returned when readability finds no article text.
var ErrNoContent = errors.New("no readable content found")

// Extractor builds an article from the page itself, without the model.
type Extractor struct {
	fetcher HTMLFetcher
	logger  *log.Logger
}

func New(fetcher HTMLFetcher, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.New(log.Writer(), "[EXTRACT] ", log.LstdFlags)
	}
	return &Extractor{fetcher: fetcher, logger: logger}
}

// Extract fetches rawURL and runs readability over it. The result uses the
// same defaults as model retrieval: Unknown author, Web site name and the
// URL itself as the only source.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (models.Article, error) {
	pageURL, err := helpers.EnsureScheme(rawURL)
	if err != nil {
		return models.Article{}, err
	}
	t0 := time.Now()
	page, err := e.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		return models.Article{}, fmt.Errorf("extract %s: %w", pageURL, err)
	}
	return e.FromHTML(page, pageURL, time.Since(t0))
}

// FromHTML runs readability over an already fetched document.
func (e *Extractor) FromHTML(page, pageURL string, fetchTime time.Duration) (models.Article, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return models.Article{}, err
	}
	article, err := readability.FromReader(strings.NewReader(page), parsed)
	if err != nil {
		return models.Article{}, fmt.Errorf("readability: %w", err)
	}
	content := paragraphs(article.TextContent)
	if content == "" {
		return models.Article{}, ErrNoContent
	}
	if img := strings.TrimSpace(article.Image); img != "" {
		content = fmt.Sprintf("![](%s)\n\n%s", img, content)
	}

	out := models.Article{
		Title:    plainText(article.Title),
		Content:  content,
		Author:   plainText(article.Byline),
		SiteName: plainText(article.SiteName),
		URL:      pageURL,
		Sources:  []models.Source{},
	}
	if out.Title == "" {
		out.Title = parsed.Hostname()
	}
	if out.Author == "" {
		out.Author = models.UnknownAuthor
	}
	if out.SiteName == "" {
		out.SiteName = models.DefaultSiteName
	}
	if domain := helpers.Domain(pageURL); domain != "" {
		out.Sources = append(out.Sources, models.Source{Title: domain, URI: pageURL})
	}
	e.logger.Printf("extracted %s: title=%q chars=%d in %s", pageURL, out.Title, len(out.Content), fetchTime)
	return out, nil
}

// plainText drops any markup left in readability metadata.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(helpers.SanitizeHTMLStrict(s)))
}

// paragraphs turns readability's text into Markdown paragraphs.
func paragraphs(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n\n")
}

package search

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/mohammad-safakhou/readmode/models"
)

// DefaultLimit is used when Search is called without a positive limit.
const DefaultLimit = 10

// Hit is one search result.
type Hit struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	SiteName string  `json:"siteName"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
}

// document is what gets indexed; json names become bleve field names.
type document struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	SiteName string `json:"siteName"`
	URL      string `json:"url"`
	Content  string `json:"content"`
}

// Index is a full-text index over saved articles.
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
}

// Open opens the index at path, creating it when missing. An empty path
// gives an in-memory index.
func Open(path string) (*Index, error) {
	if strings.TrimSpace(path) == "" {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, err
		}
		return &Index{bleve: idx}, nil
	}
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open search index %s: %w", path, err)
	}
	return &Index{bleve: idx}, nil
}

// Index adds or replaces the article stored under id.
func (s *Index) Index(id string, a models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bleve.Index(id, document{
		Title:    a.Title,
		Author:   a.Author,
		SiteName: a.SiteName,
		URL:      a.URL,
		Content:  a.Content,
	})
}

// Delete removes id from the index; unknown ids are ignored.
func (s *Index) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bleve.Delete(id)
}

// Search matches q against titles (boosted) and article bodies.
func (s *Index) Search(q string, limit int) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	title := bleve.NewMatchQuery(q)
	title.SetField("title")
	title.SetBoost(2)
	content := bleve.NewMatchQuery(q)
	content.SetField("content")
	site := bleve.NewMatchQuery(q)
	site.SetField("siteName")

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(title, content, site), limit, 0, false)
	req.Fields = []string{"title", "url", "siteName", "content"}
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Highlight.AddField("content")

	s.mu.RLock()
	res, err := s.bleve.Search(req)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	out := make([]Hit, 0, len(res.Hits))
	for i, h := range res.Hits {
		hit := Hit{
			ID:       h.ID,
			Title:    fieldString(h.Fields, "title"),
			URL:      fieldString(h.Fields, "url"),
			SiteName: fieldString(h.Fields, "siteName"),
			Score:    h.Score,
			Rank:     i + 1,
		}
		if frags := h.Fragments["content"]; len(frags) > 0 {
			hit.Snippet = frags[0]
		} else {
			hit.Snippet = snippet(fieldString(h.Fields, "content"))
		}
		out = append(out, hit)
	}
	return out, nil
}

// Count returns the number of indexed documents.
func (s *Index) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bleve.DocCount()
}

func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bleve.Close()
}

func fieldString(fields map[string]interface{}, name string) string {
	v, _ := fields[name].(string)
	return v
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= 200 {
		return s
	}
	return string(r[:200]) + "…"
}

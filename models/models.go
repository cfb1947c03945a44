package models

import (
	"errors"
	"time"
)

// ErrArticleNotFound is returned when a saved article is not found
var ErrArticleNotFound = errors.New("article not found")

// ErrHistoryEntryNotFound is returned when removing an unknown history entry
var ErrHistoryEntryNotFound = errors.New("history entry not found")

const (
	UnknownAuthor   = "Unknown"
	DefaultSiteName = "Web"
)

// Article is the normalized reader-mode record produced by a retrieval call.
type Article struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Author   string   `json:"author"`
	SiteName string   `json:"siteName"`
	URL      string   `json:"url"`
	Sources  []Source `json:"sources"`
}

// Source is a citation surfaced by the search grounding tool.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Clone returns a copy that shares no slice memory with a.
func (a Article) Clone() Article {
	out := a
	if a.Sources != nil {
		out.Sources = append([]Source(nil), a.Sources...)
	}
	return out
}

// HistoryEntry is the lightweight projection kept in the reading history.
type HistoryEntry struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	ViewedAt time.Time `json:"viewed_at"`
}

// SavedArticle is an article persisted by the user.
type SavedArticle struct {
	ID          string    `json:"id"`
	Article     Article   `json:"article"`
	ContentHash string    `json:"content_hash"`
	SavedAt     time.Time `json:"saved_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

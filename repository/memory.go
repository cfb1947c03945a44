package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/readmode/internal/helpers"
	"github.com/mohammad-safakhou/readmode/models"
)

// memoryHistory keeps the history in process, newest entry first.
type memoryHistory struct {
	mu      sync.Mutex
	limit   int
	entries []memoryEntry
}

type memoryEntry struct {
	key   string
	entry models.HistoryEntry
}

// NewMemoryHistory returns a history bounded to limit entries.
func NewMemoryHistory(limit int) HistoryRepository {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &memoryHistory{limit: limit}
}

func (m *memoryHistory) Add(_ context.Context, entry models.HistoryEntry) (models.HistoryEntry, error) {
	entry, key, err := prepareEntry(entry)
	if err != nil {
		return models.HistoryEntry{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := make([]memoryEntry, 0, len(m.entries)+1)
	kept = append(kept, memoryEntry{key: key, entry: entry})
	for _, e := range m.entries {
		if e.key == key {
			continue
		}
		if len(kept) == m.limit {
			break
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return entry, nil
}

func (m *memoryHistory) List(_ context.Context) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.HistoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.entry)
	}
	return out, nil
}

func (m *memoryHistory) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.entry.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return models.ErrHistoryEntryNotFound
}

func (m *memoryHistory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
	return nil
}

// prepareEntry fills ID and ViewedAt and returns the dedup key for the URL.
func prepareEntry(entry models.HistoryEntry) (models.HistoryEntry, string, error) {
	key, err := helpers.URLFingerprint(entry.URL)
	if err != nil {
		return models.HistoryEntry{}, "", err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ViewedAt.IsZero() {
		entry.ViewedAt = time.Now().UTC()
	}
	return entry, key, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mohammad-safakhou/readmode/config"
	"github.com/mohammad-safakhou/readmode/models"
)

func TestMemoryHistoryMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(10)
	for _, u := range []string{"https://a.com/1", "https://b.com/2", "https://c.com/3"} {
		if _, err := h.Add(ctx, models.HistoryEntry{URL: u, Title: u}); err != nil {
			t.Fatalf("Add(%s): %v", u, err)
		}
	}
	got, err := h.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"https://c.com/3", "https://b.com/2", "https://a.com/1"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].URL != want[i] {
			t.Fatalf("position %d: want %s got %s", i, want[i], got[i].URL)
		}
		if got[i].ID == "" || got[i].ViewedAt.IsZero() {
			t.Fatalf("entry %d missing id or time: %+v", i, got[i])
		}
	}
}

func TestMemoryHistoryReaddMovesToFront(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(10)
	_, _ = h.Add(ctx, models.HistoryEntry{URL: "https://a.com/post?utm_source=x", Title: "old title"})
	_, _ = h.Add(ctx, models.HistoryEntry{URL: "https://b.com/"})
	_, _ = h.Add(ctx, models.HistoryEntry{URL: "https://A.com/post", Title: "new title"})

	got, _ := h.List(ctx)
	if len(got) != 2 {
		t.Fatalf("expected duplicate URL to collapse, got %d entries", len(got))
	}
	if got[0].Title != "new title" || got[1].URL != "https://b.com/" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestMemoryHistoryBounded(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(3)
	for i := 0; i < 5; i++ {
		_, _ = h.Add(ctx, models.HistoryEntry{URL: fmt.Sprintf("https://example.com/%d", i)})
	}
	got, _ := h.List(ctx)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].URL != "https://example.com/4" || got[2].URL != "https://example.com/2" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestMemoryHistoryRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(0)
	first, _ := h.Add(ctx, models.HistoryEntry{URL: "https://a.com", ViewedAt: time.Unix(100, 0)})
	_, _ = h.Add(ctx, models.HistoryEntry{URL: "https://b.com"})

	if err := h.Remove(ctx, first.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := h.Remove(ctx, first.ID); !errors.Is(err, models.ErrHistoryEntryNotFound) {
		t.Fatalf("expected ErrHistoryEntryNotFound, got %v", err)
	}
	got, _ := h.List(ctx)
	if len(got) != 1 || got[0].URL != "https://b.com" {
		t.Fatalf("unexpected entries after remove: %+v", got)
	}
	if err := h.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := h.List(ctx); len(got) != 0 {
		t.Fatalf("expected empty history, got %+v", got)
	}
}

func TestMemoryHistoryRejectsInvalidURL(t *testing.T) {
	if _, err := NewMemoryHistory(5).Add(context.Background(), models.HistoryEntry{URL: "  "}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestMemoryHistoryConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(DefaultHistoryLimit)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = h.Add(ctx, models.HistoryEntry{URL: fmt.Sprintf("https://example.com/%d", i)})
		}(i)
	}
	wg.Wait()
	got, _ := h.List(ctx)
	if len(got) != DefaultHistoryLimit {
		t.Fatalf("expected %d entries, got %d", DefaultHistoryLimit, len(got))
	}
}

func TestNewHistoryRepository(t *testing.T) {
	repo, err := NewHistoryRepository(context.Background(), config.Config{History: config.HistoryConfig{Backend: "memory", Limit: 2}})
	if err != nil {
		t.Fatalf("NewHistoryRepository: %v", err)
	}
	if _, ok := repo.(*memoryHistory); !ok {
		t.Fatalf("expected memory backend, got %T", repo)
	}
	if _, err := NewHistoryRepository(context.Background(), config.Config{History: config.HistoryConfig{Backend: "sqlite"}}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

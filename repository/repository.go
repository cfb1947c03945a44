package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/readmode/config"
	"github.com/mohammad-safakhou/readmode/models"
	"github.com/mohammad-safakhou/readmode/repository/redis_repository"
)

// DefaultHistoryLimit bounds the reading history when no limit is configured.
const DefaultHistoryLimit = redis_repository.DefaultHistoryLimit

// HistoryRepository stores the most recently read articles, newest first.
// Adding a URL that is already present moves it to the front.
type HistoryRepository interface {
	Add(ctx context.Context, entry models.HistoryEntry) (models.HistoryEntry, error)
	List(ctx context.Context) ([]models.HistoryEntry, error)
	Remove(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type RepoType string

const (
	RepoTypeMemory RepoType = "memory"
	RepoTypeRedis  RepoType = "redis"
)

// NewHistoryRepository builds the backend selected by cfg.History.Backend.
func NewHistoryRepository(ctx context.Context, cfg config.Config) (HistoryRepository, error) {
	limit := cfg.History.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	switch RepoType(cfg.History.Backend) {
	case RepoTypeMemory, "":
		return NewMemoryHistory(limit), nil
	case RepoTypeRedis:
		rc := cfg.Storage.Redis
		c, err := redis_repository.Conn(ctx, rc.Host, rc.Port, rc.Password, rc.DB, rc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Printf("history: redis backend at %s, limit %d", rc.Addr(), limit)
		return redis_repository.NewRedisHistoryRepository(c, limit), nil
	}
	return nil, fmt.Errorf("invalid repository type: %s", cfg.History.Backend)
}

package redis_repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/readmode/internal/helpers"
	"github.com/mohammad-safakhou/readmode/models"
)

// DefaultHistoryLimit is used when a non-positive limit is given.
const DefaultHistoryLimit = 50

const (
	historyOrderKey   = "readmode:history"
	historyEntriesKey = "readmode:history:entries"
)

// redisHistoryRepository keeps URL fingerprints in a sorted set scored by view
// time and the entries themselves in a hash keyed by fingerprint.
type redisHistoryRepository struct {
	client *redis.Client
	limit  int
}

func NewRedisHistoryRepository(client *redis.Client, limit int) *redisHistoryRepository {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &redisHistoryRepository{client: client, limit: limit}
}

func (r *redisHistoryRepository) Add(ctx context.Context, entry models.HistoryEntry) (models.HistoryEntry, error) {
	key, err := helpers.URLFingerprint(entry.URL)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ViewedAt.IsZero() {
		entry.ViewedAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return models.HistoryEntry{}, err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, historyEntriesKey, key, data)
		pipe.ZAdd(ctx, historyOrderKey, redis.Z{Score: float64(entry.ViewedAt.UnixNano()), Member: key})
		return nil
	})
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("add history entry: %w", err)
	}
	if err := r.trim(ctx); err != nil {
		return models.HistoryEntry{}, err
	}
	return entry, nil
}

// trim drops everything older than the newest r.limit entries.
func (r *redisHistoryRepository) trim(ctx context.Context) error {
	stale, err := r.client.ZRange(ctx, historyOrderKey, 0, int64(-r.limit-1)).Result()
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	members := make([]interface{}, len(stale))
	for i, s := range stale {
		members[i] = s
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, historyOrderKey, members...)
		pipe.HDel(ctx, historyEntriesKey, stale...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

func (r *redisHistoryRepository) List(ctx context.Context) ([]models.HistoryEntry, error) {
	keys, err := r.client.ZRevRange(ctx, historyOrderKey, 0, int64(r.limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]models.HistoryEntry, 0, len(keys))
	if len(keys) == 0 {
		return entries, nil
	}
	values, err := r.client.HMGet(ctx, historyEntriesKey, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *redisHistoryRepository) Remove(ctx context.Context, id string) error {
	all, err := r.client.HGetAll(ctx, historyEntriesKey).Result()
	if err != nil {
		return err
	}
	for key, raw := range all {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry.ID != id {
			continue
		}
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRem(ctx, historyOrderKey, key)
			pipe.HDel(ctx, historyEntriesKey, key)
			return nil
		})
		return err
	}
	return models.ErrHistoryEntryNotFound
}

func (r *redisHistoryRepository) Clear(ctx context.Context) error {
	return r.client.Del(ctx, historyOrderKey, historyEntriesKey).Err()
}

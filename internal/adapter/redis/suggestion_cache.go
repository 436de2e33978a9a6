package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

// SuggestionCache stores normalised provider answers per slot and skill set.
// Every failure degrades to a miss.
type SuggestionCache struct {
	rdb    goredis.Cmdable
	userID string
}

var _ domain.SuggestionCache = (*SuggestionCache)(nil)

func NewSuggestionCache(rdb goredis.Cmdable, userID string) *SuggestionCache {
	return &SuggestionCache{rdb: rdb, userID: userID}
}

func (c *SuggestionCache) Get(ctx context.Context, key string) ([]domain.FocusTask, bool) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.WarnContext(ctx, "Suggestion cache read failed", "error", err)
		return nil, false
	}

	var tasks []domain.FocusTask
	if err := json.Unmarshal(raw, &tasks); err != nil {
		slog.WarnContext(ctx, "Suggestion cache entry corrupt, ignoring", "error", err)
		return nil, false
	}
	return tasks, true
}

func (c *SuggestionCache) Set(ctx context.Context, key string, tasks []domain.FocusTask, ttl time.Duration) {
	raw, err := json.Marshal(tasks)
	if err != nil {
		slog.WarnContext(ctx, "Suggestion cache encode failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Suggestion cache write failed", "error", err)
	}
}

func (c *SuggestionCache) key(key string) string {
	return keyPrefix + "suggest:" + c.userID + ":" + key
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

// A marker outlives any sane ledger write; a crashed writer's claim expires
// and the minute is retried by whoever ticks next.
const tickMarkerTTL = 2 * time.Minute

// TickDeduper is a short-lived SET NX marker per (session, minute index).
type TickDeduper struct {
	rdb    goredis.Cmdable
	userID string
}

var _ domain.TickDeduper = (*TickDeduper)(nil)

func NewTickDeduper(rdb goredis.Cmdable, userID string) *TickDeduper {
	return &TickDeduper{rdb: rdb, userID: userID}
}

// Claim reports true when this caller now owns the minute.
func (d *TickDeduper) Claim(ctx context.Context, sessionID uuid.UUID, minuteIndex int) (bool, error) {
	args := goredis.SetArgs{TTL: tickMarkerTTL, Mode: "NX"}
	_, err := d.rdb.SetArgs(ctx, d.key(sessionID, minuteIndex), "1", args).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim minute: %w", err)
	}
	return true, nil
}

func (d *TickDeduper) Release(ctx context.Context, sessionID uuid.UUID, minuteIndex int) error {
	if err := d.rdb.Del(ctx, d.key(sessionID, minuteIndex)).Err(); err != nil {
		return fmt.Errorf("failed to release minute: %w", err)
	}
	return nil
}

func (d *TickDeduper) key(sessionID uuid.UUID, minuteIndex int) string {
	return keyPrefix + "tick:" + d.userID + ":" + sessionID.String() + ":" + strconv.Itoa(minuteIndex)
}

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/redisx"
)

// RedisIndex stores one JSON doc per order plus two secondary structures: a
// set per status and a zset scored by order date.
type RedisIndex struct{ RDB *redis.Client }

var _ Index = (*RedisIndex)(nil)

func (r *RedisIndex) Index(ctx context.Context, d Doc) error {
	docKey := fmt.Sprintf(redisx.KeyOrderDoc, d.OrderID)

	// Re-indexing with a new status has to leave the old status set.
	if prev, err := r.RDB.Get(ctx, docKey).Result(); err == nil {
		var old Doc
		if json.Unmarshal([]byte(prev), &old) == nil && old.Status != d.Status {
			if err := r.RDB.SRem(ctx, fmt.Sprintf(redisx.KeyIndexStatus, old.Status), d.OrderID).Err(); err != nil {
				return fmt.Errorf("unindex status %s: %w", old.Status, err)
			}
		}
	} else if err != redis.Nil {
		return fmt.Errorf("read doc %s: %w", d.OrderID, err)
	}

	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	pipe := r.RDB.TxPipeline()
	pipe.Set(ctx, docKey, b, 0)
	pipe.SAdd(ctx, fmt.Sprintf(redisx.KeyIndexStatus, d.Status), d.OrderID)
	pipe.ZAdd(ctx, redisx.KeyIndexDate, redis.Z{Score: float64(d.OrderDate.Unix()), Member: d.OrderID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index order %s: %w", d.OrderID, err)
	}
	return nil
}

func (r *RedisIndex) ByStatus(ctx context.Context, status string) ([]Doc, error) {
	ids, err := r.RDB.SMembers(ctx, fmt.Sprintf(redisx.KeyIndexStatus, status)).Result()
	if err != nil {
		return nil, fmt.Errorf("query status %s: %w", status, err)
	}
	return r.fetch(ctx, ids)
}

func (r *RedisIndex) ByDateRange(ctx context.Context, from, to time.Time) ([]Doc, error) {
	ids, err := r.RDB.ZRangeByScore(ctx, redisx.KeyIndexDate, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", from.Unix()),
		Max: fmt.Sprintf("%d", to.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("query date range: %w", err)
	}
	return r.fetch(ctx, ids)
}

func (r *RedisIndex) fetch(ctx context.Context, ids []string) ([]Doc, error) {
	out := make([]Doc, 0, len(ids))
	for _, id := range ids {
		raw, err := r.RDB.Get(ctx, fmt.Sprintf(redisx.KeyOrderDoc, id)).Result()
		if err == redis.Nil {
			continue // index entry outlived the doc
		}
		if err != nil {
			return nil, fmt.Errorf("fetch doc %s: %w", id, err)
		}
		var d Doc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("decode doc %s: %w", id, err)
		}
		out = append(out, d)
	}
	return out, nil
}

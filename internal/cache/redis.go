package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/constants"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/models"
)

// RedisCache keeps the most recently fetched swaps in a capped list and
// fans them out over Pub/Sub.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

// AddRecentSwaps pushes records onto the recent list, newest first, and
// trims it to the configured cap.
func (r *RedisCache) AddRecentSwaps(ctx context.Context, pool string, records []models.SwapRecord) error {
	if len(records) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal swap %s: %w", rec.TransID, err)
		}
		pipe.LPush(ctx, constants.RedisKeyRecentSwaps, b)
	}
	pipe.LTrim(ctx, constants.RedisKeyRecentSwaps, 0, constants.MaxRecentSwaps-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache recent swaps: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"pool":  pool,
		"count": len(records),
	}).Debug("cached recent swaps")

	return nil
}

// GetRecentSwaps returns up to limit of the most recently cached swaps.
func (r *RedisCache) GetRecentSwaps(ctx context.Context, limit int64) ([]models.SwapRecord, error) {
	if limit < 1 {
		limit = 1
	}

	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentSwaps, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent swaps: %w", err)
	}

	out := make([]models.SwapRecord, 0, len(vals))
	for _, v := range vals {
		var rec models.SwapRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			r.logger.WithError(err).Warn("dropping unreadable cached swap")
			continue
		}
		out = append(out, rec)
	}

	return out, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/constants"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/models"
)

// PublishSwaps publishes each record to the global channel and to a
// pool-specific channel so subscribers can follow a single pool.
func (r *RedisCache) PublishSwaps(ctx context.Context, pool string, records []models.SwapRecord) error {
	if len(records) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal swap %s: %w", rec.TransID, err)
		}
		pipe.Publish(ctx, constants.PubSubChannelSwaps, data)
		pipe.Publish(ctx, constants.PubSubChannelPoolPrefix+pool, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish swaps: %w", err)
	}

	return nil
}

// SubscribeSwaps subscribes to the global swap channel. The returned
// channel closes when ctx is done.
func (r *RedisCache) SubscribeSwaps(ctx context.Context) (<-chan models.SwapRecord, error) {
	pubsub := r.client.Subscribe(ctx, constants.PubSubChannelSwaps)

	// Confirm the subscription before handing out the channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe swaps: %w", err)
	}

	out := make(chan models.SwapRecord)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var rec models.SwapRecord
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
					r.logger.WithError(err).Warn("dropping unreadable swap message")
					continue
				}
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

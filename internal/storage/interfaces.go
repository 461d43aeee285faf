package storage

import (
	"context"
	"io"

	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/models"
)

// SwapStore defines the interface for persistent swap storage
type SwapStore interface {
	// InsertSwaps inserts fetched swap rows for a pool
	InsertSwaps(ctx context.Context, pool string, records []models.SwapRecord) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// SwapCache defines the interface for caching fetched swap data
type SwapCache interface {
	// AddRecentSwaps pushes swap rows onto the recent-swaps list
	AddRecentSwaps(ctx context.Context, pool string, records []models.SwapRecord) error

	// GetRecentSwaps retrieves the most recently cached swaps
	GetRecentSwaps(ctx context.Context, limit int64) ([]models.SwapRecord, error)

	// PublishSwaps publishes swap rows to the Pub/Sub channels
	PublishSwaps(ctx context.Context, pool string, records []models.SwapRecord) error

	// SubscribeSwaps subscribes to real-time swap events
	SubscribeSwaps(ctx context.Context) (<-chan models.SwapRecord, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer
}

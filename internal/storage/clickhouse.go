package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/models"
)

// ClickHouseConfig holds connection settings for the swap store.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

// EnsureSchema creates the pool_swaps table if it does not exist.
func (c *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS pool_swaps (
			trans_id          String,
			timestamp         DateTime,
			pool              String,
			owner_address     String,
			token_in_address  String,
			token_out_address String,
			amount_in         Float64,
			amount_out        Float64
		) ENGINE = ReplacingMergeTree
		ORDER BY (pool, timestamp, trans_id)
	`
	if err := c.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create pool_swaps table: %w", err)
	}
	return nil
}

// InsertSwaps writes one fetched table of swaps in a single batch.
func (c *ClickHouseStore) InsertSwaps(ctx context.Context, pool string, records []models.SwapRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO pool_swaps (
			trans_id, timestamp, pool, owner_address,
			token_in_address, token_out_address, amount_in, amount_out
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, r := range records {
		err := batch.Append(
			r.TransID,
			time.Unix(r.Timestamp, 0).UTC(),
			pool,
			r.OwnerAddress,
			r.TokenInAddress,
			r.TokenOutAddress,
			r.AmountIn,
			r.AmountOut,
		)
		if err != nil {
			return fmt.Errorf("failed to append swap %s: %w", r.TransID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert swaps: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"pool":  pool,
		"count": len(records),
	}).Debug("inserted swaps into ClickHouse")

	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}

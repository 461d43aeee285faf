package fetcher

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/models"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/solscan"
)

const (
	// DefaultPageSize matches the Solscan transfer endpoint maximum.
	DefaultPageSize = 100

	dateLayout = "2006-01-02"
)

// Config holds construction parameters for a PoolSwapFetcher.
type Config struct {
	// PoolAddress is the liquidity pool account, base58 encoded. Required.
	PoolAddress string
	// Live serves pages from the Solscan API.
	Live solscan.TransferSource
	// Mock serves pages from a local fixture. Optional; required only for
	// mock-mode calls.
	Mock     solscan.TransferSource
	PageSize int
	Logger   *logrus.Logger
}

// PoolSwapFetcher fetches swap transactions for one liquidity pool and
// normalizes them into a SwapTable. It holds configuration only; there is
// no mutable session state between calls.
type PoolSwapFetcher struct {
	pool     solana.PublicKey
	live     solscan.TransferSource
	mock     solscan.TransferSource
	pageSize int
	logger   *logrus.Logger
}

// New validates the pool address and builds a fetcher.
func New(cfg Config) (*PoolSwapFetcher, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	addr := strings.TrimSpace(cfg.PoolAddress)
	if addr == "" {
		return nil, &ConfigError{Reason: "pool address is required"}
	}
	pool, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("pool address %q is not a valid base58 public key", addr)}
	}

	if cfg.Live == nil && cfg.Mock == nil {
		return nil, &ConfigError{Reason: "at least one transfer source is required"}
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &PoolSwapFetcher{
		pool:     pool,
		live:     cfg.Live,
		mock:     cfg.Mock,
		pageSize: pageSize,
		logger:   cfg.Logger,
	}, nil
}

// Pool returns the configured pool address.
func (f *PoolSwapFetcher) Pool() string {
	return f.pool.String()
}

// GetSwaps fetches all swaps for the pool whose block time falls within
// [fromDate, toDate], both YYYY-MM-DD and inclusive of the whole day in
// UTC. With useMock set, pages come from the fixture source and no network
// I/O happens. A page request that exhausts its retries voids the whole
// fetch; a single malformed record is skipped and counted instead.
func (f *PoolSwapFetcher) GetSwaps(ctx context.Context, fromDate, toDate string, useMock bool) (*models.SwapTable, error) {
	from, err := time.Parse(dateLayout, fromDate)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("from date %q is not YYYY-MM-DD", fromDate)}
	}
	to, err := time.Parse(dateLayout, toDate)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("to date %q is not YYYY-MM-DD", toDate)}
	}
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	src := f.live
	if useMock {
		src = f.mock
	}
	if src == nil {
		return nil, &ConfigError{Reason: "requested transfer source is not configured"}
	}

	fromTime := from.Unix()
	toTime := to.Add(24*time.Hour - time.Second).Unix()

	transfers, err := f.collect(ctx, src, fromTime, toTime)
	if err != nil {
		return nil, err
	}

	table := f.normalize(transfers, fromTime, toTime)

	f.logger.WithFields(logrus.Fields{
		"pool":    f.pool.String(),
		"from":    fromDate,
		"to":      toDate,
		"swaps":   table.Len(),
		"skipped": table.Skipped,
	}).Info("fetched pool swaps")

	return table, nil
}

// collect walks pages newest-first until the window is exhausted.
func (f *PoolSwapFetcher) collect(ctx context.Context, src solscan.TransferSource, fromTime, toTime int64) ([]solscan.Transfer, error) {
	var all []solscan.Transfer

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := src.Transfers(ctx, solscan.TransferRequest{
			Address:  f.pool.String(),
			FromTime: fromTime,
			ToTime:   toTime,
			Page:     page,
			PageSize: f.pageSize,
		})
		if err != nil {
			return nil, err
		}
		if resp.Errors != nil {
			return nil, resp.Errors
		}
		if len(resp.Data) == 0 {
			break
		}

		all = append(all, resp.Data...)

		oldest := resp.Data[len(resp.Data)-1].BlockTime
		f.logger.WithFields(logrus.Fields{
			"page":    page,
			"records": len(resp.Data),
			"oldest":  oldest,
		}).Debug("collected transfer page")

		// A short page means the provider ran out of records; a page whose
		// oldest record predates the window means everything further back
		// is out of range.
		if len(resp.Data) < f.pageSize || oldest < fromTime {
			break
		}
	}

	return all, nil
}

type legPair struct {
	in  *solscan.Transfer
	out *solscan.Transfer
}

// normalize filters raw transfers, pairs in/out legs by transaction id,
// and maps each pair to a SwapRecord. Malformed records are skipped and
// counted, never fatal.
func (f *PoolSwapFetcher) normalize(transfers []solscan.Transfer, fromTime, toTime int64) *models.SwapTable {
	pairs := make(map[string]*legPair)
	order := make([]string, 0, len(transfers))

	for i := range transfers {
		t := &transfers[i]

		if t.BlockTime < fromTime || t.BlockTime > toTime {
			continue
		}
		if t.Kind() != solscan.KindTransfer {
			f.logger.WithFields(logrus.Fields{
				"trans_id": t.TransID,
				"activity": t.ActivityType,
			}).Debug("skipping non-swap activity")
			continue
		}
		if t.TransID == "" {
			f.logger.Warn("dropping transfer without transaction id")
			continue
		}

		pair, ok := pairs[t.TransID]
		if !ok {
			pair = &legPair{}
			pairs[t.TransID] = pair
			order = append(order, t.TransID)
		}
		// First leg per direction wins; extra legs on the same trans_id
		// would otherwise break the uniqueness invariant.
		if t.Flow == solscan.FlowIn && pair.in == nil {
			pair.in = t
		} else if t.Flow == solscan.FlowOut && pair.out == nil {
			pair.out = t
		}
	}

	table := &models.SwapTable{Records: make([]models.SwapRecord, 0, len(order))}

	for _, id := range order {
		pair := pairs[id]
		if pair.in == nil || pair.out == nil {
			// An unpaired transfer is a plain deposit/withdrawal, not a swap.
			continue
		}

		rec, err := swapRecord(pair.in, pair.out)
		if err != nil {
			table.Skipped++
			f.logger.WithError(err).WithField("trans_id", id).Warn("skipping malformed record")
			continue
		}
		table.Records = append(table.Records, rec)
	}

	return table
}

// swapRecord maps one in/out leg pair to a normalized row.
func swapRecord(in, out *solscan.Transfer) (models.SwapRecord, error) {
	if in.TokenAddress == out.TokenAddress {
		return models.SwapRecord{}, fmt.Errorf("token in and token out are identical: %s", in.TokenAddress)
	}
	for _, addr := range []string{in.TokenAddress, out.TokenAddress} {
		if _, err := base58.Decode(addr); err != nil || addr == "" {
			return models.SwapRecord{}, fmt.Errorf("token address %q is not valid base58", addr)
		}
	}
	if in.FromAddress == "" {
		return models.SwapRecord{}, fmt.Errorf("missing owner address")
	}

	amountIn, err := adjustedAmount(in)
	if err != nil {
		return models.SwapRecord{}, fmt.Errorf("amount_in: %w", err)
	}
	amountOut, err := adjustedAmount(out)
	if err != nil {
		return models.SwapRecord{}, fmt.Errorf("amount_out: %w", err)
	}

	return models.SwapRecord{
		TransID:         in.TransID,
		Datetime:        time.Unix(in.BlockTime, 0).UTC().Format(models.DatetimeLayout),
		Timestamp:       in.BlockTime,
		OwnerAddress:    in.FromAddress,
		TokenInAddress:  in.TokenAddress,
		TokenOutAddress: out.TokenAddress,
		AmountIn:        amountIn,
		AmountOut:       amountOut,
	}, nil
}

// adjustedAmount converts a raw token amount by its decimals.
func adjustedAmount(t *solscan.Transfer) (float64, error) {
	raw, err := t.Amount.Float64()
	if err != nil {
		return 0, fmt.Errorf("amount %q is not numeric", string(t.Amount))
	}
	if t.TokenDecimals < 0 {
		return 0, fmt.Errorf("negative token decimals: %d", t.TokenDecimals)
	}
	return raw / math.Pow10(t.TokenDecimals), nil
}

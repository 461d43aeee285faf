package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/config"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/fetcher"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/solscan"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/storage"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetOutput(os.Stderr)

	loadEnv(logger)
	cfg := config.Load()

	var (
		pool     = flag.String("pool", cfg.PoolAddress, "liquidity pool address (base58)")
		fromDate = flag.String("from", "", "start date, YYYY-MM-DD (inclusive)")
		toDate   = flag.String("to", "", "end date, YYYY-MM-DD (inclusive)")
		mockPath = flag.String("mock", "", "path to a mock data fixture; skips live API access")
		store    = flag.Bool("store", false, "insert fetched swaps into ClickHouse")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if *fromDate == "" || *toDate == "" {
		logger.Fatal("-from and -to are required")
	}

	ctx := context.Background()

	fcfg := fetcher.Config{
		PoolAddress: *pool,
		PageSize:    cfg.PageSize,
		Logger:      logger,
	}

	useMock := *mockPath != ""
	if useMock {
		mock, err := solscan.NewMockSource(*mockPath)
		if err != nil {
			logger.WithError(err).Fatal("failed to load mock data")
		}
		fcfg.Mock = mock
	} else {
		fcfg.Live = solscan.NewClient(solscan.ClientConfig{
			BaseURL:      cfg.SolscanBaseURL,
			APIKey:       cfg.SolscanAPIKey,
			Timeout:      cfg.HTTPTimeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			RateDelay:    cfg.RateDelay,
			Logger:       logger,
		})
	}

	f, err := fetcher.New(fcfg)
	if err != nil {
		logger.WithError(err).Fatal("invalid fetcher configuration")
	}

	table, err := f.GetSwaps(ctx, *fromDate, *toDate, useMock)
	if err != nil {
		logger.WithError(err).Fatal("fetch failed")
	}

	fmt.Print(table.RenderCSV())

	if *store {
		chStore, err := storage.NewClickHouseStore(ctx, storage.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to clickhouse")
		}
		defer func() {
			_ = chStore.Close()
		}()

		if err := chStore.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("failed to ensure clickhouse schema")
		}
		if err := chStore.InsertSwaps(ctx, f.Pool(), table.Records); err != nil {
			logger.WithError(err).Fatal("failed to store swaps")
		}
		logger.WithField("count", table.Len()).Info("stored swaps in clickhouse")
	}
}

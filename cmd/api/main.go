package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/ai"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/cache"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/config"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/server"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/solscan"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/storage"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Live Solscan source. A missing API key is tolerated here: mock-mode
	// requests still work, live requests fail with a config error.
	source := solscan.NewClient(solscan.ClientConfig{
		BaseURL:      cfg.SolscanBaseURL,
		APIKey:       cfg.SolscanAPIKey,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		RateDelay:    cfg.RateDelay,
		Logger:       logger,
	})
	if cfg.SolscanAPIKey == "" {
		logger.Warn("SOLSCAN_API_KEY is not set; live fetches will fail")
	}

	// Redis recent-swaps cache (optional).
	var swapCache storage.SwapCache
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable, recent swaps cache disabled")
	} else {
		swapCache = cache.NewRedisCacheFromClient(rclient, logger)
	}

	// ClickHouse swap store (optional).
	var swapStore storage.SwapStore
	chStore, err := storage.NewClickHouseStore(ctx, storage.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Warn("clickhouse unreachable, swap persistence disabled")
	} else {
		if err := chStore.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("failed to ensure clickhouse schema")
		}
		swapStore = chStore
		defer func() {
			_ = chStore.Close()
		}()
	}

	// AI agent for natural language queries (optional).
	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              cfg.AIModel,
		Logger:             logger,
	}
	if cfg.OpenRouterAPIKey != "" {
		a, err := ai.NewAgent(ctx, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
			defer func() {
				_ = agent.Close()
			}()
		}
	}

	h := &server.Handlers{
		Source:       source,
		Cache:        swapCache,
		Store:        swapStore,
		AI:           agent,
		AIBaseConfig: aiBase,
		PageSize:     cfg.PageSize,
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		logger.WithError(err).Warn("shutdown wait interrupted")
	}
}

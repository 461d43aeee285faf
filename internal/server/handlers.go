package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/ai"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/fetcher"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/models"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/solscan"
	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/storage"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Source       solscan.TransferSource // Live Solscan transfer source
	Mock         solscan.TransferSource // Optional fixture source (mock=true requests)
	Cache        storage.SwapCache      // Redis-backed recent swaps cache (optional)
	Store        storage.SwapStore      // ClickHouse swap store (optional)
	AI           *ai.Agent              // AI agent for natural language queries
	AIBaseConfig ai.AgentConfig         // Base configuration for AI agents
	PageSize     int                    // Solscan page size for fetches
	DevMode      bool                   // Enable detailed error responses in development
	Logger       *logrus.Logger         // Structured logger
}

// err returns a standardized JSON error response. In dev mode, includes
// additional error details for debugging.
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// PoolSwaps fetches the swap table for one pool and date window.
// Query: from=YYYY-MM-DD, to=YYYY-MM-DD (required), mock=true|false.
func (h *Handlers) PoolSwaps(c echo.Context) error {
	address := strings.TrimSpace(c.Param("address"))
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))
	if from == "" || to == "" {
		return h.err(c, http.StatusBadRequest, "from and to dates are required", map[string]any{"format": "YYYY-MM-DD"})
	}

	useMock := false
	if v := c.QueryParam("mock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid mock parameter", nil)
		}
		useMock = b
	}

	f, err := fetcher.New(fetcher.Config{
		PoolAddress: address,
		Live:        h.Source,
		Mock:        h.Mock,
		PageSize:    h.PageSize,
		Logger:      h.Logger,
	})
	if err != nil {
		return h.fetchErr(c, err)
	}

	// A long window can mean many rate-limited upstream pages.
	ctx, cancel := h.withTimeout(c.Request().Context(), 150*time.Second)
	defer cancel()

	table, err := f.GetSwaps(ctx, from, to, useMock)
	if err != nil {
		return h.fetchErr(c, err)
	}

	h.sink(ctx, f.Pool(), table.Records)

	return c.JSON(http.StatusOK, PoolSwapsResponse{
		Pool:    f.Pool(),
		From:    from,
		To:      to,
		Count:   table.Len(),
		Skipped: table.Skipped,
		Records: table.Records,
	})
}

// fetchErr maps the fetcher/solscan error taxonomy onto HTTP statuses.
func (h *Handlers) fetchErr(c echo.Context, err error) error {
	var cfgErr *fetcher.ConfigError
	var authErr *solscan.AuthError
	var fetchErr *solscan.FetchError

	switch {
	case errors.Is(err, fetcher.ErrInvalidRange):
		return h.err(c, http.StatusBadRequest, "to date precedes from date", nil)
	case errors.As(err, &cfgErr):
		return h.err(c, http.StatusBadRequest, cfgErr.Reason, nil)
	case errors.Is(err, solscan.ErrMissingAPIKey):
		return h.err(c, http.StatusServiceUnavailable, "solscan api key is not configured", nil)
	case errors.As(err, &authErr):
		return h.err(c, http.StatusBadGateway, "solscan rejected credentials", nil)
	case errors.As(err, &fetchErr):
		return h.err(c, http.StatusBadGateway, "solscan fetch failed", map[string]any{"page": fetchErr.Page, "err": fetchErr.Err.Error()})
	default:
		return h.err(c, http.StatusInternalServerError, "fetch failed", map[string]any{"err": err.Error()})
	}
}

// sink persists and caches fetched swaps best effort; a sink failure never
// fails the request.
func (h *Handlers) sink(ctx context.Context, pool string, records []models.SwapRecord) {
	if len(records) == 0 {
		return
	}

	if h.Store != nil {
		if err := h.Store.InsertSwaps(ctx, pool, records); err != nil {
			h.Logger.WithError(err).Warn("failed to store fetched swaps")
		}
	}
	if h.Cache != nil {
		if err := h.Cache.AddRecentSwaps(ctx, pool, records); err != nil {
			h.Logger.WithError(err).Warn("failed to cache fetched swaps")
		}
		if err := h.Cache.PublishSwaps(ctx, pool, records); err != nil {
			h.Logger.WithError(err).Warn("failed to publish fetched swaps")
		}
	}
}

// RecentSwaps returns the most recently fetched swap events.
// Accepts limit query parameter (default: 100, range: 1-200).
func (h *Handlers) RecentSwaps(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusServiceUnavailable, "cache is not configured", nil)
	}

	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentSwaps(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get swaps", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// AIAsk processes natural language questions about stored swap data.
// Supports optional model override for one-off requests.
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	agent := h.AI
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		tmp, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		agent = tmp
		defer func() {
			_ = tmp.Close()
		}()
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}

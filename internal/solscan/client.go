package solscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Solscan Pro API v2 endpoint.
const DefaultBaseURL = "https://pro-api.solscan.io/v2.0"

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRetries   = 4
	defaultRetryBackoff = 500 * time.Millisecond
	defaultRateDelay    = 200 * time.Millisecond
)

// TransferSource serves pages of raw transfer records. The live client and
// the fixture-backed mock both implement it, so the fetcher runs the same
// filtering and normalization path in either mode.
type TransferSource interface {
	Transfers(ctx context.Context, req TransferRequest) (*TransferPage, error)
}

// Client is the live Solscan HTTP client with retry and client-side rate
// limiting.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	logger       *logrus.Logger
}

// ClientConfig holds configuration for the Solscan client.
type ClientConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// RateDelay is the minimum spacing between outbound requests.
	RateDelay time.Duration
	Logger    *logrus.Logger
}

// NewClient creates a Solscan client. A missing API key is not an error
// here: mock-only usage never needs one, and live calls check for it
// before touching the network.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.RateDelay <= 0 {
		cfg.RateDelay = defaultRateDelay
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		limiter:      rate.NewLimiter(rate.Every(cfg.RateDelay), 1),
		logger:       cfg.Logger,
	}
}

// Transfers fetches one page of transfer records with retry logic.
func (c *Client) Transfers(ctx context.Context, req TransferRequest) (*TransferPage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	u := c.transferURL(req)

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"page":    req.Page,
			}).Debug("retrying transfer page")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		// Client-side rate limiting applies to every outbound request,
		// retries included.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := c.doRequest(ctx, u)
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return nil, err
			}
			lastErr = err
			continue
		}

		if !page.Success && page.Errors != nil {
			return nil, page.Errors
		}

		return page, nil
	}

	return nil, &FetchError{Page: req.Page, Err: lastErr}
}

func (c *Client) doRequest(ctx context.Context, u string) (*TransferPage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("accept", "application/json")
	httpReq.Header.Set("token", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited (429)")
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) == 0 {
		return nil, ErrEmptyResponse
	}

	var page TransferPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &page, nil
}

func (c *Client) transferURL(req TransferRequest) string {
	q := url.Values{}
	q.Set("address", req.Address)
	q.Add("activity_type[]", ActivitySPLTransfer)
	q.Set("from_time", strconv.FormatInt(req.FromTime, 10))
	q.Set("to_time", strconv.FormatInt(req.ToTime, 10))
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("page_size", strconv.Itoa(req.PageSize))
	q.Set("sort_by", "block_time")
	q.Set("sort_order", "desc")

	return c.baseURL + "/account/transfer?" + q.Encode()
}

package server

import "github.com/aman-zulfiqar/solscan-pool-indexer/internal/models"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"`
}

// PoolSwapsResponse is the result of a pool swap fetch
type PoolSwapsResponse struct {
	Pool    string              `json:"pool"`
	From    string              `json:"from"`
	To      string              `json:"to"`
	Count   int                 `json:"count"`
	Skipped int                 `json:"skipped"` // malformed records dropped during normalization
	Records []models.SwapRecord `json:"records"`
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"`
	Model    string `json:"model"` // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`
	Answer string `json:"answer"`
	TookMs int64  `json:"took_ms"`
}

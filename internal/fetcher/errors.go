package fetcher

import "errors"

// ErrInvalidRange means the requested to date precedes the from date.
// Raised before any source access.
var ErrInvalidRange = errors.New("to date precedes from date")

// ConfigError means the fetcher was constructed or called with invalid
// configuration (empty or malformed pool address, bad date string).
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid fetcher configuration: " + e.Reason
}

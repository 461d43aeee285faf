package constants

// Redis keys
const (
	RedisKeyRecentSwaps = "pool_swaps:recent"
)

// Redis Pub/Sub channels
const (
	PubSubChannelSwaps      = "pool_swaps:live"
	PubSubChannelPoolPrefix = "pool_swaps:pool:"
)

// Limits
const (
	MaxRecentSwaps = 200
)

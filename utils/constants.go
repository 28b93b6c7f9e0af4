package utils

import (
	"time"
)

// Curator token constants
const (
	// CuratorTokenTTL is the time-to-live for curator access tokens (24 hours)
	CuratorTokenTTL = 24 * time.Hour

	// CuratorTokenTTLSeconds is the curator token time-to-live in seconds
	CuratorTokenTTLSeconds = 86400
)

// Search cache key constants
const (
	// SearchGenerationKey is the redis key holding the shared cache generation
	// counter. Bumping it orphans every cached page across all processes.
	SearchGenerationKey = "search:gen"

	// SearchPageCachePrefix prefixes cached result-page keys in redis.
	SearchPageCachePrefix = "search:page:"
)

// Request context keys set by the HTTP layer and read by flows for logging
const (
	RequestIDKey  = "X-Request-ID"
	UserAgentKey  = "User-Agent"
	IPAddressKey  = "IP-Address"
	EndpointKey   = "Endpoint"
	TimeoutKey    = "Timeout"
	CancelFuncKey = "Cancel-Func"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

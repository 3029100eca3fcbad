// Package constants centralizes tuning knobs shared across chatsweep packages.
package constants

import (
	"time"
)

// Conversation listing defaults
const (
	// DefaultBatchSize - number of conversations fetched per load-more batch (20)
	DefaultBatchSize = 20

	// MaxPageLimit - largest page size the backend accepts per listing call (100)
	MaxPageLimit = 100

	// RecentWindow - a conversation created or updated within this window is
	// considered "new" / "recently modified" for filtering purposes (24 hours)
	RecentWindow = 24 * time.Hour

	// DefaultRefreshDebounce - coalescing window for refresh bursts (500ms).
	// Sort/filter changes funnel through refresh, so quick successive toggles
	// collapse into a single backend fetch sequence.
	DefaultRefreshDebounce = 500 * time.Millisecond
)

// Event bus configuration
const (
	// EventBusDefaultBuffer - default buffer size for event channels (256)
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - cap on subscriber channel buffers (2048)
	EventBusMaxBuffer = 2048
)

// HTTP transport configuration
const (
	// HTTPDialTimeout - timeout for establishing a connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for the dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for the TLS handshake (10 seconds)
	HTTPTLSHandshakeTimeout = 10 * time.Second

	// HTTPExpectContinueTimeout - timeout for a 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPRequestTimeout - overall per-request timeout for API calls (60 seconds)
	HTTPRequestTimeout = 60 * time.Second
)

// Retry configuration for the API client transport
const (
	// RetryMax - maximum retry attempts for a single API call (4)
	RetryMax = 4

	// RetryWaitMin - base wait between retries (500ms)
	RetryWaitMin = 500 * time.Millisecond

	// RetryWaitMax - cap on wait between retries (10 seconds)
	RetryWaitMax = 10 * time.Second
)

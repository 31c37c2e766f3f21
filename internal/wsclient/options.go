package wsclient

import (
	"crypto/tls"
	"net/http"
	"time"
)

const (
	// DefaultKeepAliveInterval is the default period between keep-alive ticks
	DefaultKeepAliveInterval = 1 * time.Second

	// DefaultRetryBackoff is the default pause after a failed keep-alive tick
	DefaultRetryBackoff = 3 * time.Second

	// DefaultMaxReconnectAttempts means the keep-alive loop never gives up
	DefaultMaxReconnectAttempts = 0
)

// keepAlivePayload is the payload of keep-alive pings
var keepAlivePayload = []byte{0}

type clientOptions struct {
	keepAliveInterval    time.Duration
	retryBackoff         time.Duration
	maxReconnectAttempts int
	httpClient           *http.Client
	loginTLSConfig       *tls.Config
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		keepAliveInterval:    DefaultKeepAliveInterval,
		retryBackoff:         DefaultRetryBackoff,
		maxReconnectAttempts: DefaultMaxReconnectAttempts,
	}
}

// ClientOption configures an EndpointClient
type ClientOption func(*clientOptions)

// WithKeepAliveInterval sets the period between keep-alive ticks.
// Non-positive values keep the default.
func WithKeepAliveInterval(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		if d > 0 {
			o.keepAliveInterval = d
		}
	}
}

// WithRetryBackoff sets the pause after a failed ping or reconnect.
// Non-positive values keep the default.
func WithRetryBackoff(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		if d > 0 {
			o.retryBackoff = d
		}
	}
}

// WithMaxReconnectAttempts limits consecutive failed reconnects. Failed
// pings do not count; a successful ping or reconnect resets the count.
// When the limit is reached the client moves to StateFailed. 0 means unlimited.
func WithMaxReconnectAttempts(n int) ClientOption {
	return func(o *clientOptions) {
		if n >= 0 {
			o.maxReconnectAttempts = n
		}
	}
}

// WithHTTPClient sets the HTTP client used for login
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// WithLoginTLSConfig sets the TLS configuration of the default login client.
// Ignored when WithHTTPClient is given.
func WithLoginTLSConfig(cfg *tls.Config) ClientOption {
	return func(o *clientOptions) {
		o.loginTLSConfig = cfg
	}
}

package wsclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Endpoint URL schemes accepted by the builder
const (
	SchemeWS  = "ws"
	SchemeWSS = "wss"
)

// ClientContext is the immutable connection configuration of one endpoint client.
// Instances are created only through a Builder, which validates every field.
type ClientContext struct {
	endpoint      *url.URL
	client        string
	secret        string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       map[string]string
}

// Endpoint returns a copy of the WebSocket endpoint URL
func (c *ClientContext) Endpoint() *url.URL {
	u := *c.endpoint
	return &u
}

// Client returns the client ID used to log in
func (c *ClientContext) Client() string {
	return c.client
}

// Secret returns the client secret ("" when never set)
func (c *ClientContext) Secret() string {
	return c.secret
}

// ProxyURL returns the configured proxy URL ("" when unset)
func (c *ClientContext) ProxyURL() string {
	return c.proxyURL
}

// ProxyUsername returns the proxy username ("" when unset)
func (c *ClientContext) ProxyUsername() string {
	return c.proxyUsername
}

// ProxyPassword returns the proxy password ("" when unset)
func (c *ClientContext) ProxyPassword() string {
	return c.proxyPassword
}

// Headers returns a fresh copy of the custom upgrade headers
func (c *ClientContext) Headers() http.Header {
	h := make(http.Header, len(c.headers))
	for k, v := range c.headers {
		h.Set(k, v)
	}
	return h
}

// String returns a log-safe description; the secret is masked
func (c *ClientContext) String() string {
	return fmt.Sprintf("ClientContext{endpoint: %s, client: %s, secret: %s}", c.endpoint, c.client, maskSecret(c.secret))
}

func maskSecret(secret string) string {
	if len(secret) < 3 {
		return "..."
	}
	return secret[:1] + "..." + secret[len(secret)-1:]
}

// Builder provides a fluent API for building a ClientContext.
// The first invalid argument is remembered and reported by Build.
// A builder is single use: once Build has succeeded, every further
// call records a state error.
//
// Example usage:
//
//	cc, err := wsclient.NewBuilder().
//	    SetEndpointURL("wss://octane.example.com/messaging/shared_spaces/1001/webhooks").
//	    SetClient("api_client_id").
//	    SetSecret("api_client_secret").
//	    Build()
type Builder struct {
	built bool
	err   error

	endpoint      *url.URL
	client        string
	secret        string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       map[string]string
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Err returns the first error recorded by the builder, if any
func (b *Builder) Err() error {
	return b.err
}

// usable records a state error when the builder was already built, and
// reports whether the call may proceed
func (b *Builder) usable() bool {
	if b.built {
		b.err = NewStateError("builder, once built, may not be used any further; create a new builder")
		return false
	}
	return b.err == nil
}

func (b *Builder) fail(message string) *Builder {
	if b.err == nil {
		b.err = NewConfigurationError(message)
	}
	return b
}

// SetEndpointURL sets the WebSocket endpoint. The URL must be absolute and
// use the ws or wss scheme.
func (b *Builder) SetEndpointURL(endpoint string) *Builder {
	if !b.usable() {
		return b
	}

	if endpoint == "" {
		return b.fail("endpoint URL must not be empty")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return b.fail(fmt.Sprintf("failed to parse endpoint URL %q: %v", endpoint, err))
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != SchemeWS && scheme != SchemeWSS {
		return b.fail(fmt.Sprintf("endpoint URL scheme must be either 'ws' or 'wss'; found %q", u.Scheme))
	}
	if !u.IsAbs() || u.Host == "" || u.Hostname() == "" {
		return b.fail(fmt.Sprintf("endpoint URL must be absolute; found %q", endpoint))
	}

	u.Scheme = scheme
	b.endpoint = u
	return b
}

// SetClient sets the client ID (required, non-empty)
func (b *Builder) SetClient(client string) *Builder {
	if !b.usable() {
		return b
	}
	if client == "" {
		return b.fail("client must not be empty")
	}
	b.client = client
	return b
}

// SetSecret sets the client secret. Empty is allowed.
func (b *Builder) SetSecret(secret string) *Builder {
	if !b.usable() {
		return b
	}
	b.secret = secret
	return b
}

// SetProxyURL sets the HTTP proxy used for login and upgrade
func (b *Builder) SetProxyURL(proxyURL string) *Builder {
	if !b.usable() {
		return b
	}
	b.proxyURL = proxyURL
	return b
}

// SetProxyUsername sets the proxy username
func (b *Builder) SetProxyUsername(username string) *Builder {
	if !b.usable() {
		return b
	}
	b.proxyUsername = username
	return b
}

// SetProxyPassword sets the proxy password
func (b *Builder) SetProxyPassword(password string) *Builder {
	if !b.usable() {
		return b
	}
	b.proxyPassword = password
	return b
}

// SetProxy sets proxy URL and credentials in one call
func (b *Builder) SetProxy(proxyURL, username, password string) *Builder {
	return b.SetProxyURL(proxyURL).SetProxyUsername(username).SetProxyPassword(password)
}

// SetCustomHeaders sets headers attached to the upgrade request. The map is
// copied; a nil map is rejected.
func (b *Builder) SetCustomHeaders(headers map[string]string) *Builder {
	if !b.usable() {
		return b
	}
	if headers == nil {
		return b.fail("custom headers, if set, must not be nil")
	}

	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	b.headers = copied
	return b
}

// Build validates the collected values and returns the immutable context
func (b *Builder) Build() (*ClientContext, error) {
	if b.built {
		return nil, NewStateError("builder, once built, may not be used any further; create a new builder")
	}
	if b.err != nil {
		return nil, b.err
	}

	if b.endpoint == nil {
		return nil, NewStateError("endpoint URL must be set before build")
	}
	if b.client == "" {
		return nil, NewStateError("client must be set before build")
	}

	endpoint := *b.endpoint
	headers := b.headers
	if headers == nil {
		headers = make(map[string]string)
	}

	b.built = true
	return &ClientContext{
		endpoint:      &endpoint,
		client:        b.client,
		secret:        b.secret,
		proxyURL:      b.proxyURL,
		proxyUsername: b.proxyUsername,
		proxyPassword: b.proxyPassword,
		headers:       headers,
	}, nil
}

package wsclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/octanews/internal/logging"
)

const (
	// DefaultHandshakeTimeout is the default timeout of the WebSocket upgrade
	DefaultHandshakeTimeout = 15 * time.Second

	// DefaultBufferSize is the default read and write buffer size
	DefaultBufferSize = 4096
)

// UpgradeError is returned when the endpoint answered the upgrade request
// with an HTTP status instead of switching protocols
type UpgradeError struct {
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *UpgradeError) Error() string {
	return fmt.Sprintf("websocket upgrade rejected with HTTP %d: %v", e.StatusCode, e.Err)
}

// Unwrap returns the underlying handshake error
func (e *UpgradeError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is an upgrade rejected with HTTP 401
func IsUnauthorized(err error) bool {
	var upgradeErr *UpgradeError
	return errors.As(err, &upgradeErr) && upgradeErr.StatusCode == http.StatusUnauthorized
}

// Transport dials WebSocket sessions and owns them until they close.
// A Transport must be started before use; Stop closes every open session.
type Transport struct {
	handshakeTimeout time.Duration
	readBufferSize   int
	writeBufferSize  int
	tlsConfig        *tls.Config

	mu       sync.Mutex
	started  bool
	stopped  bool
	sessions map[*Session]struct{}
}

// TransportOption configures a Transport
type TransportOption func(*Transport)

// WithHandshakeTimeout sets the upgrade timeout
func WithHandshakeTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		if d > 0 {
			t.handshakeTimeout = d
		}
	}
}

// WithBufferSizes sets the read and write buffer sizes
func WithBufferSizes(read, write int) TransportOption {
	return func(t *Transport) {
		if read > 0 {
			t.readBufferSize = read
		}
		if write > 0 {
			t.writeBufferSize = write
		}
	}
}

// WithTLSConfig sets the TLS configuration used for wss endpoints
func WithTLSConfig(cfg *tls.Config) TransportOption {
	return func(t *Transport) {
		t.tlsConfig = cfg
	}
}

// NewTransport creates a transport; call Start before dialing
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		handshakeTimeout: DefaultHandshakeTimeout,
		readBufferSize:   DefaultBufferSize,
		writeBufferSize:  DefaultBufferSize,
		sessions:         make(map[*Session]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start makes the transport available for dialing. Starting a started
// transport is a no-op; a stopped transport cannot be restarted.
func (t *Transport) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return NewStateError("transport was stopped and cannot be restarted")
	}
	if !t.started {
		t.started = true
		logging.Debug("Transport started")
	}
	return nil
}

// Stop closes every open session and rejects further dials
func (t *Transport) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	sessions := make([]*Session, 0, len(t.sessions))
	for s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(websocket.CloseGoingAway, "transport stopped"); err != nil {
			logging.Debug("Error closing session on transport stop", zap.String("session", s.ID()), zap.Error(err))
		}
	}
	logging.Debug("Transport stopped", zap.Int("closed_sessions", len(sessions)))
}

// ActiveSessions returns the number of open sessions
func (t *Transport) ActiveSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Dial upgrades a connection to the context's endpoint, attaching the token
// cookie and the custom headers. A rejected handshake is reported as *UpgradeError.
func (t *Transport) Dial(ctx context.Context, cc *ClientContext, token *AuthToken, listener sessionListener) (*Session, error) {
	t.mu.Lock()
	usable := t.started && !t.stopped
	t.mu.Unlock()
	if !usable {
		return nil, NewStateError("transport is not running")
	}

	dialer := websocket.Dialer{
		Proxy:            proxyFunc(cc),
		HandshakeTimeout: t.handshakeTimeout,
		ReadBufferSize:   t.readBufferSize,
		WriteBufferSize:  t.writeBufferSize,
		TLSClientConfig:  t.tlsConfig,
	}

	endpoint := cc.Endpoint().String()
	header := cc.Headers()
	if token != nil {
		cookie := token.String()
		if existing := header.Get("Cookie"); existing != "" {
			cookie = existing + "; " + cookie
		}
		header.Set("Cookie", cookie)
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, &UpgradeError{StatusCode: resp.StatusCode, Err: err}
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	s := newSession(conn, endpoint, listener, t.untrack)

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		_ = s.Close(websocket.CloseGoingAway, "transport stopped")
		return nil, NewStateError("transport stopped while dialing")
	}
	t.sessions[s] = struct{}{}
	t.mu.Unlock()

	s.start()
	return s, nil
}

func (t *Transport) untrack(s *Session) {
	t.mu.Lock()
	delete(t.sessions, s)
	t.mu.Unlock()
}

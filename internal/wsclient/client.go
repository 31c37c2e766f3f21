package wsclient

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/octanews/internal/logging"
)

const (
	// maxConnectAttempts is the number of upgrade attempts per connect;
	// the second attempt only happens after a re-login caused by HTTP 401
	maxConnectAttempts = 2

	// closeReason is sent with the close frame on Stop
	closeReason = "client requested to close"
)

// EndpointClient keeps one authenticated WebSocket session to an endpoint.
// After the first successful Start, a keep-alive loop pings the session and
// reconnects (logging in again if needed) whenever the session drops.
//
// Inbound messages are delivered to the MessageHandler on the session's
// read goroutine. All methods are safe for concurrent use.
type EndpointClient struct {
	cc      *ClientContext
	handler MessageHandler
	opts    clientOptions

	// connectMu serializes connects; token and transport are guarded by it
	connectMu sync.Mutex
	token     *AuthToken
	transport *Transport

	sessionMu sync.RWMutex
	session   *Session

	state atomic.Int32

	stopCtx       context.Context
	cancel        context.CancelFunc
	stopOnce      sync.Once
	keepAliveOnce sync.Once
	done          chan struct{}
}

// NewEndpointClient creates a client for the given context. Nothing is
// dialed until Start.
func NewEndpointClient(cc *ClientContext, handler MessageHandler, opts ...ClientOption) (*EndpointClient, error) {
	if cc == nil {
		return nil, NewConfigurationError("client context must not be nil")
	}
	if handler == nil {
		return nil, NewConfigurationError("message handler must not be nil")
	}

	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}

	stopCtx, cancel := context.WithCancel(context.Background())
	return &EndpointClient{
		cc:      cc,
		handler: handler,
		opts:    o,
		stopCtx: stopCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}, nil
}

// Context returns the client's connection configuration
func (c *EndpointClient) Context() *ClientContext {
	return c.cc
}

// State returns the current lifecycle state
func (c *EndpointClient) State() State {
	return State(c.state.Load())
}

// IsConnected reports whether an open session is installed
func (c *EndpointClient) IsConnected() bool {
	s := c.currentSession()
	return s != nil && s.IsOpen()
}

// Done is closed when the client will not reconnect any more: after Stop,
// or after the reconnect budget was exhausted
func (c *EndpointClient) Done() <-chan struct{} {
	return c.done
}

// Start logs in if no token is cached, opens a session through transport
// and launches the keep-alive loop. An upgrade rejected with HTTP 401 is
// retried once after a fresh login.
func (c *EndpointClient) Start(ctx context.Context, transport *Transport) error {
	if transport == nil {
		return NewConfigurationError("transport must not be nil")
	}

	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.State().Terminal() {
		return NewStateError("client was " + c.State().String() + " and cannot be started again")
	}

	c.transport = transport
	c.state.CompareAndSwap(int32(StateUnstarted), int32(StateConnecting))

	if err := c.connect(ctx); err != nil {
		// a client that never connected can be started again
		c.state.CompareAndSwap(int32(StateConnecting), int32(StateUnstarted))
		return err
	}

	c.keepAliveOnce.Do(func() {
		go c.keepAlive()
	})
	return nil
}

// connect must be called with connectMu held
func (c *EndpointClient) connect(ctx context.Context) error {
	endpoint := c.cc.Endpoint().String()

	// the token is cached only once a session is installed with it
	token := c.token
	if token == nil {
		var err error
		if token, err = c.login(ctx); err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		s, err := c.transport.Dial(ctx, c.cc, token, c)
		if err == nil {
			if err := c.install(s); err != nil {
				return err
			}
			c.token = token
			return nil
		}
		lastErr = err

		if IsStateError(err) {
			return err
		}
		if !IsUnauthorized(err) || attempt == maxConnectAttempts {
			break
		}

		logging.Warn("Upgrade rejected as unauthorized, signing in again",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt))

		if token, err = c.login(ctx); err != nil {
			return err
		}
	}

	logging.Error("Failed to connect", zap.String("endpoint", endpoint), zap.Error(lastErr))
	return NewConnectionError("failed to connect to endpoint", endpoint, lastErr)
}

func (c *EndpointClient) login(ctx context.Context) (*AuthToken, error) {
	httpClient := c.opts.httpClient
	if httpClient == nil && c.opts.loginTLSConfig != nil {
		httpClient = NewLoginClient(c.cc, c.opts.loginTLSConfig)
	}
	return LoginWithClient(ctx, c.cc, httpClient)
}

// install makes s the current session. A session produced after Stop is
// closed right away.
func (c *EndpointClient) install(s *Session) error {
	c.sessionMu.Lock()
	if c.stopCtx.Err() != nil {
		c.sessionMu.Unlock()
		_ = s.Close(websocket.CloseNormalClosure, closeReason)
		return NewStateError("client was stopped while connecting")
	}
	previous := c.session
	c.session = s
	c.setState(StateConnected)
	c.sessionMu.Unlock()

	if previous != nil && previous.IsOpen() {
		logging.Warn("Replacing a session that is still open",
			zap.String("endpoint", c.cc.Endpoint().String()),
			zap.String("session", previous.ID()))
		_ = previous.Close(websocket.CloseNormalClosure, closeReason)
	}

	logging.LogConnection(c.cc.Endpoint().String(), "connected", zap.String("session", s.ID()))
	return nil
}

func (c *EndpointClient) currentSession() *Session {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.session
}

// SendText writes a text message to the current session. Sends are never
// retried.
func (c *EndpointClient) SendText(message string) error {
	s, err := c.sendableSession()
	if err != nil {
		return err
	}
	if err := s.WriteText(message); err != nil {
		return NewSendError("failed to send text message", c.cc.Endpoint().String(), err)
	}
	return nil
}

// SendBinary writes a binary message to the current session. Sends are
// never retried.
func (c *EndpointClient) SendBinary(message []byte) error {
	s, err := c.sendableSession()
	if err != nil {
		return err
	}
	if err := s.WriteBinary(message); err != nil {
		return NewSendError("failed to send binary message", c.cc.Endpoint().String(), err)
	}
	return nil
}

func (c *EndpointClient) sendableSession() (*Session, error) {
	s := c.currentSession()
	if s == nil || !s.IsOpen() {
		return nil, NewStateError("client is not connected; start it before sending")
	}
	return s, nil
}

// Stop closes the session and ends the keep-alive loop. It is idempotent
// and does not wait for an in-flight connect.
func (c *EndpointClient) Stop() {
	c.stopOnce.Do(func() {
		c.setState(StateClosing)
		c.cancel()

		c.sessionMu.Lock()
		s := c.session
		c.session = nil
		c.sessionMu.Unlock()

		if s != nil && s.IsOpen() {
			if err := s.Close(websocket.CloseNormalClosure, closeReason); err != nil {
				logging.Debug("Error closing session", zap.String("session", s.ID()), zap.Error(err))
			}
		}

		// a keep-alive loop that never started will not start any more
		c.keepAliveOnce.Do(func() { close(c.done) })

		c.setState(StateStopped)
		logging.LogConnection(c.cc.Endpoint().String(), "stopped")
	})
}

// setState moves to the given state. Stopped is final; Failed may only
// move on through Stop.
func (c *EndpointClient) setState(to State) {
	for {
		from := State(c.state.Load())
		if from == to || from == StateStopped {
			return
		}
		if from == StateFailed && to != StateClosing && to != StateStopped {
			return
		}
		if c.state.CompareAndSwap(int32(from), int32(to)) {
			logging.Debug("Client state changed",
				zap.String("endpoint", c.cc.Endpoint().String()),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
			return
		}
	}
}

func (c *EndpointClient) sessionMessage(s *Session, messageType int, data []byte) {
	if c.stopCtx.Err() != nil {
		return
	}

	switch messageType {
	case websocket.TextMessage:
		c.handler.OnText(string(data))
	case websocket.BinaryMessage:
		c.handler.OnBinary(data)
	}
}

func (c *EndpointClient) sessionError(s *Session, err error) {
	logging.Error("Session error",
		zap.String("endpoint", c.cc.Endpoint().String()),
		zap.String("session", s.ID()),
		zap.Error(err))
}

func (c *EndpointClient) sessionClosed(s *Session, code int, reason string) {
	logging.LogConnection(c.cc.Endpoint().String(), "session closed",
		zap.String("session", s.ID()),
		zap.Int("code", code),
		zap.String("reason", reason))

	c.sessionMu.Lock()
	if c.session == s {
		c.session = nil
		if c.stopCtx.Err() == nil {
			c.setState(StateReconnecting)
		}
	}
	c.sessionMu.Unlock()
}

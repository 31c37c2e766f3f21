package wsclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/octanews/internal/logging"
)

// newBackOff returns the pause policy applied after failed reconnects
func (c *EndpointClient) newBackOff() backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(c.opts.retryBackoff)
	if c.opts.maxReconnectAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(c.opts.maxReconnectAttempts-1))
	}
	return b
}

// keepAlive pings the open session every interval and reconnects when the
// session is gone. It runs until Stop or until the reconnect budget is
// exhausted.
func (c *EndpointClient) keepAlive() {
	defer close(c.done)

	endpoint := c.cc.Endpoint().String()
	b := c.newBackOff()
	timer := time.NewTimer(c.opts.keepAliveInterval)
	defer timer.Stop()

	logging.Debug("Keep-alive loop started",
		zap.String("endpoint", endpoint),
		zap.Duration("interval", c.opts.keepAliveInterval))

	for {
		select {
		case <-c.stopCtx.Done():
			logging.Debug("Keep-alive loop stopped", zap.String("endpoint", endpoint))
			return
		case <-timer.C:
		}

		wait, giveUp := c.afterTick(b, c.tick())
		if giveUp {
			c.setState(StateFailed)
			return
		}
		timer.Reset(wait)
	}
}

// afterTick returns the pause before the next tick and whether the loop
// should give up. Only failed reconnects count against the budget; a failed
// ping waits the retry backoff and lets the next tick reconnect.
func (c *EndpointClient) afterTick(b backoff.BackOff, err error) (time.Duration, bool) {
	endpoint := c.cc.Endpoint().String()

	switch {
	case err == nil:
		b.Reset()
		return c.opts.keepAliveInterval, false
	case c.stopCtx.Err() != nil:
		return c.opts.keepAliveInterval, false
	case errors.As(err, new(*pingError)):
		logging.Warn("Keep-alive ping failed",
			zap.String("endpoint", endpoint),
			zap.Duration("retry_in", c.opts.retryBackoff),
			zap.Error(err))
		return c.opts.retryBackoff, false
	}

	next := b.NextBackOff()
	if next == backoff.Stop {
		logging.Error("Giving up reconnecting",
			zap.String("endpoint", endpoint),
			zap.Int("attempts", c.opts.maxReconnectAttempts),
			zap.Error(err))
		return 0, true
	}
	logging.Warn("Reconnect failed",
		zap.String("endpoint", endpoint),
		zap.Duration("retry_in", next),
		zap.Error(err))
	return next, false
}

// pingError marks a keep-alive ping that could not be written
type pingError struct {
	session string
	err     error
}

func (e *pingError) Error() string {
	return fmt.Sprintf("ping session %s: %v", e.session, e.err)
}

func (e *pingError) Unwrap() error {
	return e.err
}

// tick pings the open session, or reconnects when there is none
func (c *EndpointClient) tick() error {
	if s := c.currentSession(); s != nil && s.IsOpen() {
		if err := s.Ping(keepAlivePayload); err != nil {
			// the next tick reconnects
			_ = s.Close(websocket.CloseGoingAway, "keep-alive ping failed")
			return &pingError{session: s.ID(), err: err}
		}
		return nil
	}

	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	// a concurrent Start may have reconnected already
	if s := c.currentSession(); s != nil && s.IsOpen() {
		return nil
	}
	if c.stopCtx.Err() != nil {
		return nil
	}

	c.setState(StateReconnecting)
	logging.LogConnection(c.cc.Endpoint().String(), "session lost, reconnecting")
	return c.connect(c.stopCtx)
}

package wsclient

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBudgetClient(t *testing.T, maxAttempts int) *EndpointClient {
	t.Helper()
	return newTestClient(t, contextForURL(t, "ws://localhost:8080/x"), &recorder{},
		WithKeepAliveInterval(time.Second),
		WithRetryBackoff(2*time.Second),
		WithMaxReconnectAttempts(maxAttempts))
}

func TestAfterTick_PingFailuresDoNotUseBudget(t *testing.T) {
	client := newBudgetClient(t, 1)
	b := client.newBackOff()
	pingErr := &pingError{session: "s", err: errors.New("broken pipe")}

	for i := 0; i < 5; i++ {
		wait, giveUp := client.afterTick(b, pingErr)
		assert.False(t, giveUp)
		assert.Equal(t, 2*time.Second, wait)
	}

	_, giveUp := client.afterTick(b, errors.New("reconnect failed"))
	assert.True(t, giveUp)
}

func TestAfterTick_ReconnectBudget(t *testing.T) {
	client := newBudgetClient(t, 3)
	b := client.newBackOff()
	reconnectErr := NewConnectionError("failed to connect to endpoint", "ws://localhost:8080/x", nil)

	for i := 0; i < 2; i++ {
		wait, giveUp := client.afterTick(b, reconnectErr)
		require.False(t, giveUp, "attempt %d", i+1)
		assert.Equal(t, 2*time.Second, wait)
	}

	// a success resets the count
	wait, giveUp := client.afterTick(b, nil)
	assert.False(t, giveUp)
	assert.Equal(t, time.Second, wait)

	for i := 0; i < 2; i++ {
		_, giveUp = client.afterTick(b, reconnectErr)
		require.False(t, giveUp)
	}
	_, giveUp = client.afterTick(b, reconnectErr)
	assert.True(t, giveUp)
}

func TestAfterTick_Unlimited(t *testing.T) {
	client := newBudgetClient(t, 0)
	b := client.newBackOff()

	for i := 0; i < 50; i++ {
		_, giveUp := client.afterTick(b, errors.New("reconnect failed"))
		require.False(t, giveUp)
	}
}

func TestAfterTick_StoppingIsNotAFailure(t *testing.T) {
	client := newBudgetClient(t, 1)
	b := client.newBackOff()
	client.Stop()

	_, giveUp := client.afterTick(b, errors.New("reconnect failed"))
	assert.False(t, giveUp)
}

func TestPingError_Unwraps(t *testing.T) {
	cause := errors.New("broken pipe")
	err := error(&pingError{session: "abc", err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "ping session abc: broken pipe", err.Error())
}

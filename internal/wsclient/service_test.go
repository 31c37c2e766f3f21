package wsclient

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_InitClientNil(t *testing.T) {
	svc := NewService()
	defer svc.Stop()

	assert.True(t, IsConfigurationError(svc.InitClient(context.Background(), nil)))
}

func TestService_InitClient(t *testing.T) {
	sim := startSimulator(t, 0)
	svc := NewService(WithHandshakeTimeout(2 * time.Second))
	handler := &recorder{}
	client := newTestClient(t, contextForURL(t, sim.URL()), handler)

	require.NoError(t, svc.InitClient(context.Background(), client))
	assert.Equal(t, 1, svc.Transport().ActiveSessions())
	require.NoError(t, client.SendText("via service"))
	require.Eventually(t, func() bool { return len(handler.Texts()) == 1 }, waitFor, tickFor)

	svc.Stop()
	assert.Equal(t, StateStopped, client.State())
	require.Eventually(t, func() bool { return svc.Transport().ActiveSessions() == 0 }, waitFor, tickFor)
	assert.True(t, IsStateError(svc.InitClient(context.Background(), client)))
}

func TestService_StartIsIdempotent(t *testing.T) {
	svc := NewService()
	defer svc.Stop()

	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())
}

func TestService_InitClientUnreachable(t *testing.T) {
	svc := NewService()
	defer svc.Stop()

	endpoint := "ws://127.0.0.1:" + strconv.Itoa(freePort(t)) + "/messaging/test"
	client := newTestClient(t, contextForURL(t, endpoint), &recorder{})

	assert.Error(t, svc.InitClient(context.Background(), client))
	assert.True(t, IsStateError(client.SendText("hello")))
}

func TestDefault(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestTransport_Lifecycle(t *testing.T) {
	sim := startSimulator(t, 0)
	cc := contextForURL(t, sim.URL())
	token, err := Login(context.Background(), cc)
	require.NoError(t, err)

	listener, err := NewEndpointClient(cc, &recorder{})
	require.NoError(t, err)

	transport := NewTransport()
	_, err = transport.Dial(context.Background(), cc, token, listener)
	assert.True(t, IsStateError(err), "dial before start: %v", err)

	require.NoError(t, transport.Start())
	require.NoError(t, transport.Start())

	session, err := transport.Dial(context.Background(), cc, token, listener)
	require.NoError(t, err)
	assert.True(t, session.IsOpen())
	assert.NotEmpty(t, session.ID())
	assert.Equal(t, 1, transport.ActiveSessions())

	transport.Stop()
	select {
	case <-session.Done():
	case <-time.After(waitFor):
		t.Fatal("session not closed by transport stop")
	}
	assert.False(t, session.IsOpen())
	assert.Equal(t, 0, transport.ActiveSessions())

	assert.True(t, IsStateError(transport.Start()))
	_, err = transport.Dial(context.Background(), cc, token, listener)
	assert.True(t, IsStateError(err), "dial after stop: %v", err)
}

func TestTransport_UnauthorizedUpgrade(t *testing.T) {
	sim := startSimulator(t, 0)
	cc := contextForURL(t, sim.URL())
	transport := startedTransport(t)
	listener, err := NewEndpointClient(cc, &recorder{})
	require.NoError(t, err)

	_, err = transport.Dial(context.Background(), cc, &AuthToken{Name: AuthCookieName, Value: "unknown"}, listener)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var upgradeErr *UpgradeError
	require.ErrorAs(t, err, &upgradeErr)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
}

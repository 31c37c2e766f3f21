package simulator

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, cfg *Config) *Server {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func signIn(t *testing.T, s *Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post("http://"+s.Addr()+SignInPath, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func tokenFrom(t *testing.T, resp *http.Response) string {
	t.Helper()
	header := resp.Header.Get("Set-Cookie")
	_, token, found := strings.Cut(header, AuthCookieName+"=")
	require.True(t, found, "Set-Cookie %q has no token", header)
	return token
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "localhost", s.config.Host)
	assert.Equal(t, DefaultPath, s.Path())
	assert.Equal(t, DefaultClient, s.config.Client)
	assert.Equal(t, DefaultSecret, s.config.Secret)
	assert.Empty(t, s.Addr())
	assert.Zero(t, s.Port())
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"relative path", Config{Path: "messaging"}},
		{"sign-in path", Config{Path: SignInPath}},
		{"negative port", Config{Port: -1}},
		{"port too large", Config{Port: 70000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestSignIn(t *testing.T) {
	s := startServer(t, &Config{Client: "id", Secret: "pw"})

	t.Run("accepted", func(t *testing.T) {
		resp := signIn(t, s, `{"client_id":"id","client_secret":"pw"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		header := resp.Header.Get("Set-Cookie")
		assert.True(t, strings.HasPrefix(header, "NON_RELEVANT_COOKIE=non_relevant_data;"), header)
		assert.NotEmpty(t, tokenFrom(t, resp))
	})

	t.Run("wrong secret", func(t *testing.T) {
		resp := signIn(t, s, `{"client_id":"id","client_secret":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := signIn(t, s, `{`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get("http://" + s.Addr() + SignInPath)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	assert.Equal(t, 1, s.LoginCount())
}

func TestWebSocket_RequiresToken(t *testing.T) {
	s := startServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(s.URL(), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Cookie", AuthCookieName+"=made-up")
	_, resp, err = websocket.DefaultDialer.Dial(s.URL(), header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func dialWithToken(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	token := tokenFrom(t, signIn(t, s, `{"client_id":"client","client_secret":"secret"}`))

	header := http.Header{}
	header.Set("Cookie", AuthCookieName+"="+token)
	ws, _, err := websocket.DefaultDialer.Dial(s.URL(), header)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestWebSocket_Echo(t *testing.T) {
	s := startServer(t, nil)
	ws := dialWithToken(t, s)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("hello")))
	messageType, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "hello", s.LastText())

	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))
	messageType, data, err = ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, messageType)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, []byte{1, 2, 3}, s.LastBinary())

	assert.Equal(t, 1, s.ActiveConnections())
}

func TestBroadcastAndDrop(t *testing.T) {
	s := startServer(t, nil)
	ws := dialWithToken(t, s)

	require.Eventually(t, func() bool { return s.ActiveConnections() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, s.Broadcast("news"))

	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "news", string(data))

	assert.Equal(t, 1, s.DropConnections())
	_, _, err = ws.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, s.ActiveConnections())
}

func TestRevokeTokens(t *testing.T) {
	s := startServer(t, nil)
	token := tokenFrom(t, signIn(t, s, `{"client_id":"client","client_secret":"secret"}`))
	s.RevokeTokens()

	header := http.Header{}
	header.Set("Cookie", AuthCookieName+"="+token)
	_, resp, err := websocket.DefaultDialer.Dial(s.URL(), header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTLS_GeneratedCertificate(t *testing.T) {
	s := startServer(t, &Config{Host: "127.0.0.1", TLS: true})
	assert.Equal(t, "wss", s.Scheme())
	assert.True(t, strings.HasPrefix(s.URL(), "wss://127.0.0.1:"))
	assert.True(t, strings.HasPrefix(s.SignInURL(), "https://"))

	pool := x509.NewCertPool()
	require.True(t, pool.AppendCertsFromPEM(s.CertificatePEM()))
	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
	}}

	resp, err := client.Post(s.SignInURL(), "application/json",
		strings.NewReader(`{"client_id":"client","client_secret":"secret"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), AuthCookieName+"=")
}

func TestTLS_MissingCertificateFiles(t *testing.T) {
	_, err := New(&Config{TLS: true, CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"})
	assert.Error(t, err)
}

func TestPlainServer_HasNoCertificate(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "ws", s.Scheme())
	assert.Nil(t, s.CertificatePEM())
}

package simulator

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/octanews/internal/logging"
)

const (
	// AuthCookieName is the cookie carrying issued tokens
	AuthCookieName = "LWSSO_COOKIE_KEY"

	// SignInPath is the login route
	SignInPath = "/authentication/sign_in"

	// DefaultPath is the default messaging route
	DefaultPath = "/messaging/test"

	// DefaultClient and DefaultSecret are the credentials accepted when none are configured
	DefaultClient = "client"
	DefaultSecret = "secret"

	// extraCookie is sent ahead of the token so clients have to pick the right pair
	extraCookie = "NON_RELEVANT_COOKIE=non_relevant_data"
)

// Config holds the simulator configuration
type Config struct {
	Host   string // Listen host (default "localhost")
	Port   int    // Listen port (0 picks a free port)
	Path   string // Messaging path (default DefaultPath)
	Client string // Accepted client ID (default DefaultClient)
	Secret string // Accepted client secret (default DefaultSecret)

	TLS      bool   // Serve https and wss
	CertFile string // Certificate file (a self-signed one is generated when empty)
	KeyFile  string // Private key file
}

type signInRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Server is a login plus echo WebSocket endpoint
type Server struct {
	config     *Config
	listener   net.Listener
	httpServer *http.Server
	tlsConfig  *tls.Config
	certPEM    []byte
	upgrader   websocket.Upgrader
	wg         sync.WaitGroup

	mu          sync.Mutex
	tokens      map[string]struct{}
	activeConns map[string]*conn
	logins      int
	lastText    string
	lastBinary  []byte
}

// conn is one upgraded connection with its write lock
type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *conn) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(messageType, data)
}

// New creates a simulator; defaults fill unset fields
func New(config *Config) (*Server, error) {
	if config == nil {
		config = &Config{}
	}
	cfg := *config
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Path[0] != '/' {
		return nil, fmt.Errorf("messaging path must start with '/': %q", cfg.Path)
	}
	if cfg.Path == SignInPath {
		return nil, fmt.Errorf("messaging path must differ from %s", SignInPath)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Client == "" {
		cfg.Client = DefaultClient
	}
	if cfg.Secret == "" {
		cfg.Secret = DefaultSecret
	}

	s := &Server{
		config:      &cfg,
		tokens:      make(map[string]struct{}),
		activeConns: make(map[string]*conn),
	}

	if cfg.TLS {
		tlsConfig, certPEM, err := newTLSConfig(&cfg)
		if err != nil {
			return nil, err
		}
		s.tlsConfig = tlsConfig
		s.certPEM = certPEM
	}

	mux := http.NewServeMux()
	mux.HandleFunc(SignInPath, s.handleSignIn)
	mux.HandleFunc(cfg.Path, s.handleWebSocket)
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start listens and serves in the background
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}
	s.listener = listener

	logging.Info("Simulator listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("path", s.config.Path),
		zap.Bool("tls", s.tlsConfig != nil),
		zap.String("client", s.config.Client))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Simulator stopped serving", zap.Error(err))
		}
	}()
	return nil
}

// Run starts the simulator and blocks until ctx is done
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Addr returns the listen address (host:port); empty before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the bound port; 0 before Start
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Scheme returns "wss" when serving TLS, "ws" otherwise
func (s *Server) Scheme() string {
	if s.tlsConfig != nil {
		return "wss"
	}
	return "ws"
}

// URL returns the WebSocket URL of the messaging path
func (s *Server) URL() string {
	return fmt.Sprintf("%s://%s%s", s.Scheme(), s.Addr(), s.config.Path)
}

// SignInURL returns the login URL
func (s *Server) SignInURL() string {
	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, s.Addr(), SignInPath)
}

// CertificatePEM returns the generated certificate clients should trust;
// nil without TLS or when the certificate came from files
func (s *Server) CertificatePEM() []byte {
	return s.certPEM
}

// Path returns the messaging path
func (s *Server) Path() string {
	return s.config.Path
}

// Shutdown closes the listener and every WebSocket connection
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down simulator...")

	err := s.httpServer.Shutdown(ctx)
	s.DropConnections()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("Simulator stopped")
	case <-ctx.Done():
		logging.Warn("Simulator shutdown timeout, forcing close")
	}
	return err
}

// ActiveConnections returns the number of open WebSocket connections
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

// LoginCount returns the number of successful logins
func (s *Server) LoginCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// LastText returns the last text message received
func (s *Server) LastText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastText
}

// LastBinary returns a copy of the last binary message received
func (s *Server) LastBinary() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastBinary == nil {
		return nil
	}
	return append([]byte(nil), s.lastBinary...)
}

// Broadcast sends text to every open connection and returns how many got it
func (s *Server) Broadcast(text string) int {
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.activeConns))
	for _, c := range s.activeConns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	sent := 0
	for _, c := range conns {
		if err := c.write(websocket.TextMessage, []byte(text)); err != nil {
			logging.Warn("Broadcast failed", zap.String("remote_addr", c.ws.RemoteAddr().String()), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// RevokeTokens forgets every issued token; the next upgrade with an old
// token is rejected with 401
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.tokens = make(map[string]struct{})
	s.mu.Unlock()
	logging.Info("Simulator tokens revoked")
}

// DropConnections closes every WebSocket connection without a close
// handshake and returns how many were closed
func (s *Server) DropConnections() int {
	s.mu.Lock()
	conns := s.activeConns
	s.activeConns = make(map[string]*conn)
	s.mu.Unlock()

	for id, c := range conns {
		logging.Info("Closing active connection", zap.String("conn", id))
		_ = c.ws.Close()
	}
	return len(conns)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.Warn("Malformed sign-in request", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		http.Error(w, "malformed sign-in request", http.StatusBadRequest)
		return
	}

	if req.ClientID != s.config.Client || req.ClientSecret != s.config.Secret {
		logging.Warn("Sign-in rejected", zap.String("client", req.ClientID))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.logins++
	s.mu.Unlock()

	w.Header().Add("Set-Cookie", extraCookie+";"+AuthCookieName+"="+token)
	w.WriteHeader(http.StatusOK)
	logging.Info("Sign-in accepted", zap.String("client", req.ClientID))
}

func (s *Server) validToken(r *http.Request) bool {
	cookie, err := r.Cookie(AuthCookieName)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[cookie.Value]
	return ok
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.validToken(r) {
		logging.Warn("Upgrade rejected: missing or unknown token", zap.String("remote_addr", r.RemoteAddr))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		logging.Warn("Upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	id := uuid.NewString()
	c := &conn{ws: ws}
	s.mu.Lock()
	s.activeConns[id] = c
	s.mu.Unlock()

	logging.Info("WebSocket connection accepted",
		zap.String("conn", id),
		zap.String("remote_addr", r.RemoteAddr))

	s.wg.Add(1)
	go s.echo(id, c)
}

func (s *Server) echo(id string, c *conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.activeConns, id)
		s.mu.Unlock()
		_ = c.ws.Close()
		logging.Info("WebSocket connection closed", zap.String("conn", id))
	}()

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("Read error", zap.String("conn", id), zap.Error(err))
			}
			return
		}

		s.mu.Lock()
		switch messageType {
		case websocket.TextMessage:
			s.lastText = string(data)
		case websocket.BinaryMessage:
			s.lastBinary = append([]byte(nil), data...)
		}
		s.mu.Unlock()

		if err := c.write(messageType, data); err != nil {
			logging.Debug("Echo failed", zap.String("conn", id), zap.Error(err))
			return
		}
	}
}

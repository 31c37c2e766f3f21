package wsclient

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/octanews/internal/logging"
)

// controlWriteTimeout bounds ping and close frame writes
const controlWriteTimeout = 5 * time.Second

// sessionListener receives session events from the read loop
type sessionListener interface {
	sessionMessage(s *Session, messageType int, data []byte)
	sessionError(s *Session, err error)
	sessionClosed(s *Session, code int, reason string)
}

// Session is one open WebSocket connection.
// Writes are serialized; ping and close may be called concurrently with them.
type Session struct {
	id       string
	endpoint string
	conn     *websocket.Conn
	listener sessionListener
	onDone   func(*Session)

	writeMu    sync.Mutex
	open       atomic.Bool
	closedByUs atomic.Bool
	closeOnce  sync.Once
	done       chan struct{}
}

func newSession(conn *websocket.Conn, endpoint string, listener sessionListener, onDone func(*Session)) *Session {
	s := &Session{
		id:       uuid.NewString(),
		endpoint: endpoint,
		conn:     conn,
		listener: listener,
		onDone:   onDone,
		done:     make(chan struct{}),
	}
	s.open.Store(true)
	return s
}

// ID returns the session's correlation ID
func (s *Session) ID() string {
	return s.id
}

// IsOpen reports whether the session can still be written to
func (s *Session) IsOpen() bool {
	return s.open.Load()
}

// Done is closed once the read loop has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) start() {
	logging.LogConnection(s.endpoint, "session opened", zap.String("session", s.id))
	go s.readLoop()
}

// WriteText sends a text frame
func (s *Session) WriteText(message string) error {
	return s.write(websocket.TextMessage, []byte(message))
}

// WriteBinary sends a binary frame
func (s *Session) WriteBinary(message []byte) error {
	return s.write(websocket.BinaryMessage, message)
}

func (s *Session) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.WriteMessage(messageType, data); err != nil {
		return err
	}
	logging.LogWebSocketMessage(s.endpoint, "outbound", messageType, data)
	return nil
}

// Ping sends a ping control frame
func (s *Session) Ping(payload []byte) error {
	return s.conn.WriteControl(websocket.PingMessage, payload, time.Now().Add(controlWriteTimeout))
}

// Close sends a close frame and closes the connection. Closing twice is a no-op.
func (s *Session) Close(code int, reason string) error {
	var err error
	s.closeOnce.Do(func() {
		s.open.Store(false)
		s.closedByUs.Store(true)
		msg := websocket.FormatCloseMessage(code, reason)
		err = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(controlWriteTimeout))
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

func (s *Session) readLoop() {
	defer close(s.done)
	defer s.onDone(s)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.open.Store(false)
			s.closeOnce.Do(func() { s.conn.Close() })

			code, reason := websocket.CloseAbnormalClosure, ""
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				code, reason = closeErr.Code, closeErr.Text
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.listener.sessionError(s, err)
				}
			} else if !s.closedByUs.Load() {
				s.listener.sessionError(s, err)
			}
			s.listener.sessionClosed(s, code, reason)
			return
		}

		logging.LogWebSocketMessage(s.endpoint, "inbound", messageType, data)
		s.listener.sessionMessage(s, messageType, data)
	}
}

package wsclient

import (
	"go.uber.org/zap"

	"github.com/muurk/octanews/internal/logging"
)

// MessageHandler receives inbound messages of an EndpointClient.
// Callbacks run on the session's read goroutine and must not block for long.
type MessageHandler interface {
	OnText(message string)
	OnBinary(message []byte)
}

// HandlerFuncs adapts plain functions to a MessageHandler.
// A nil function drops the message and logs a warning.
type HandlerFuncs struct {
	Text   func(message string)
	Binary func(message []byte)
}

// OnText implements MessageHandler
func (h HandlerFuncs) OnText(message string) {
	if h.Text == nil {
		logging.Warn("Text message received but no text handler is set", zap.Int("length", len(message)))
		return
	}
	h.Text(message)
}

// OnBinary implements MessageHandler
func (h HandlerFuncs) OnBinary(message []byte) {
	if h.Binary == nil {
		logging.Warn("Binary message received but no binary handler is set", zap.Int("length", len(message)))
		return
	}
	h.Binary(message)
}

package wsclient

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/octanews/internal/logging"
)

// Service owns one Transport and starts endpoint clients on it.
// Stopping the service stops every client it initialized.
type Service struct {
	transport *Transport

	startOnce sync.Once
	startErr  error

	mu      sync.Mutex
	clients []*EndpointClient
}

// NewService creates a service with its own transport
func NewService(opts ...TransportOption) *Service {
	return &Service{transport: NewTransport(opts...)}
}

var (
	defaultService     *Service
	defaultServiceOnce sync.Once
)

// Default returns the process-wide service, creating it on first use
func Default() *Service {
	defaultServiceOnce.Do(func() {
		defaultService = NewService()
	})
	return defaultService
}

// Transport returns the service's transport
func (s *Service) Transport() *Transport {
	return s.transport
}

// Start starts the transport. Calling it more than once is a no-op.
func (s *Service) Start() error {
	s.startOnce.Do(func() {
		s.startErr = s.transport.Start()
		if s.startErr == nil {
			logging.Debug("Client service started")
		}
	})
	return s.startErr
}

// InitClient starts client on the service's transport, starting the
// transport first if needed
func (s *Service) InitClient(ctx context.Context, client *EndpointClient) error {
	if client == nil {
		return NewConfigurationError("client must not be nil")
	}
	if err := s.Start(); err != nil {
		return err
	}

	if err := client.Start(ctx, s.transport); err != nil {
		return err
	}

	s.mu.Lock()
	s.clients = append(s.clients, client)
	s.mu.Unlock()

	logging.Info("Client initialized",
		zap.String("endpoint", client.Context().Endpoint().String()),
		zap.String("client", client.Context().Client()))
	return nil
}

// Stop stops the initialized clients and the transport
func (s *Service) Stop() {
	s.mu.Lock()
	clients := s.clients
	s.clients = nil
	s.mu.Unlock()

	for _, c := range clients {
		c.Stop()
	}
	s.transport.Stop()
	logging.Debug("Client service stopped")
}

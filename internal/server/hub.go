// Package server tracks attached clients by connection id and delivers
// relay payloads to their outbound queues via the Hub type.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Tyrowin/gorelay/internal/config"
	"github.com/Tyrowin/gorelay/internal/metrics"
	"github.com/Tyrowin/gorelay/internal/relay"
)

// Hub owns the live WebSocket clients keyed by connection id and delivers
// outbound payloads to them. It implements relay.Sender.
type Hub struct {
	clients map[string]*Client
	mutex   sync.RWMutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.TransportMetrics
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub's logger.
func WithHubLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithHubMetrics sets the transport instruments.
func WithHubMetrics(m *metrics.TransportMetrics) HubOption {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// NewHub creates a Hub using cfg for per-client limits. A nil cfg uses defaults.
func NewHub(cfg *config.Config, opts ...HubOption) *Hub {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients: make(map[string]*Client),
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = metrics.NewTransportMetrics(prometheus.NewRegistry())
	}
	return h
}

var _ relay.Sender = (*Hub)(nil)

// Send queues payload for the client with the given id without blocking.
func (h *Hub) Send(id string, payload []byte) error {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	client, ok := h.clients[id]
	if !ok {
		return fmt.Errorf("send to %q: %w", id, ErrUnknownConnection)
	}

	select {
	case client.send <- payload:
		return nil
	default:
		return fmt.Errorf("send to %q: %w", id, ErrSendBufferFull)
	}
}

// ClientCount returns the number of attached clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// attach makes client reachable through Send and starts its pumps. The hub
// tracks the pumps for Shutdown.
func (h *Hub) attach(client *Client) error {
	return h.add(client, true)
}

func (h *Hub) add(client *Client, startPumps bool) error {
	h.mutex.Lock()
	if h.ctx.Err() != nil {
		h.mutex.Unlock()
		return ErrHubClosed
	}
	if _, exists := h.clients[client.id]; exists {
		h.mutex.Unlock()
		return fmt.Errorf("attach %q: %w", client.id, ErrClientExists)
	}
	h.clients[client.id] = client
	count := len(h.clients)
	if startPumps {
		h.wg.Add(2)
	}
	h.mutex.Unlock()

	h.logger.Debug("Client attached", zap.String("connection_id", client.id), zap.Int("clients", count))

	if startPumps {
		go func() {
			defer h.wg.Done()
			client.writePump()
		}()
		go func() {
			defer h.wg.Done()
			client.readPump()
		}()
	}
	return nil
}

// detach removes client and closes its send queue. It reports whether the
// client was attached, so callers can fire disconnect handling exactly once.
func (h *Hub) detach(client *Client) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if current, ok := h.clients[client.id]; !ok || current != client {
		return false
	}
	delete(h.clients, client.id)
	// Send holds the read lock while enqueueing, so closing here is safe.
	close(client.send)
	h.logger.Debug("Client detached", zap.String("connection_id", client.id), zap.Int("clients", len(h.clients)))
	return true
}

// shutdownClients closes every attached socket; the read pumps then detach
// their clients and report the disconnects.
func (h *Hub) shutdownClients() int {
	h.mutex.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.RUnlock()

	for _, client := range clients {
		client.closeConnection()
	}
	return len(clients)
}

// Shutdown stops accepting clients, closes all connections, and waits for
// the pump goroutines to finish or for the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("Initiating hub shutdown")

	h.mutex.Lock()
	h.cancel()
	h.mutex.Unlock()

	closed := h.shutdownClients()
	h.logger.Info("Closed client connections", zap.Int("count", closed))

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

// Package relay fans externally triggered messages out to every connection in
// the registry and records the connection lifecycle reported by the transport.
package relay

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Tyrowin/gorelay/internal/metrics"
	"github.com/Tyrowin/gorelay/internal/registry"
)

// Sender is the outbound delivery primitive exposed by the transport.
// Implementations must not block for longer than a bounded time.
type Sender interface {
	Send(id string, payload []byte) error
}

// EventHandler receives connection events from the transport.
type EventHandler interface {
	OnConnect(id string) error
	OnMessage(id string, payload []byte)
	OnDisconnect(id string)
}

// Message is a payload together with the connection it came from. SenderID
// is empty for server-originated messages.
type Message struct {
	Payload  []byte
	SenderID string
}

// External reports whether the message did not originate from a client.
func (m Message) External() bool {
	return m.SenderID == ""
}

// Relay connects transport events to the connection registry.
type Relay struct {
	registry *registry.Registry
	sender   Sender
	logger   *zap.Logger
	metrics  *metrics.RelayMetrics
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger used for lifecycle and delivery events.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the instruments updated by the relay.
func WithMetrics(m *metrics.RelayMetrics) Option {
	return func(r *Relay) {
		if m != nil {
			r.metrics = m
		}
	}
}

// New creates a Relay that owns reg for connection bookkeeping and delivers
// through sender.
func New(reg *registry.Registry, sender Sender, opts ...Option) *Relay {
	r := &Relay{
		registry: reg,
		sender:   sender,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.NewRelayMetrics(prometheus.NewRegistry())
	}
	return r
}

var _ EventHandler = (*Relay)(nil)

// OnConnect registers a newly connected client. A duplicate id is logged and
// reported; the existing registration is left untouched.
func (r *Relay) OnConnect(id string) error {
	if err := r.registry.Register(id); err != nil {
		r.metrics.DuplicateConnections.Inc()
		r.logger.Warn("Rejected connection registration", zap.String("connection_id", id), zap.Error(err))
		return err
	}

	r.metrics.ActiveConnections.Set(float64(r.registry.Len()))
	r.logger.Info("A user is connected", zap.String("connection_id", id))
	return nil
}

// OnDisconnect unregisters a client. Unknown ids are ignored.
func (r *Relay) OnDisconnect(id string) {
	if !r.registry.Unregister(id) {
		r.logger.Debug("Disconnect for unknown connection", zap.String("connection_id", id))
		return
	}

	r.metrics.ActiveConnections.Set(float64(r.registry.Len()))
	r.logger.Info("Connection disconnected", zap.String("connection_id", id))
}

// OnMessage handles an inbound transport message.
func (r *Relay) OnMessage(id string, payload []byte) {
	r.OnClientMessage(id, payload)
}

// OnClientMessage records a message sent by a client. Client messages are
// logged only and are never forwarded to other connections.
func (r *Relay) OnClientMessage(senderID string, payload []byte) {
	r.metrics.ClientMessages.Inc()
	r.logger.Info("Message from client",
		zap.String("sender", senderID),
		zap.ByteString("payload", payload),
	)
}

// OnExternalTrigger delivers payload to every connection registered at the
// time of the call and returns the number of attempted deliveries. A failure
// for one recipient does not affect the others and does not unregister it.
func (r *Relay) OnExternalTrigger(payload []byte) int {
	ids := r.registry.List()
	r.metrics.Triggers.Inc()

	failed := 0
	for _, id := range ids {
		if err := r.deliver(id, payload); err != nil {
			failed++
			r.metrics.DeliveryFailures.Inc()
			r.logger.Warn("Delivery failed", zap.String("connection_id", id), zap.Error(err))
		}
	}
	r.metrics.Deliveries.Add(float64(len(ids)))

	r.logger.Debug("Broadcast complete",
		zap.Int("attempted", len(ids)),
		zap.Int("failed", failed),
	)
	return len(ids)
}

// Broadcast routes m by origin: client messages are logged, external ones
// are fanned out. The returned count is zero for client messages.
func (r *Relay) Broadcast(m Message) int {
	if !m.External() {
		r.OnClientMessage(m.SenderID, m.Payload)
		return 0
	}
	return r.OnExternalTrigger(m.Payload)
}

// ConnectionCount returns the number of registered connections.
func (r *Relay) ConnectionCount() int {
	return r.registry.Len()
}

func (r *Relay) deliver(id string, payload []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("send to %q panicked: %v", id, rec)
		}
	}()
	return r.sender.Send(id, payload)
}

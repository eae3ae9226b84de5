// Package server defines the wire envelope, transport errors, and utility
// helpers reused across client and hub logic.
package server

import (
	"encoding/json"
	"errors"
	"strings"
)

// EventMessage is the only event name the relay acts on.
const EventMessage = "message"

var (
	// ErrUnknownConnection is returned when sending to an id with no live socket.
	ErrUnknownConnection = errors.New("unknown connection")
	// ErrSendBufferFull is returned when a client's outbound queue is full.
	ErrSendBufferFull = errors.New("send buffer full")
	// ErrClientExists is returned when attaching a second socket under one id.
	ErrClientExists = errors.New("client already attached")
	// ErrHubClosed is returned when attaching after shutdown has begun.
	ErrHubClosed = errors.New("hub is shut down")
)

// Envelope is the JSON frame exchanged with clients. Data carries any JSON
// value, e.g. a string or a millisecond timestamp.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope encodes data under the given event name.
func NewEnvelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}

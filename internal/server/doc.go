// Package server implements the WebSocket transport and HTTP surface of GoRelay.
//
// The Hub owns the live sockets and implements the relay's outbound Send
// primitive; each Client pumps frames between its socket and the relay's
// event handler. Handlers, routes, and the HTTP server lifecycle live in
// their own files alongside the origin policy and per-connection rate
// limiting.
package server

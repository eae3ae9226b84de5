// Package testhelpers provides common utilities for testing the GoRelay server.
//
// It holds the WebSocket dial/read helpers and HTTP assertions shared by the
// transport and routing tests so each test file stays focused on behavior.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// TestOrigin is the Origin header sent by ConnectWebSocket.
const TestOrigin = "http://localhost:8000"

// WebSocketURL converts an httptest server URL into the ws:// URL of path.
func WebSocketURL(serverURL, path string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + path
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	require.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	require.Equal(t, expected, resp.Header.Get("Content-Type"), "unexpected content type")
}

// MakeRequest creates and executes an HTTP request with a 5-second timeout,
// failing the test if the request cannot be made.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err, "failed to create request")

	resp, err := client.Do(req)
	require.NoError(t, err, "failed to make request")
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

// ConnectWebSocket dials url with the given Origin header. An empty origin
// uses TestOrigin.
func ConnectWebSocket(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	if origin == "" {
		origin = TestOrigin
	}
	headers := http.Header{}
	headers.Set("Origin", origin)

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// MustConnect dials url and closes the connection when the test ends.
func MustConnect(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := ConnectWebSocket(url, "")
	require.NoError(t, err, "failed to connect WebSocket")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendMessage sends a "message" event carrying data.
func SendMessage(conn *websocket.Conn, data any) error {
	return conn.WriteJSON(map[string]any{"event": "message", "data": data})
}

// SendRawMessage sends a raw frame over the WebSocket connection.
func SendRawMessage(conn *websocket.Conn, messageType int, data []byte) error {
	return conn.WriteMessage(messageType, data)
}

// ReceiveMessage reads one JSON frame, waiting at most timeout.
func ReceiveMessage(conn *websocket.Conn, timeout time.Duration) (map[string]any, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var message map[string]any
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, err
	}
	return message, nil
}

// RequireMessage reads a frame and checks its event and data fields.
func RequireMessage(t *testing.T, conn *websocket.Conn, expectedData any) {
	t.Helper()
	message, err := ReceiveMessage(conn, 2*time.Second)
	require.NoError(t, err, "expected a message")
	require.Equal(t, "message", message["event"])
	require.Equal(t, expectedData, message["data"])
}

// ExpectNoMessage fails the test if a frame arrives within wait.
func ExpectNoMessage(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected message received: %s", data)
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

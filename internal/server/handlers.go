// Package server exposes HTTP handlers, including WebSocket upgrades, the
// broadcast trigger, health checks, and the built-in test page.
package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tyrowin/gorelay/internal/relay"
)

// Relay is what the HTTP layer needs from the broadcast relay: the transport
// event callbacks and the external trigger.
type Relay interface {
	relay.EventHandler
	OnExternalTrigger(payload []byte) int
}

// Handlers serves the WebSocket endpoint, the trigger route, and the
// informational pages.
type Handlers struct {
	hub      *Hub
	relay    Relay
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandlers wires the hub and relay into HTTP handlers. WebSocket upgrades
// are restricted by origins.
func NewHandlers(hub *Hub, r Relay, origins *OriginPolicy, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if origins == nil {
		origins = NewOriginPolicy([]string{"*"}, logger)
	}
	return &Handlers{
		hub:   hub,
		relay: r,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.CheckOrigin,
		},
		logger: logger,
	}
}

// WebSocketHandler upgrades the request, assigns the connection a fresh id,
// registers it with the relay, and attaches it to the hub.
func (h *Handlers) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(uuid.NewString(), conn, h.hub, h.relay, r.RemoteAddr)

	if err := h.relay.OnConnect(client.id); err != nil {
		client.closeConnection()
		return
	}

	if err := h.hub.attach(client); err != nil {
		h.logger.Warn("Could not attach client", zap.String("connection_id", client.id), zap.Error(err))
		h.relay.OnDisconnect(client.id)
		client.closeConnection()
	}
}

// TriggerHandler broadcasts "Hello, <request URI>" to every connected client
// and always acknowledges with 200, whatever the fan-out outcome.
func (h *Handlers) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := NewEnvelope(EventMessage, "Hello, "+r.URL.RequestURI())
	if err != nil {
		h.logger.Error("Failed to encode trigger payload", zap.Error(err))
	} else {
		delivered := h.relay.OnExternalTrigger(payload)
		h.logger.Info("External trigger broadcast", zap.String("uri", r.URL.RequestURI()), zap.Int("deliveries", delivered))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, "hello world!")
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "GoRelay server is running!")
}

// TestPageHandler serves a small page for exercising the relay by hand: it
// connects to /ws, emits timestamp messages, and calls the trigger route.
func (h *Handlers) TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPage); err != nil {
		h.logger.Warn("Error writing HTML response", zap.Error(err))
	}
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>GoRelay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>GoRelay Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <button id="emitButton" onclick="emitTime()" disabled>Emit a time message</button>
        <button onclick="trigger()">Call /api/v1/hello</button>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const emitButton = document.getElementById('emitButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addMessage(text) {
            const el = document.createElement('div');
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            emitButton.disabled = !connected;
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = () => { addMessage('connected to server'); updateStatus(true); };
            ws.onmessage = (event) => {
                const msg = JSON.parse(event.data);
                addMessage(msg.event + ': ' + msg.data);
            };
            ws.onclose = () => { addMessage('connection closed'); updateStatus(false); ws = null; };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function emitTime() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ event: 'message', data: new Date().getTime() }));
            }
        }

        function trigger() {
            fetch('/api/v1/hello').then((r) => r.text()).then((t) => addMessage('trigger: ' + t));
        }
    </script>
</body>
</html>`

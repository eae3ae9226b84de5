package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gorelay/internal/metrics"
	"github.com/Tyrowin/gorelay/internal/testhelpers"
)

type triggerRecorder struct {
	nopEvents
	payloads []string
}

func (r *triggerRecorder) OnExternalTrigger(payload []byte) int {
	r.payloads = append(r.payloads, string(payload))
	return 7
}

func newTestRouter(t *testing.T, r Relay) http.Handler {
	t.Helper()
	hub := NewHub(nil)
	handlers := NewHandlers(hub, r, nil, nil)
	reg := prometheus.NewRegistry()
	metrics.NewRelayMetrics(reg)
	return SetupRoutes(handlers, metrics.Handler(reg), []string{"*"})
}

func TestHealthHandler(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			rr := httptest.NewRecorder()
			HealthHandler(rr, httptest.NewRequest(method, "/", http.NoBody))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "GoRelay server is running!", rr.Body.String())
		})
	}
}

func TestTriggerRoute(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		target  string
		payload string
	}{
		{"GET", http.MethodGet, "/api/v1/hello", `{"event":"message","data":"Hello, /api/v1/hello"}`},
		{"POST", http.MethodPost, "/api/v1/hello", `{"event":"message","data":"Hello, /api/v1/hello"}`},
		{"query string kept", http.MethodGet, "/api/v1/hello?name=go", `{"event":"message","data":"Hello, /api/v1/hello?name=go"}`},
		{"sub path", http.MethodGet, "/api/v1/hello/world", `{"event":"message","data":"Hello, /api/v1/hello/world"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &triggerRecorder{}
			router := newTestRouter(t, recorder)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.target, http.NoBody))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "hello world!", rr.Body.String())
			require.Len(t, recorder.payloads, 1)
			assert.JSONEq(t, tt.payload, recorder.payloads[0])
		})
	}
}

func TestWebSocketHandlerRejectsNonGet(t *testing.T) {
	router := newTestRouter(t, &triggerRecorder{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ws", http.NoBody))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRoutes(t *testing.T) {
	testServer := httptest.NewServer(newTestRouter(t, &triggerRecorder{}))
	defer testServer.Close()

	t.Run("health", func(t *testing.T) {
		resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+"/")
		testhelpers.AssertStatusCode(t, resp, http.StatusOK)
		testhelpers.AssertContentType(t, resp, "text/plain")
		assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	})

	t.Run("test page", func(t *testing.T) {
		resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+"/test")
		testhelpers.AssertStatusCode(t, resp, http.StatusOK)
		testhelpers.AssertContentType(t, resp, "text/html")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "/api/v1/hello")
	})

	t.Run("metrics", func(t *testing.T) {
		resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+"/metrics")
		testhelpers.AssertStatusCode(t, resp, http.StatusOK)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "gorelay_connections_active")
	})

	t.Run("unknown route", func(t *testing.T) {
		resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+"/nope")
		testhelpers.AssertStatusCode(t, resp, http.StatusNotFound)
	})
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := newTestRouter(t, &triggerRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(RequestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "req-123", rr.Header().Get(RequestIDHeader))
}

func TestCORSIsPermissive(t *testing.T) {
	router := newTestRouter(t, &triggerRecorder{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/hello", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/hello", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreateServer(t *testing.T) {
	handler := newTestRouter(t, &triggerRecorder{})
	srv := CreateServer(":8000", handler)

	assert.Equal(t, ":8000", srv.Addr)
	assert.NotNil(t, srv.Handler)
	assert.NotZero(t, srv.ReadTimeout)
	assert.NotZero(t, srv.WriteTimeout)
	assert.NotZero(t, srv.IdleTimeout)
}

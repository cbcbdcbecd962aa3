// Package handlers_test provides behavior tests for the admin handlers package.
package handlers_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/msgbox/internal/admin/handlers"
	"github.com/jroosing/msgbox/internal/admin/models"
	"github.com/jroosing/msgbox/internal/config"
	"github.com/jroosing/msgbox/internal/engine"
	"github.com/jroosing/msgbox/internal/wire"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth_ReturnsOK(t *testing.T) {
	h := handlers.New(engine.New(nil), &config.Config{}, slog.Default())
	router := gin.New()
	router.GET("/health", h.Health)

	w := performRequest(router, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestStats_ReturnsCounters(t *testing.T) {
	h := handlers.New(engine.New(nil), &config.Config{}, slog.Default())
	router := gin.New()
	router.GET("/stats", h.Stats)

	w := performRequest(router, http.MethodGet, "/stats")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.UptimeSeconds, 0.0)
}

func TestConnections_EmptyByDefault(t *testing.T) {
	h := handlers.New(engine.New(nil), &config.Config{}, slog.Default())
	router := gin.New()
	router.GET("/connections", h.Connections)

	w := performRequest(router, http.MethodGet, "/connections")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ConnectionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Connections)
}

func TestConnections_ListsListener(t *testing.T) {
	eng := engine.New(nil)
	_, err := eng.Listen("tcp://127.0.0.1:18299", func(c *engine.Conn, ev engine.Event, d *wire.Data) {}, nil)
	if err != nil {
		t.Skipf("listen not available in this environment: %v", err)
	}
	t.Cleanup(func() {
		for _, c := range eng.Conns() {
			_ = eng.Unlisten(c)
		}
	})

	h := handlers.New(eng, &config.Config{}, slog.Default())
	router := gin.New()
	router.GET("/connections", h.Connections)

	w := performRequest(router, http.MethodGet, "/connections")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ConnectionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "listener", resp.Connections[0].Role)
	assert.Equal(t, "tcp", resp.Connections[0].Transport)
}

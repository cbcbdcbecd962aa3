// Package admin_test provides behavior tests for the admin package.
package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/msgbox/internal/admin"
	"github.com/jroosing/msgbox/internal/admin/models"
	"github.com/jroosing/msgbox/internal/config"
	"github.com/jroosing/msgbox/internal/engine"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Admin.Enabled = true
	cfg.Admin.Host = "127.0.0.1"
	cfg.Admin.Port = 8080
	return cfg
}

func performRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNew_CreatesServer(t *testing.T) {
	server := admin.New(engine.New(nil), testConfig(), nil)
	assert.NotNil(t, server)
}

func TestServer_Addr(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.Host = "0.0.0.0"
	cfg.Admin.Port = 9090
	server := admin.New(engine.New(nil), cfg, nil)

	assert.Equal(t, "0.0.0.0:9090", server.Addr())
}

func TestRoutes_HealthEndpoint(t *testing.T) {
	server := admin.New(engine.New(nil), testConfig(), nil)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/health")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRoutes_StatsEndpoint(t *testing.T) {
	server := admin.New(engine.New(nil), testConfig(), nil)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/stats")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_ConnectionsEndpoint(t *testing.T) {
	server := admin.New(engine.New(nil), testConfig(), nil)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/connections")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ConnectionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestRoutes_WithAPIKey_MissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.APIKey = "secret-key"
	server := admin.New(engine.New(nil), cfg, nil)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/health")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_WithAPIKey_ValidKey(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.APIKey = "secret-key"
	server := admin.New(engine.New(nil), cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-API-Key", "secret-key")
	w := httptest.NewRecorder()
	server.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_NoAPIKey_NoAuth(t *testing.T) {
	server := admin.New(engine.New(nil), testConfig(), nil)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/health")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_NotFound(t *testing.T) {
	server := admin.New(engine.New(nil), testConfig(), nil)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/nonexistent")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Shutdown(t *testing.T) {
	server := admin.New(engine.New(nil), testConfig(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, server.Shutdown(ctx))
}

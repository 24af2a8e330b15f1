package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prognoshealth/integrationproxy/catalog"
	"github.com/prognoshealth/integrationproxy/config"
	"github.com/prognoshealth/integrationproxy/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg, err := config.FromLookup(func(string) string { return "" })
	require.NoError(t, err)

	router, err := catalog.NewRouter(engine.New(cfg))
	require.NoError(t, err)

	return newServer(router)
}

func TestDevServer_statusCallback(t *testing.T) {
	server := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/messaging/status-callback", strings.NewReader("MessageSid=SM1&MessageStatus=delivered"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success": true}`, w.Body.String())
}

func TestDevServer_validation(t *testing.T) {
	server := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/crm/accounts/create", strings.NewReader(`{"data": {}, "token": "t", "instanceUrl": "https://x"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "Account Name is required"}`, w.Body.String())
}

func TestDevServer_preflight(t *testing.T) {
	server := testServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/crm/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestToEvent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/files/proxy?url=https%3A%2F%2Ffiles.example.com%2Fa.pdf", nil)
	req.Header.Set("Authorization", "Bearer abc")

	event, err := toEvent(req)
	require.NoError(t, err)

	assert.Equal(t, "/files/proxy", event.RawPath)
	assert.Equal(t, "GET", event.RequestContext.HTTP.Method)
	assert.Equal(t, "Bearer abc", event.Headers["authorization"])
	assert.Equal(t, "https://files.example.com/a.pdf", event.QueryStringParameters["url"])
	assert.NotEmpty(t, event.RequestContext.RequestID)
}

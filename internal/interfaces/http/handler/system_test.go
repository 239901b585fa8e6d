package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_InfoAndPing(t *testing.T) {
	h := NewSystemHandler("ERP Pricing API", "1.2.3", nil)
	h.now = func() time.Time { return h.startTime.Add(90 * time.Minute) }

	r := newTestEngine(false)
	r.GET("/info", h.GetSystemInfo)
	r.GET("/ping", h.Ping)

	w := doJSON(r, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info SystemInfoResponse
	decodeData(t, w, &info)
	assert.Equal(t, "ERP Pricing API", info.Name)
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "1h30m0s", info.Uptime)

	w = doJSON(r, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pong PingResponse
	decodeData(t, w, &pong)
	assert.Equal(t, "pong", pong.Message)
}

func TestSystemHandler_Health(t *testing.T) {
	healthy := HealthCheckerFunc(func(context.Context) error { return nil })
	broken := HealthCheckerFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	t.Run("all dependencies up", func(t *testing.T) {
		h := NewSystemHandler("svc", "v", map[string]HealthChecker{"database": healthy, "redis": healthy})
		r := newTestEngine(false)
		r.GET("/health", h.Health)

		w := doJSON(r, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
		assert.Contains(t, w.Body.String(), `"redis":"ok"`)
	})

	t.Run("a dependency is down", func(t *testing.T) {
		h := NewSystemHandler("svc", "v", map[string]HealthChecker{"database": broken, "redis": healthy})
		r := newTestEngine(false)
		r.GET("/health", h.Health)

		w := doJSON(r, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"error"`)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

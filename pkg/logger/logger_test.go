package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/config"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/middleware/requestid"
)

func TestNewHonoursLevel(t *testing.T) {
	l, err := New(&config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "warn", Format: "console"}})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func newAccessLogRouter(core zapcore.Core) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/schedules/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/schedules", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	return r
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newAccessLogRouter(core)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/schedules/p-1", nil)
	req.Header.Set(requestid.Header, "req-1")
	r.ServeHTTP(w, req)

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/schedules/p-1", fields["path"])
	assert.Equal(t, "/schedules/:id", fields["route"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestGinMiddlewareLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newAccessLogRouter(core)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/health"},
		{http.MethodPost, "/schedules"},
		{http.MethodGet, "/nowhere"},
	} {
		req, _ := http.NewRequest(tc.method, tc.path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	require.Len(t, entries, 2, "probe requests stay below info")
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "/schedules", entries[0].ContextMap()["route"])
	assert.Equal(t, "unmatched", entries[1].ContextMap()["route"])
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithContext(requestid.WithValue(context.Background(), "req-9"), base).Info("tagged")
	WithContext(context.Background(), base).Info("plain")
	WithContext(context.Background(), nil).Info("dropped")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

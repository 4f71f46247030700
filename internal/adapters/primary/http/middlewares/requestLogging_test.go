package middlewares

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLoggedRouter() (*gin.Engine, *bytes.Buffer) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	return r, &buf
}

func TestRequestLoggerSkipsHealthEndpoints(t *testing.T) {
	r, buf := newLoggedRouter()
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ready", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Empty(t, buf.String())
}

func TestRequestLoggerRecordsRouteTemplate(t *testing.T) {
	r, buf := newLoggedRouter()
	r.GET("/admin/users/:tg_id/activity", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/users/42/activity", nil))

	out := buf.String()
	assert.Contains(t, out, `"route":"/admin/users/:tg_id/activity"`)
	assert.Contains(t, out, `"path":"/admin/users/42/activity"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"level":"INFO"`)
}

func TestRequestLoggerLevelFollowsStatus(t *testing.T) {
	r, buf := newLoggedRouter()
	r.GET("/admin/stats", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	assert.Contains(t, buf.String(), `"level":"ERROR"`)

	assert.Equal(t, slog.LevelWarn, levelForStatus(http.StatusNotFound))
	assert.Equal(t, slog.LevelInfo, levelForStatus(http.StatusNoContent))
}

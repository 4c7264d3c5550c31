package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func serve(r *Router, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func named(name string) HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(name)) }
}

func TestExactAndWildcardRoutes(t *testing.T) {
	r := New(nil)
	r.GET("/api/v1/runs", named("list"))
	r.POST("/api/v1/runs", named("create"))
	r.GET("/api/v1/runs/*/errors", named("errors"))
	r.POST("/api/v1/runs/*/retry", named("retry"))
	r.GET("/api/v1/runs/*", named("get"))

	assert.Equal(t, "list", serve(r, http.MethodGet, "/api/v1/runs").Body.String())
	assert.Equal(t, "create", serve(r, http.MethodPost, "/api/v1/runs").Body.String())

	// more specific wildcard routes win regardless of map order
	for i := 0; i < 20; i++ {
		assert.Equal(t, "errors", serve(r, http.MethodGet, "/api/v1/runs/abc/errors").Body.String())
	}
	assert.Equal(t, "retry", serve(r, http.MethodPost, "/api/v1/runs/abc/retry").Body.String())
	assert.Equal(t, "get", serve(r, http.MethodGet, "/api/v1/runs/abc").Body.String())
}

func TestMethodNotAllowedAndNotFound(t *testing.T) {
	r := New(nil)
	r.GET("/api/v1/pipeline", named("pipeline"))
	r.GET("/api/v1/runs/*", named("get"))

	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodDelete, "/api/v1/pipeline").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodPut, "/api/v1/runs/abc").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/nope").Code)
}

func TestMatchWildcardRoute(t *testing.T) {
	assert.True(t, matchWildcardRoute("/swagger/index.html", "/swagger/*"))
	assert.True(t, matchWildcardRoute("/swagger/a/b.js", "/swagger/*"))
	assert.True(t, matchWildcardRoute("/api/v1/runs/x/errors", "/api/v1/runs/*/errors"))
	assert.False(t, matchWildcardRoute("/api/v1/runs/x/logs", "/api/v1/runs/*/errors"))
	assert.False(t, matchWildcardRoute("/api/v2/runs/x", "/api/v1/runs/*"))
}

func TestPathParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/42/errors", nil)
	assert.Equal(t, "42", PathParam(req, "/api/v1/runs/*/errors", 0))
	assert.Equal(t, "", PathParam(req, "/api/v1/runs/*/errors", 1))
}

func TestStatusLevel(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, statusLevel(200))
	assert.Equal(t, zapcore.WarnLevel, statusLevel(404))
	assert.Equal(t, zapcore.ErrorLevel, statusLevel(503))
}

package gin_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ginpkg "github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *ginpkg.Engine {
	t.Helper()

	ginpkg.SetMode(ginpkg.TestMode)
	log := logger.NewNop()

	router := ginpkg.New()
	router.Use(infragin.RecoveryMiddleware(log), infragin.RequestIDMiddleware(log))
	router.GET("/test", func(c *ginpkg.Context) {
		outside := logger.FromZap(zap.NewNop())
		if logger.FromContext(c.Request.Context(), outside) == outside {
			t.Error("no request logger in context")
		}
		c.String(http.StatusOK, "ok")
	})
	router.GET("/panic", func(*ginpkg.Context) {
		panic("component exploded")
	})
	return router
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	const wantLen = 32
	if got := w.Header().Get(infragin.RequestIDHeader); len(got) != wantLen {
		t.Errorf("request id %q has length %d, want %d", got, len(got), wantLen)
	}
}

func TestRequestIDMiddleware_PreservesInboundID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, "edge-abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get(infragin.RequestIDHeader); got != "edge-abc123" {
		t.Errorf("request id = %q, want edge-abc123", got)
	}
}

func TestRequestIDMiddleware_ReplacesOversizedID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	oversized := strings.Repeat("x", 200)
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, oversized)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get(infragin.RequestIDHeader); got == oversized || got == "" {
		t.Errorf("request id = %q, want a freshly generated id", got)
	}
}

func TestRecoveryMiddleware_Returns500(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", http.NoBody))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	t.Parallel()

	ginpkg.SetMode(ginpkg.TestMode)
	router := ginpkg.New()
	router.Use(infragin.CORSMiddleware(infragin.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"https://tenant.example"},
	}))
	router.GET("/pages/home", func(c *ginpkg.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/pages/home", http.NoBody)
	req.Header.Set("Origin", "https://tenant.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://tenant.example" {
		t.Errorf("allow origin = %q, want https://tenant.example", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/pages/home", http.NoBody)
	req.Header.Set("Origin", "https://other.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow origin = %q, want none for disallowed origin", got)
	}
}

func TestHealth_UnhealthyCheckReturns503(t *testing.T) {
	server := infragin.NewServerBuilder("site-renderer", 8080).
		WithLogger(logger.NewNop()).
		WithDatabaseHealthCheck(func() error { return errors.New("connection refused") }).
		WithRedisHealthCheck(func() error { return nil }).
		Build()

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var resp infragin.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Checks["database"].Status != infragin.HealthStatusUnhealthy {
		t.Errorf("database = %s, want unhealthy", resp.Checks["database"].Status)
	}
	if resp.Checks["redis"].Status != infragin.HealthStatusHealthy {
		t.Errorf("redis = %s, want healthy", resp.Checks["redis"].Status)
	}
}

func TestHealth_DegradedRedisStays200(t *testing.T) {
	server := infragin.NewServerBuilder("site-renderer", 8080).
		WithLogger(logger.NewNop()).
		WithRedisHealthCheck(func() error { return errors.New("timeout") }).
		Build()

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"degraded"`) {
		t.Errorf("body = %s, want degraded status", w.Body.String())
	}
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lumi-launcher/backend/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"tauri://localhost", "http://localhost:1420"}

	if !IsOriginAllowed("tauri://localhost", allowed) {
		t.Fatalf("expected origin to be allowed")
	}
	if IsOriginAllowed("https://evil.example", allowed) {
		t.Fatalf("expected foreign origin to be rejected")
	}
	if !IsOriginAllowed("", allowed) {
		t.Fatalf("expected empty origin to be allowed")
	}
	if !IsOriginAllowed("https://anything.local", []string{"*"}) {
		t.Fatalf("expected wildcard allowlist to permit origin")
	}
}

func TestContainsWildcard(t *testing.T) {
	if !containsWildcard([]string{" * "}) {
		t.Fatalf("expected wildcard to be detected")
	}
	if containsWildcard([]string{"https://example.com"}) {
		t.Fatalf("did not expect wildcard to be detected")
	}
}

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS(config.Default().Security.CORS))
	router.POST("/api/v1/scan", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/scan", nil)
	req.Header.Set("Origin", "tauri://localhost")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "tauri://localhost" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestLoopbackOnly(t *testing.T) {
	router := gin.New()
	router.Use(LoopbackOnly())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		remote string
		want   int
	}{
		{"127.0.0.1:5000", http.StatusOK},
		{"[::1]:5000", http.StatusOK},
		{"192.168.1.20:5000", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = tt.remote
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.remote, tt.want, rec.Code)
		}
	}
}

func TestOriginGuard(t *testing.T) {
	router := gin.New()
	router.Use(OriginGuard(config.Default().Security.CORS.AllowedOrigins))
	router.POST("/api/v1/terminate", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name   string
		origin string
		want   int
	}{
		{name: "no origin", origin: "", want: http.StatusNoContent},
		{name: "shell origin", origin: "tauri://localhost", want: http.StatusNoContent},
		{name: "foreign origin", origin: "https://evil.example", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/terminate", strings.NewReader(`{"pid":1}`))
			req.Header.Set("Content-Type", "text/plain")
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequireJSON(t *testing.T) {
	router := gin.New()
	router.Use(RequireJSON())
	router.POST("/api/v1/launch", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/v1/installations/refresh", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.DELETE("/api/v1/installations/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		contentType string
		want        int
	}{
		{name: "json body", method: http.MethodPost, path: "/api/v1/launch", body: `{}`, contentType: "application/json; charset=utf-8", want: http.StatusOK},
		{name: "text body", method: http.MethodPost, path: "/api/v1/launch", body: `{}`, contentType: "text/plain", want: http.StatusUnsupportedMediaType},
		{name: "form body", method: http.MethodPost, path: "/api/v1/launch", body: `a=b`, contentType: "application/x-www-form-urlencoded", want: http.StatusUnsupportedMediaType},
		{name: "empty post", method: http.MethodPost, path: "/api/v1/installations/refresh", want: http.StatusOK},
		{name: "delete", method: http.MethodDelete, path: "/api/v1/installations/x", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			} else {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

type staticValidator string

func (v staticValidator) ValidateToken(token string) error {
	if token != string(v) {
		return errors.New("bad token")
	}
	return nil
}

func TestAuth(t *testing.T) {
	router := gin.New()
	router.Use(Auth(staticValidator("secret")))
	router.GET("/api/v1/runtime", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "bearer", header: "Bearer secret", want: http.StatusOK},
		{name: "query token", query: "?token=secret", want: http.StatusOK},
		{name: "missing", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/runtime"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

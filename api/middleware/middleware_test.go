package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/vitrina/config"
)

func newTestRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestAuth_MissingKey(t *testing.T) {
	r := newTestRouter(Auth(config.AuthConfig{Enabled: true, APIKeys: []string{"valid-key"}}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_HeaderStyles(t *testing.T) {
	r := newTestRouter(Auth(config.AuthConfig{Enabled: true, APIKeys: []string{"valid-key"}}))

	for _, set := range []func(*http.Request){
		func(req *http.Request) { req.Header.Set("X-API-Key", "valid-key") },
		func(req *http.Request) { req.Header.Set("Authorization", "Bearer valid-key") },
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		set(req)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	}
}

func TestAuth_InvalidKey(t *testing.T) {
	r := newTestRouter(Auth(config.AuthConfig{Enabled: true, APIKeys: []string{"valid-key"}}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-API-Key", "wrong")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_OpenAccessWithoutKeys(t *testing.T) {
	r := newTestRouter(Auth(config.AuthConfig{Enabled: true}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAuth_DisabledPassesThrough(t *testing.T) {
	r := newTestRouter(Auth(config.AuthConfig{Enabled: false, APIKeys: []string{"valid-key"}}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRateLimit_IdentityIsAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(config.AuthConfig{Enabled: true, APIKeys: []string{"key-a", "key-b"}}))
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func(key string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-API-Key", key)
		r.ServeHTTP(w, req)
		return w.Code
	}

	// Same IP, different keys: each key gets its own bucket.
	if got := do("key-a"); got != http.StatusOK {
		t.Fatalf("first key-a request = %d, want 200", got)
	}
	if got := do("key-b"); got != http.StatusOK {
		t.Fatalf("first key-b request = %d, want 200", got)
	}
	if got := do("key-a"); got != http.StatusTooManyRequests {
		t.Fatalf("second key-a request = %d, want 429", got)
	}
}

func TestRateLimit_Enforced(t *testing.T) {
	r := newTestRouter(RateLimit(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("burst requests should pass, got %v", statuses)
	}
	limited := false
	for _, s := range statuses[2:] {
		if s == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Errorf("expected a 429 after the burst, got %v", statuses)
	}
}

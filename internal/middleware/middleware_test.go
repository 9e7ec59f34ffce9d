package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mark("first"), mark("second"), mark("third"))(okHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "first,second,third" {
		t.Errorf("order = %s", got)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if _, err := uuid.Parse(seen); err != nil {
			t.Errorf("generated id %q is not a uuid", seen)
		}
		if w.Header().Get("X-Request-ID") != seen {
			t.Error("response header should echo the request id")
		}
	})

	t.Run("propagated", func(t *testing.T) {
		id := uuid.NewString()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", id)
		h.ServeHTTP(httptest.NewRecorder(), r)
		if seen != id {
			t.Errorf("request id = %q, want %q", seen, id)
		}
	})

	t.Run("garbage replaced", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "<script>")
		h.ServeHTTP(httptest.NewRecorder(), r)
		if seen == "<script>" {
			t.Error("non-uuid request id should be replaced")
		}
	})
}

func TestAuth(t *testing.T) {
	var token string
	h := Auth("token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = Token(r.Context())
	}))

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    string
	}{
		{"none", func(r *http.Request) {}, ""},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: "c-tok"}) }, "c-tok"},
		{"header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer h-tok") }, "h-tok"},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer h-tok") }, "h-tok"},
		{"basic ignored", func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") }, ""},
		{"cookie wins", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "token", Value: "c-tok"})
			r.Header.Set("Authorization", "Bearer h-tok")
		}, "c-tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token = "unset"
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(r)
			h.ServeHTTP(httptest.NewRecorder(), r)
			if token != tt.want {
				t.Errorf("token = %q, want %q", token, tt.want)
			}
		})
	}
}

func TestRequireToken(t *testing.T) {
	h := Auth("token")(RequireToken(discardLogger(), okHandler()))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("without token status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "tok"})
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("with token status = %d, want 200", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(config.SecurityConfig{EnableRateLimit: true, RateLimitRPS: 1, RateLimitBurst: 2})
	defer limiter.Close()
	h := RateLimit(limiter, discardLogger())(okHandler())

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, other)
	if w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", w.Code)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(config.SecurityConfig{EnableRateLimit: false, RateLimitRPS: 1, RateLimitBurst: 1})
	defer limiter.Close()
	for range 5 {
		if !limiter.Allow("10.0.0.1") {
			t.Fatal("disabled limiter should always allow")
		}
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	limiter := NewRateLimiter(config.SecurityConfig{EnableRateLimit: true, RateLimitRPS: 1, RateLimitBurst: 1})
	defer limiter.Close()
	limiter.Allow("10.0.0.1")

	limiter.sweep(time.Now().Add(2 * limiterIdleTTL))

	limiter.mu.Lock()
	n := len(limiter.visitors)
	limiter.mu.Unlock()
	if n != 0 {
		t.Errorf("visitors after sweep = %d, want 0", n)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestCORS(t *testing.T) {
	h := CORS(config.SecurityConfig{AllowedOrigins: []string{"https://dash.example"}})(okHandler())

	r := httptest.NewRequest(http.MethodOptions, "/api/analytics", nil)
	r.Header.Set("Origin", "https://dash.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Header().Get("Access-Control-Allow-Origin") != "https://dash.example" {
		t.Error("allowed origin should be echoed")
	}
	if m := w.Header().Get("Access-Control-Allow-Methods"); m != "GET, PUT, OPTIONS" {
		t.Errorf("allowed methods = %q", m)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
}

func TestSecurityHeaders_CSP(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := w.Header().Get("Content-Security-Policy")
	for _, want := range []string{
		"script-src 'self' 'unsafe-eval' " + DatastarBundle,
		"connect-src 'self'",
		"frame-ancestors 'none'",
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP %q missing %q", csp, want)
		}
	}
	if strings.Contains(csp, "https://cdn.jsdelivr.net;") {
		t.Error("CSP should allow only the datastar bundle, not the whole CDN")
	}
}

func TestTrustedProxy(t *testing.T) {
	var xff string
	h := TrustedProxy(config.SecurityConfig{TrustedProxies: []string{"127.0.0.1"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xff = r.Header.Get("X-Forwarded-For")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if xff != "" {
		t.Errorf("untrusted proxy header kept: %q", xff)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if xff != "1.2.3.4" {
		t.Errorf("trusted proxy header dropped: %q", xff)
	}
}

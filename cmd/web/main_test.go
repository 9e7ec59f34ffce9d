package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pharmacy-dashboard/internal/backend"
	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/middleware"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/settings"
)

const testToken = "session-token"

func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sales", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `[
			{"date":"2024-01-15T10:00:00Z","product":"Paracetamol","quantity":2,"revenue":"100","cost":60},
			{"date":"2024-02-10T10:00:00Z","product":"Vitamin C","quantity":1,"revenue":50,"cost":20}
		]`)
	})
	mux.HandleFunc("GET /expenses", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"date":"2024-01-20","amount":25,"type":"rent"}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	backendURL := newFakeBackend(t).URL

	cfg := &config.Config{
		Backend:  config.BackendConfig{BaseURL: backendURL, Timeout: 5 * time.Second, TokenCookie: "token"},
		Settings: config.SettingsConfig{Store: "memory", Cookie: "settings_id"},
		Security: config.SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    1000,
			RateLimitBurst:  1000,
			AllowedOrigins:  []string{"http://localhost:8084"},
		},
		Display: config.DisplayConfig{Currency: "NGN"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := settings.New(cfg.Settings)
	if err != nil {
		t.Fatal(err)
	}
	limiter := middleware.NewRateLimiter(cfg.Security)
	t.Cleanup(limiter.Close)

	analytics := services.NewAnalytics(backend.NewClient(cfg.Backend, logger), logger)
	return newHandler(cfg, analytics, store, limiter, logger)
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		path           string
		withToken      bool
		expectedStatus int
		contentType    string
	}{
		{"/", false, http.StatusOK, "text/html"},
		{"/health", false, http.StatusOK, "application/json"},
		{"/admin/stats", false, http.StatusOK, "application/json"},
		{"/api/settings", false, http.StatusOK, "application/json"},
		{"/api/analytics", false, http.StatusUnauthorized, "application/json"},
		{"/api/analytics", true, http.StatusOK, "application/json"},
		{"/api/growth?timeRange=90d", true, http.StatusOK, "application/json"},
		{"/sse/analytics", false, http.StatusUnauthorized, "application/json"},
		{"/sse/analytics", true, http.StatusOK, "text/event-stream"},
		{"/nonexistent", false, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.withToken {
				req.AddCookie(&http.Cookie{Name: "token", Value: testToken})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.contentType != "" && !strings.Contains(w.Header().Get("Content-Type"), tt.contentType) {
				t.Errorf("expected content-type containing %q, got %q", tt.contentType, w.Header().Get("Content-Type"))
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("every response should carry a request id")
			}
		})
	}
}

func TestServer_AnalyticsOverBackend(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics?granularity=monthly&timeRange=1y", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Points []struct {
				BucketKey     string  `json:"bucket_key"`
				TotalSales    float64 `json:"total_sales"`
				TotalExpenses float64 `json:"total_expenses"`
				NetProfit     float64 `json:"net_profit"`
			} `json:"points"`
			ExpenseCount int `json:"expense_count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if !response.Success || len(response.Data.Points) != 2 {
		t.Fatalf("response = %+v", response)
	}

	jan := response.Data.Points[0]
	if jan.BucketKey != "2024-01" || jan.TotalSales != 100 || jan.TotalExpenses != 25 || jan.NetProfit != 15 {
		t.Errorf("january = %+v", jan)
	}
	if feb := response.Data.Points[1]; feb.BucketKey != "2024-02" || feb.NetProfit != 30 {
		t.Errorf("february = %+v", feb)
	}
	if response.Data.ExpenseCount != 1 {
		t.Errorf("expense_count = %d", response.Data.ExpenseCount)
	}
}

func TestServer_RejectedToken(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "expired"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 when the backend rejects the token", w.Code)
	}
}

func TestServer_SettingsRoundTrip(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"branch_type":"wholesale"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected a settings cookie, got %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `data-branch-type="wholesale"`) {
		t.Error("dashboard should render the saved branch type")
	}
}

func TestServer_SecurityHeaders(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("missing %s header", h)
		}
	}
}

func TestServer_DashboardScriptAllowedByCSP(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(w.Body.String(), `src="`+middleware.DatastarBundle+`"`) {
		t.Fatal("dashboard should load the datastar bundle")
	}
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), middleware.DatastarBundle) {
		t.Error("CSP must allow the script the dashboard loads")
	}
}

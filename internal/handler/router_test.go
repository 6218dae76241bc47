package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/himrock922/qiita-stocker-backend/internal/auth"
	"github.com/himrock922/qiita-stocker-backend/internal/metrics"
	"github.com/himrock922/qiita-stocker-backend/internal/middleware"
	"github.com/himrock922/qiita-stocker-backend/internal/model"
	"github.com/himrock922/qiita-stocker-backend/internal/stock"
)

type mockRouterAuthenticator struct{}

func (m *mockRouterAuthenticator) Authenticate(ctx context.Context, sessionID string) (*model.Account, error) {
	if sessionID == "valid-session" {
		return &model.Account{ID: "account-1", UserName: "test-user"}, nil
	}
	return nil, model.NewUnauthorizedError()
}

type okPinger struct{}

func (okPinger) PingContext(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	reg := prometheus.NewRegistry()
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		Authenticator:     &mockRouterAuthenticator{},
		CORSAllowedOrigin: "https://app.example.com",
		RateLimiter:       rl,
		Logger:            slog.New(slog.DiscardHandler),
		Collector:         metrics.NewCollector(reg),
		AuthService: &mockAuthService{
			createLoginSessionFn: func(ctx context.Context, req auth.CreateLoginSessionRequest) (string, error) {
				return "session-1", nil
			},
		},
		CategoryService: &mockCategoryService{},
		StockService: &mockStockService{
			indexFn: func(ctx context.Context, account *model.Account, pageParam, perPageParam string) (*stock.PageResult, error) {
				return &stock.PageResult{TotalCount: 0}, nil
			},
		},
		DB:       okPinger{},
		Gatherer: reg,
	})
}

// TestRouter_PublicRoutes は認証なしで到達できるルートを検証する。
func TestRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		target string
		body   string
		want   int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodPost, "/login-sessions", `{"permanentId":"123","accessToken":"abc","qiitaAccountId":"u"}`, http.StatusCreated},
	}

	for _, tt := range tests {
		var req *http.Request
		if tt.body != "" {
			req = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
		} else {
			req = httptest.NewRequest(tt.method, tt.target, nil)
		}
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != tt.want {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.target, w.Code, tt.want)
		}
	}
}

// TestRouter_AuthedRoutesRequireSession は認証必須ルートがトークンなしで401になることを検証する。
func TestRouter_AuthedRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t)

	targets := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/stocks"},
		{http.MethodPut, "/stocks"},
		{http.MethodGet, "/stocks/categories/category-1"},
		{http.MethodGet, "/categories"},
		{http.MethodPost, "/categories"},
		{http.MethodPut, "/categories/category-1"},
		{http.MethodPut, "/categories/category-1/stocks"},
		{http.MethodDelete, "/login-sessions"},
		{http.MethodDelete, "/accounts"},
	}

	for _, tt := range targets {
		req := httptest.NewRequest(tt.method, tt.target, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.target, w.Code, http.StatusUnauthorized)
		}
	}
}

// TestRouter_AuthedRequestSucceeds は有効なBearerトークンで認証必須ルートに
// 到達できることを検証する。
func TestRouter_AuthedRequestSucceeds(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	req.Header.Set("Authorization", "Bearer valid-session")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

// TestRouter_RequestIDOnEveryResponse はすべてのレスポンスにX-Request-Idが
// 付与されることを検証する。
func TestRouter_RequestIDOnEveryResponse(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{"/healthz", "/stocks", "/missing-route"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Header().Get("X-Request-Id") == "" {
			t.Errorf("%s: expected X-Request-Id header", target)
		}
	}
}

// TestRouter_SecurityHeaders はセキュリティヘッダーが付与されることを検証する。
func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want https://app.example.com", got)
	}
}

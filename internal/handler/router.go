package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/himrock922/qiita-stocker-backend/internal/metrics"
	"github.com/himrock922/qiita-stocker-backend/internal/middleware"
)

// Pinger はヘルスチェックでのデータベース疎通確認に必要なインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Collector         metrics.MetricsCollector

	// サービス
	AuthService     AuthServiceInterface
	CategoryService CategoryServiceInterface
	StockService    StockServiceInterface

	// 運用系
	DB       Pinger
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → SecurityHeaders → CORS → Recovery → Logging → (認証ルートのみ) Session → RateLimit
//
// ログインセッション作成・アカウント作成・ヘルスチェック・メトリクスは
// 認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))

	loginSessionHandler := NewLoginSessionHandler(deps.AuthService)
	accountHandler := NewAccountHandler(deps.AuthService)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	stockHandler := NewStockHandler(deps.StockService)

	// --- 認証不要のルート ---

	r.Post("/accounts", accountHandler.Create)
	r.Post("/login-sessions", loginSessionHandler.Create)

	r.Get("/healthz", healthzHandler(deps.DB))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// セッション・アカウント管理
		r.Delete("/login-sessions", loginSessionHandler.Delete)
		r.Delete("/accounts", accountHandler.Delete)

		// ストック管理
		r.Route("/stocks", func(r chi.Router) {
			r.Get("/", stockHandler.Index)
			// PUT /stocks - Qiitaとの同期（同期専用レート制限を追加）
			r.With(deps.RateLimiter.SyncMiddleware()).Put("/", stockHandler.Synchronize)
			r.Get("/categories/{id}", stockHandler.ShowCategorized)
		})

		// カテゴリ管理
		r.Route("/categories", func(r chi.Router) {
			r.Post("/", categoryHandler.Create)
			r.Get("/", categoryHandler.List)
			r.Put("/{id}", categoryHandler.Update)
			r.Put("/{id}/stocks", categoryHandler.ReplaceStocks)
		})
	})

	return r
}

// healthzHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
func healthzHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("healthcheck failed",
					slog.String("error", err.Error()),
				)
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

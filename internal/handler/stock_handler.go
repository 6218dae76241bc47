package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/himrock922/qiita-stocker-backend/internal/middleware"
	"github.com/himrock922/qiita-stocker-backend/internal/model"
	"github.com/himrock922/qiita-stocker-backend/internal/stock"
)

// StockServiceInterface はストックハンドラーが必要とするサービスインターフェース。
type StockServiceInterface interface {
	// Index はQiita APIからストック一覧を1ページ分取得する。
	Index(ctx context.Context, account *model.Account, pageParam, perPageParam string) (*stock.PageResult, error)
	// ShowCategorized はカテゴリに紐づくローカル保存済みストックをページ単位で返す。
	ShowCategorized(ctx context.Context, accountID, categoryID, pageParam, perPageParam string) (*stock.PageResult, error)
	// Synchronize はQiita上のストック全件とローカル保存分を同期する。
	Synchronize(ctx context.Context, account *model.Account) (*stock.SyncResult, error)
}

// StockHandler はストック管理のHTTPハンドラー。
type StockHandler struct {
	service StockServiceInterface
}

// NewStockHandler はStockHandlerを生成する。
func NewStockHandler(service StockServiceInterface) *StockHandler {
	return &StockHandler{service: service}
}

// stockListResponse はストック一覧のAPIレスポンス。
type stockListResponse struct {
	Stocks     []stock.StockItem `json:"stocks"`
	TotalCount int               `json:"totalCount"`
}

// writePageResult はストック一覧の結果をLinkヘッダーとTotal-Countヘッダー付きで書き込む。
func writePageResult(w http.ResponseWriter, result *stock.PageResult) {
	if result.LinkHeader != "" {
		w.Header().Set("Link", result.LinkHeader)
	}
	w.Header().Set("Total-Count", strconv.Itoa(result.TotalCount))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stockListResponse{
		Stocks:     result.Stocks,
		TotalCount: result.TotalCount,
	})
}

// Index はストック一覧の取得を処理する。
// GET /stocks?page=&perPage=
func (h *StockHandler) Index(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	query := r.URL.Query()
	result, err := h.service.Index(r.Context(), account, query.Get("page"), query.Get("perPage"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writePageResult(w, result)
}

// ShowCategorized はカテゴリ内のストック一覧の取得を処理する。
// GET /stocks/categories/{id}?page=&perPage=
func (h *StockHandler) ShowCategorized(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	query := r.URL.Query()
	result, err := h.service.ShowCategorized(
		r.Context(), account.ID, chi.URLParam(r, "id"), query.Get("page"), query.Get("perPage"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writePageResult(w, result)
}

// Synchronize はQiitaとのストック同期を処理する。
// PUT /stocks
func (h *StockHandler) Synchronize(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	result, err := h.service.Synchronize(r.Context(), account)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

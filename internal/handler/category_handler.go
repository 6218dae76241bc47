package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/himrock922/qiita-stocker-backend/internal/middleware"
	"github.com/himrock922/qiita-stocker-backend/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	// Create はカテゴリを作成する。
	Create(ctx context.Context, accountID, name string) (*model.Category, error)
	// List はアカウントの全カテゴリを返す。
	List(ctx context.Context, accountID string) ([]*model.Category, error)
	// UpdateName はカテゴリ名を変更する。
	UpdateName(ctx context.Context, accountID, categoryID, name string) (*model.Category, error)
	// ReplaceStocks はカテゴリに紐づく記事ID集合を置き換える。
	ReplaceStocks(ctx context.Context, accountID, categoryID string, articleIDs []string) error
}

// CategoryHandler はカテゴリ管理のHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// categoryRequest はカテゴリ作成・更新リクエストのボディ。
type categoryRequest struct {
	Name string `json:"name"`
}

// replaceStocksRequest はカテゴリへのストック紐付けリクエストのボディ。
// 常に完全な目標集合を渡す。
type replaceStocksRequest struct {
	ArticleIDs []string `json:"articleIds"`
}

// categoryResponse はカテゴリ1件のAPIレスポンス。
type categoryResponse struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
}

// toCategoryResponse はドメインのCategoryをレスポンス型に変換する。
func toCategoryResponse(category *model.Category) categoryResponse {
	return categoryResponse{
		CategoryID: category.ID,
		Name:       category.Name,
	}
}

// Create はカテゴリの作成を処理する。
// POST /categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	category, err := h.service.Create(r.Context(), account.ID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCategoryResponse(category))
}

// List はカテゴリ一覧の取得を処理する。
// GET /categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	categories, err := h.service.List(r.Context(), account.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, toCategoryResponse(category))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Update はカテゴリ名の変更を処理する。
// PUT /categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	category, err := h.service.UpdateName(r.Context(), account.ID, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCategoryResponse(category))
}

// ReplaceStocks はカテゴリへのストック紐付けの全置換を処理する。
// PUT /categories/{id}/stocks
func (h *CategoryHandler) ReplaceStocks(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req replaceStocksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	if err := h.service.ReplaceStocks(r.Context(), account.ID, chi.URLParam(r, "id"), req.ArticleIDs); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

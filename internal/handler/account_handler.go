package handler

import (
	"encoding/json"
	"net/http"

	"github.com/himrock922/qiita-stocker-backend/internal/middleware"
	"github.com/himrock922/qiita-stocker-backend/internal/model"
)

// AccountHandler はアカウント管理のHTTPハンドラー。
type AccountHandler struct {
	service AuthServiceInterface
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AuthServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// createAccountResponse はアカウント作成のレスポンス。
// 初回ログインセッションのIDを同時に返す。
type createAccountResponse struct {
	AccountID string `json:"accountId"`
	SessionID string `json:"sessionId"`
}

// Create はアカウントの新規作成を処理する。
// POST /accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLoginSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	accountID, sessionID, err := h.service.CreateAccount(r.Context(), req.toServiceRequest())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createAccountResponse{
		AccountID: accountID,
		SessionID: sessionID,
	})
}

// Delete はアカウントの退会を処理する。
// 関連するセッション・カテゴリ・ストックはすべてカスケード削除される。
// DELETE /accounts
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Withdraw(r.Context(), account.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

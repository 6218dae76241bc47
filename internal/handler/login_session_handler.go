package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/himrock922/qiita-stocker-backend/internal/auth"
	"github.com/himrock922/qiita-stocker-backend/internal/middleware"
	"github.com/himrock922/qiita-stocker-backend/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// CreateLoginSession は既存アカウントに新しいログインセッションを発行する。
	CreateLoginSession(ctx context.Context, req auth.CreateLoginSessionRequest) (string, error)
	// CreateAccount はアカウントと初回ログインセッションを同時に作成する。
	CreateAccount(ctx context.Context, req auth.CreateLoginSessionRequest) (accountID, sessionID string, err error)
	// DeleteLoginSession は指定セッションを破棄する。
	DeleteLoginSession(ctx context.Context, sessionID string) error
	// Withdraw はアカウントと関連データをすべて削除する。
	Withdraw(ctx context.Context, accountID string) error
}

// LoginSessionHandler はログインセッション管理のHTTPハンドラー。
type LoginSessionHandler struct {
	service AuthServiceInterface
}

// NewLoginSessionHandler はLoginSessionHandlerを生成する。
func NewLoginSessionHandler(service AuthServiceInterface) *LoginSessionHandler {
	return &LoginSessionHandler{service: service}
}

// createLoginSessionRequest はログインセッション作成リクエストのボディ。
// permanentIdはクライアントによって数値でも文字列でも送られるため
// いったんanyで受けてから文字列に正規化する。
type createLoginSessionRequest struct {
	PermanentID    any    `json:"permanentId"`
	AccessToken    string `json:"accessToken"`
	QiitaAccountID string `json:"qiitaAccountId"`
}

// toServiceRequest はリクエストボディをサービス層のリクエストに変換する。
func (r createLoginSessionRequest) toServiceRequest() auth.CreateLoginSessionRequest {
	return auth.CreateLoginSessionRequest{
		PermanentID:    normalizePermanentID(r.PermanentID),
		AccessToken:    r.AccessToken,
		QiitaAccountID: r.QiitaAccountID,
	}
}

// normalizePermanentID はJSONの数値・文字列を文字列表現に揃える。
// ここでは形式を揃えるだけで、範囲や整数かどうかの検証はサービス層が行う。
func normalizePermanentID(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case json.Number:
		return value.String()
	default:
		return ""
	}
}

// createLoginSessionResponse はログインセッション作成のレスポンス。
type createLoginSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// Create はログインセッションの作成を処理する。
// POST /login-sessions
func (h *LoginSessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLoginSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	sessionID, err := h.service.CreateLoginSession(r.Context(), req.toServiceRequest())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createLoginSessionResponse{SessionID: sessionID})
}

// Delete は現在のログインセッションの破棄（ログアウト）を処理する。
// DELETE /login-sessions
func (h *LoginSessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.BearerToken(r)
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.DeleteLoginSession(r.Context(), sessionID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

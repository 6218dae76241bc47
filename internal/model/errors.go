// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string              // エラーコード
	Message  string              // エラーメッセージ
	Category string              // カテゴリ: auth, validation, category, stock, system
	Action   string              // ユーザー向け対処方法
	Fields   map[string][]string // フィールド単位のバリデーションエラー（VALIDATION_ERRORのみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	ErrCodeAccountExists      = "ACCOUNT_ALREADY_EXISTS"
	ErrCodeCategoryNotFound   = "CATEGORY_NOT_FOUND"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// NewValidationError はフィールド単位のメッセージを持つバリデーションエラーを生成する。
func NewValidationError(fields map[string][]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "リクエストの内容が不正です。",
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
		Fields:   fields,
	}
}

// NewUnauthorizedError はログインセッションが存在しない場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "ログインセッションが不正です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewSessionExpiredError はログインセッションの有効期限切れエラーを生成する。
// セッションが存在しない場合とはメッセージを区別する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "ログインセッションの有効期限が切れています。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewAccountNotFoundError はアカウント未登録エラーを生成する。
func NewAccountNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  "アカウントが登録されていません。",
		Category: "auth",
		Action:   "アカウント登録を行ってから再度お試しください。",
	}
}

// NewAccountAlreadyExistsError はアカウント重複登録エラーを生成する。
func NewAccountAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountExists,
		Message:  "アカウントは既に登録されています。",
		Category: "auth",
		Action:   "ログインセッションの作成を行ってください。",
	}
}

// NewCategoryNotFoundError はカテゴリ未検出エラーを生成する。
// 他アカウントのカテゴリを指定した場合も存在しない場合と区別せずこのエラーを返す。
func NewCategoryNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNotFound,
		Message:  "カテゴリが見つかりませんでした。",
		Category: "category",
		Action:   "カテゴリIDを確認してください。",
	}
}

// NewServiceUnavailableError はQiita API連携失敗時のエラーを生成する。
// 上流のエラー詳細はログのみに記録し、レスポンスには含めない。
func NewServiceUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeServiceUnavailable,
		Message:  "Qiita APIとの通信に失敗しました。",
		Category: "stock",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// Package model はドメインモデルを定義する。
package model

import "time"

// Account はサービス利用アカウントを表す。
// Qiitaアカウントとの紐付け情報（パーマネントID、アクセストークン、ユーザー名）を保持する。
type Account struct {
	ID          string
	PermanentID uint64
	UserName    string
	AccessToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QiitaAccount はOAuthトークン交換で得られるQiitaアカウント情報を表す値オブジェクト。
// 構築後は変更されない。永続化には関与しない。
type QiitaAccount struct {
	PermanentID uint64
	AccessToken string
	UserName    string
}

// LoginSession はログイン成功時に発行される時限付きベアラー認証情報を表す。
// 発行後に更新されることはなく、ログアウトまたは期限切れで削除される。
type LoginSession struct {
	ID        string
	AccountID string
	ExpiredOn time.Time
	CreatedAt time.Time
}

// IsExpired は指定時刻においてセッションが期限切れかどうかを返す。
func (s *LoginSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiredOn)
}

// Package model はドメインモデルを定義する。
package model

import "time"

// ArticleTimeFormat はレスポンスに含める記事作成日時のフォーマット。
// マイクロ秒まで含む固定書式を使用する。
const ArticleTimeFormat = "2006-01-02 15:04:05.000000"

// Stock はローカルに保存されたストック（ブックマーク済み記事）を表す。
// Qiita APIから取得したリストとの同期対象となる。
type Stock struct {
	ID               string
	AccountID        string
	ArticleID        string
	Title            string
	UserID           string
	ProfileImageURL  string
	ArticleCreatedAt time.Time
	Tags             []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StockValue はQiita APIから取得した未保存のストック1件を表す。
// 同期処理ではこちらがソース・オブ・トゥルースとなる。
type StockValue struct {
	ArticleID        string
	Title            string
	UserID           string
	ProfileImageURL  string
	ArticleCreatedAt time.Time
	Tags             []string
}

// BodyEquals はストック本体のフィールド（タグを除く）が
// リモートの値と一致するかどうかを返す。
func (s *Stock) BodyEquals(v StockValue) bool {
	return s.Title == v.Title &&
		s.UserID == v.UserID &&
		s.ProfileImageURL == v.ProfileImageURL &&
		s.ArticleCreatedAt.Equal(v.ArticleCreatedAt)
}

// Package model はドメインモデルを定義する。
package model

import "time"

// Category はアカウントが定義するストックの分類を表す。
// ストックとは categories_stocks テーブルを介した多対多の関係を持つ。
type Category struct {
	ID        string
	AccountID string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryStockRelation はカテゴリとストックのリレーション1行を表す。
// ストックは記事ID（Qiita側のID）で参照する。
type CategoryStockRelation struct {
	ID         string
	CategoryID string
	ArticleID  string
}

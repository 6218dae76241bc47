// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/himrock922/qiita-stocker-backend/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByPermanentID はQiitaのパーマネントIDでアカウントを検索する。
	// 見つからない場合はnilを返す。
	FindByPermanentID(ctx context.Context, permanentID uint64) (*model.Account, error)

	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// CreateWithSession はアカウントとログインセッションを同一トランザクションで作成する。
	CreateWithSession(ctx context.Context, account *model.Account, session *model.LoginSession) error

	// UpdateCredentialsWithSession はアクセストークンとユーザー名を更新し、
	// 新しいログインセッションを同一トランザクションで作成する。
	UpdateCredentialsWithSession(ctx context.Context, account *model.Account, session *model.LoginSession) error

	// DeleteByID は指定IDのアカウントを削除する。
	// 関連するlogin_sessions、categories、stocksはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// LoginSessionRepository はログインセッションの永続化インターフェース。
type LoginSessionRepository interface {
	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	// 期限切れの判定は呼び出し元が行う（期限切れと未存在は別のエラーになるため）。
	FindByID(ctx context.Context, id string) (*model.LoginSession, error)

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// Create はカテゴリを作成する。
	Create(ctx context.Context, category *model.Category) error

	// ListByAccountID はアカウントの全カテゴリを作成順で返す。
	ListByAccountID(ctx context.Context, accountID string) ([]*model.Category, error)

	// FindByIDAndAccountID はカテゴリIDとアカウントIDでカテゴリを検索する。
	// 他アカウントのカテゴリは検索にヒットせず、nilを返す。
	FindByIDAndAccountID(ctx context.Context, id, accountID string) (*model.Category, error)

	// UpdateName はカテゴリ名を更新する。
	UpdateName(ctx context.Context, category *model.Category) error

	// ListRelationsByCategoryID はカテゴリに紐づくストックリレーション一覧を返す。
	ListRelationsByCategoryID(ctx context.Context, categoryID string) ([]model.CategoryStockRelation, error)

	// ReplaceRelations はリレーションの追加と削除を同一トランザクションで適用する。
	ReplaceRelations(ctx context.Context, inserts []model.CategoryStockRelation, deleteIDs []string) error
}

// StockRepository はストックデータの永続化インターフェース。
type StockRepository interface {
	// ListByAccountID はアカウントの全ストックをタグ付きで返す。
	ListByAccountID(ctx context.Context, accountID string) ([]*model.Stock, error)

	// ListByCategoryID はカテゴリに属するストックをタグ付きでページ単位に返す。
	// 記事作成日時の降順で安定した並びを返す。
	ListByCategoryID(ctx context.Context, accountID, categoryID string, limit, offset int) ([]*model.Stock, error)

	// CountByCategoryID はカテゴリに属するストックの総数を返す。
	CountByCategoryID(ctx context.Context, accountID, categoryID string) (int, error)

	// ApplySyncPlan は同期計画の全変更を同一トランザクションで適用する。
	// いずれかの書き込みが失敗した場合は全体をロールバックする。
	ApplySyncPlan(ctx context.Context, accountID string, plan *model.StockSyncPlan) error
}

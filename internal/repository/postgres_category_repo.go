package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/himrock922/qiita-stocker-backend/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// Create はカテゴリを作成する。
func (r *PostgresCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, account_id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		category.ID, category.AccountID, category.Name, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// ListByAccountID はアカウントの全カテゴリを作成順で返す。
// 作成日時が同一の場合はIDで順序を安定させる。
func (r *PostgresCategoryRepo) ListByAccountID(ctx context.Context, accountID string) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, name, created_at, updated_at
		 FROM categories
		 WHERE account_id = $1
		 ORDER BY created_at, id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		category := &model.Category{}
		if err := rows.Scan(&category.ID, &category.AccountID, &category.Name, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// FindByIDAndAccountID はカテゴリIDとアカウントIDでカテゴリを検索する。
// 他アカウントのカテゴリは検索にヒットせず、nilを返す。
func (r *PostgresCategoryRepo) FindByIDAndAccountID(ctx context.Context, id, accountID string) (*model.Category, error) {
	category := &model.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, name, created_at, updated_at
		 FROM categories
		 WHERE id = $1 AND account_id = $2`,
		id, accountID,
	).Scan(&category.ID, &category.AccountID, &category.Name, &category.CreatedAt, &category.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	return category, nil
}

// UpdateName はカテゴリ名を更新する。
func (r *PostgresCategoryRepo) UpdateName(ctx context.Context, category *model.Category) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $1, updated_at = $2 WHERE id = $3`,
		category.Name, category.UpdatedAt, category.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category name: %w", err)
	}
	return nil
}

// ListRelationsByCategoryID はカテゴリに紐づくストックリレーション一覧を返す。
func (r *PostgresCategoryRepo) ListRelationsByCategoryID(ctx context.Context, categoryID string) ([]model.CategoryStockRelation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, article_id
		 FROM categories_stocks
		 WHERE category_id = $1`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list category stock relations: %w", err)
	}
	defer rows.Close()

	var relations []model.CategoryStockRelation
	for rows.Next() {
		var rel model.CategoryStockRelation
		if err := rows.Scan(&rel.ID, &rel.CategoryID, &rel.ArticleID); err != nil {
			return nil, fmt.Errorf("failed to scan category stock relation: %w", err)
		}
		relations = append(relations, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category stock relations: %w", err)
	}

	return relations, nil
}

// ReplaceRelations はリレーションの追加と削除を同一トランザクションで適用する。
func (r *PostgresCategoryRepo) ReplaceRelations(ctx context.Context, inserts []model.CategoryStockRelation, deleteIDs []string) error {
	if len(inserts) == 0 && len(deleteIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rel := range inserts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO categories_stocks (id, category_id, article_id)
			 VALUES ($1, $2, $3)`,
			rel.ID, rel.CategoryID, rel.ArticleID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert category stock relation: %w", err)
		}
	}

	for _, id := range deleteIDs {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM categories_stocks WHERE id = $1`,
			id,
		)
		if err != nil {
			return fmt.Errorf("failed to delete category stock relation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)

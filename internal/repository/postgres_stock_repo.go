package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/himrock922/qiita-stocker-backend/internal/model"
)

// PostgresStockRepo はPostgreSQLを使用したストックリポジトリ。
type PostgresStockRepo struct {
	db *sql.DB
}

// NewPostgresStockRepo はPostgresStockRepoを生成する。
func NewPostgresStockRepo(db *sql.DB) *PostgresStockRepo {
	return &PostgresStockRepo{db: db}
}

// ListByAccountID はアカウントの全ストックをタグ付きで返す。
func (r *PostgresStockRepo) ListByAccountID(ctx context.Context, accountID string) ([]*model.Stock, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, article_id, title, user_id, profile_image_url, article_created_at, created_at, updated_at
		 FROM stocks
		 WHERE account_id = $1
		 ORDER BY article_created_at DESC, id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	defer rows.Close()

	stocks, err := scanStocks(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachTags(ctx, stocks); err != nil {
		return nil, err
	}

	return stocks, nil
}

// ListByCategoryID はカテゴリに属するストックをタグ付きでページ単位に返す。
func (r *PostgresStockRepo) ListByCategoryID(ctx context.Context, accountID, categoryID string, limit, offset int) ([]*model.Stock, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.account_id, s.article_id, s.title, s.user_id, s.profile_image_url, s.article_created_at, s.created_at, s.updated_at
		 FROM stocks s
		 INNER JOIN categories_stocks cs ON cs.article_id = s.article_id
		 WHERE s.account_id = $1 AND cs.category_id = $2
		 ORDER BY s.article_created_at DESC, s.id
		 LIMIT $3 OFFSET $4`,
		accountID, categoryID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks by category: %w", err)
	}
	defer rows.Close()

	stocks, err := scanStocks(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachTags(ctx, stocks); err != nil {
		return nil, err
	}

	return stocks, nil
}

// CountByCategoryID はカテゴリに属するストックの総数を返す。
func (r *PostgresStockRepo) CountByCategoryID(ctx context.Context, accountID, categoryID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*)
		 FROM stocks s
		 INNER JOIN categories_stocks cs ON cs.article_id = s.article_id
		 WHERE s.account_id = $1 AND cs.category_id = $2`,
		accountID, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stocks by category: %w", err)
	}
	return count, nil
}

// ApplySyncPlan は同期計画の全変更を同一トランザクションで適用する。
// いずれかの書き込みが失敗した場合は全体をロールバックする。
func (r *PostgresStockRepo) ApplySyncPlan(ctx context.Context, accountID string, plan *model.StockSyncPlan) error {
	if plan.IsEmpty() {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	for _, v := range plan.Inserts {
		stockID := uuid.New().String()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stocks (id, account_id, article_id, title, user_id, profile_image_url, article_created_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			stockID, accountID, v.ArticleID, v.Title, v.UserID, v.ProfileImageURL, v.ArticleCreatedAt, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert stock: %w", err)
		}

		for _, tag := range v.Tags {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO stock_tags (id, stock_id, name) VALUES ($1, $2, $3)`,
				uuid.New().String(), stockID, tag,
			)
			if err != nil {
				return fmt.Errorf("failed to insert stock tag: %w", err)
			}
		}
	}

	for _, u := range plan.Updates {
		_, err := tx.ExecContext(ctx,
			`UPDATE stocks
			 SET title = $1, user_id = $2, profile_image_url = $3, article_created_at = $4, updated_at = $5
			 WHERE id = $6`,
			u.Value.Title, u.Value.UserID, u.Value.ProfileImageURL, u.Value.ArticleCreatedAt, now, u.StockID,
		)
		if err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
	}

	for _, t := range plan.TagInserts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stock_tags (id, stock_id, name) VALUES ($1, $2, $3)`,
			uuid.New().String(), t.StockID, t.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert stock tag: %w", err)
		}
	}

	for _, t := range plan.TagDeletes {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM stock_tags WHERE stock_id = $1 AND name = $2`,
			t.StockID, t.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to delete stock tag: %w", err)
		}
	}

	for _, id := range plan.DeleteStockIDs {
		// stock_tagsはFKのCASCADEで削除される
		_, err := tx.ExecContext(ctx,
			`DELETE FROM stocks WHERE id = $1`,
			id,
		)
		if err != nil {
			return fmt.Errorf("failed to delete stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// scanStocks は結果セットからストックのスライスを組み立てる。
func scanStocks(rows *sql.Rows) ([]*model.Stock, error) {
	var stocks []*model.Stock
	for rows.Next() {
		stock := &model.Stock{}
		err := rows.Scan(
			&stock.ID, &stock.AccountID, &stock.ArticleID, &stock.Title,
			&stock.UserID, &stock.ProfileImageURL, &stock.ArticleCreatedAt,
			&stock.CreatedAt, &stock.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stocks: %w", err)
	}
	return stocks, nil
}

// attachTags は各ストックにタグを読み込んで紐付ける。
func (r *PostgresStockRepo) attachTags(ctx context.Context, stocks []*model.Stock) error {
	byID := make(map[string]*model.Stock, len(stocks))
	for _, s := range stocks {
		byID[s.ID] = s
	}

	for _, s := range stocks {
		rows, err := r.db.QueryContext(ctx,
			`SELECT name FROM stock_tags WHERE stock_id = $1 ORDER BY name`,
			s.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to list stock tags: %w", err)
		}

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan stock tag: %w", err)
			}
			byID[s.ID].Tags = append(byID[s.ID].Tags, name)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("failed to iterate stock tags: %w", err)
		}
		rows.Close()
	}

	return nil
}

// compile-time interface check
var _ StockRepository = (*PostgresStockRepo)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/himrock922/qiita-stocker-backend/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// FindByPermanentID はQiitaのパーマネントIDでアカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByPermanentID(ctx context.Context, permanentID uint64) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, permanent_id, user_name, access_token, created_at, updated_at
		 FROM accounts
		 WHERE permanent_id = $1`,
		int64(permanentID),
	).Scan(&account.ID, &account.PermanentID, &account.UserName, &account.AccessToken, &account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by permanent ID: %w", err)
	}

	return account, nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, permanent_id, user_name, access_token, created_at, updated_at
		 FROM accounts
		 WHERE id = $1`,
		id,
	).Scan(&account.ID, &account.PermanentID, &account.UserName, &account.AccessToken, &account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}

	return account, nil
}

// CreateWithSession はアカウントとログインセッションを同一トランザクションで作成する。
func (r *PostgresAccountRepo) CreateWithSession(ctx context.Context, account *model.Account, session *model.LoginSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (id, permanent_id, user_name, access_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, int64(account.PermanentID), account.UserName, account.AccessToken, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO login_sessions (id, account_id, expired_on, created_at)
		 VALUES ($1, $2, $3, $4)`,
		session.ID, session.AccountID, session.ExpiredOn, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert login session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateCredentialsWithSession はアクセストークンとユーザー名を更新し、
// 新しいログインセッションを同一トランザクションで作成する。
func (r *PostgresAccountRepo) UpdateCredentialsWithSession(ctx context.Context, account *model.Account, session *model.LoginSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts
		 SET access_token = $1, user_name = $2, updated_at = $3
		 WHERE id = $4`,
		account.AccessToken, account.UserName, account.UpdatedAt, account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account credentials: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO login_sessions (id, account_id, expired_on, created_at)
		 VALUES ($1, $2, $3, $4)`,
		session.ID, session.AccountID, session.ExpiredOn, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert login session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteByID は指定IDのアカウントを削除する。
// 関連するlogin_sessions、categories、stocksはCASCADE削除される。
func (r *PostgresAccountRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)

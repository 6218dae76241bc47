// Package auth はログインセッションの発行とベアラー認証を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/himrock922/qiita-stocker-backend/internal/model"
	"github.com/himrock922/qiita-stocker-backend/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration // ログインセッションの有効期間
}

// Service はアカウントとログインセッションに関するビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	sessionRepo repository.LoginSessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	sessionRepo repository.LoginSessionRepository,
	config ServiceConfig,
) *Service {
	if config.SessionTTL == 0 {
		config.SessionTTL = time.Hour
	}
	return &Service{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// CreateLoginSession はログインセッションを作成する。
// バリデーション、アカウントの存在確認を行ったうえで、
// アクセストークンとユーザー名の更新とセッション発行を1トランザクションで実行する。
// 発行したセッションIDを返す。
func (s *Service) CreateLoginSession(ctx context.Context, req CreateLoginSessionRequest) (string, error) {
	if fields := ValidateCreateLoginSession(req); len(fields) > 0 {
		return "", model.NewValidationError(fields)
	}

	qiitaAccount := model.QiitaAccount{
		PermanentID: parsePermanentID(req.PermanentID),
		AccessToken: req.AccessToken,
		UserName:    req.QiitaAccountID,
	}

	account, err := s.accountRepo.FindByPermanentID(ctx, qiitaAccount.PermanentID)
	if err != nil {
		return "", fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return "", model.NewAccountNotFoundError()
	}

	now := time.Now()
	account.AccessToken = qiitaAccount.AccessToken
	account.UserName = qiitaAccount.UserName
	account.UpdatedAt = now

	session := &model.LoginSession{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		ExpiredOn: now.Add(s.config.SessionTTL),
		CreatedAt: now,
	}

	if err := s.accountRepo.UpdateCredentialsWithSession(ctx, account, session); err != nil {
		return "", fmt.Errorf("ログインセッションの作成に失敗しました: %w", err)
	}

	slog.Info("ログインセッションを発行しました",
		slog.String("account_id", account.ID),
	)

	return session.ID, nil
}

// CreateAccount はアカウントを新規作成し、最初のログインセッションを発行する。
// 同一パーマネントIDのアカウントが既に存在する場合はエラーを返す。
func (s *Service) CreateAccount(ctx context.Context, req CreateLoginSessionRequest) (accountID, sessionID string, err error) {
	if fields := ValidateCreateLoginSession(req); len(fields) > 0 {
		return "", "", model.NewValidationError(fields)
	}

	qiitaAccount := model.QiitaAccount{
		PermanentID: parsePermanentID(req.PermanentID),
		AccessToken: req.AccessToken,
		UserName:    req.QiitaAccountID,
	}

	existing, err := s.accountRepo.FindByPermanentID(ctx, qiitaAccount.PermanentID)
	if err != nil {
		return "", "", fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return "", "", model.NewAccountAlreadyExistsError()
	}

	now := time.Now()
	account := &model.Account{
		ID:          uuid.New().String(),
		PermanentID: qiitaAccount.PermanentID,
		UserName:    qiitaAccount.UserName,
		AccessToken: qiitaAccount.AccessToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	session := &model.LoginSession{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		ExpiredOn: now.Add(s.config.SessionTTL),
		CreatedAt: now,
	}

	if err := s.accountRepo.CreateWithSession(ctx, account, session); err != nil {
		return "", "", fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}

	slog.Info("アカウントを作成しました",
		slog.String("account_id", account.ID),
	)

	return account.ID, session.ID, nil
}

// Authenticate はベアラーセッションIDをアカウントに解決する。
// セッションが存在しない場合はUnauthorized、期限切れの場合はSessionExpiredを返す。
// 副作用は持たない。
func (s *Service) Authenticate(ctx context.Context, sessionID string) (*model.Account, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("ログインセッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}
	if session.IsExpired(time.Now()) {
		return nil, model.NewSessionExpiredError()
	}

	account, err := s.accountRepo.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewUnauthorizedError()
	}

	return account, nil
}

// DeleteLoginSession は指定セッションを削除する（ログアウト）。
// セッションが存在しない場合はUnauthorizedを返す。
func (s *Service) DeleteLoginSession(ctx context.Context, sessionID string) error {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("ログインセッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return model.NewUnauthorizedError()
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("ログインセッションの削除に失敗しました: %w", err)
	}

	return nil
}

// Withdraw はアカウントを削除する。
// 関連するログインセッション、カテゴリ、ストックはストレージ側でCASCADE削除される。
func (s *Service) Withdraw(ctx context.Context, accountID string) error {
	if err := s.accountRepo.DeleteByID(ctx, accountID); err != nil {
		return fmt.Errorf("アカウントの削除に失敗しました: %w", err)
	}

	slog.Info("アカウントを削除しました",
		slog.String("account_id", accountID),
	)

	return nil
}

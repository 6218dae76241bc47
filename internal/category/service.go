// Package category はカテゴリの作成・一覧・更新とストック紐付けのユースケースを実装する。
package category

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/himrock922/qiita-stocker-backend/internal/model"
	"github.com/himrock922/qiita-stocker-backend/internal/repository"
)

// maxNameLength はカテゴリ名の最大文字数（ルーン数）。
const maxNameLength = 100

// Service はカテゴリに関するユースケースを提供する。
type Service struct {
	categoryRepo repository.CategoryRepository
}

// NewService はカテゴリサービスを生成する。
func NewService(categoryRepo repository.CategoryRepository) *Service {
	return &Service{categoryRepo: categoryRepo}
}

// validateName はカテゴリ名を検証し、フィールドエラーを返す。
func validateName(name string) map[string][]string {
	fields := map[string][]string{}

	if name == "" {
		fields["name"] = append(fields["name"], "カテゴリ名を入力してください。")
	} else if utf8.RuneCountInString(name) > maxNameLength {
		fields["name"] = append(fields["name"], fmt.Sprintf("カテゴリ名は%d文字以内で入力してください。", maxNameLength))
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Create はカテゴリを作成する。
func (s *Service) Create(ctx context.Context, accountID, name string) (*model.Category, error) {
	if fields := validateName(name); fields != nil {
		return nil, model.NewValidationError(fields)
	}

	now := time.Now()
	category := &model.Category{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}

	return category, nil
}

// List はアカウントの全カテゴリを作成順で返す。
func (s *Service) List(ctx context.Context, accountID string) ([]*model.Category, error) {
	categories, err := s.categoryRepo.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return categories, nil
}

// UpdateName はカテゴリ名を変更する。他アカウントのカテゴリや存在しない
// カテゴリを指定した場合はCATEGORY_NOT_FOUNDを返す。
func (s *Service) UpdateName(ctx context.Context, accountID, categoryID, name string) (*model.Category, error) {
	if fields := validateName(name); fields != nil {
		return nil, model.NewValidationError(fields)
	}

	category, err := s.categoryRepo.FindByIDAndAccountID(ctx, categoryID, accountID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return nil, model.NewCategoryNotFoundError()
	}

	category.Name = name
	category.UpdatedAt = time.Now()

	if err := s.categoryRepo.UpdateName(ctx, category); err != nil {
		return nil, fmt.Errorf("カテゴリ名の更新に失敗しました: %w", err)
	}

	return category, nil
}

// ReplaceStocks はカテゴリに紐づく記事ID集合を希望状態へ置き換える。
// 現在のリレーションとの差分を計算し、追加分の挿入と削除分の削除を
// 同一トランザクションで適用する。部分更新のAPIは提供せず、呼び出し元は
// 常に完全な目標集合を渡す。
func (s *Service) ReplaceStocks(ctx context.Context, accountID, categoryID string, articleIDs []string) error {
	category, err := s.categoryRepo.FindByIDAndAccountID(ctx, categoryID, accountID)
	if err != nil {
		return fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return model.NewCategoryNotFoundError()
	}

	current, err := s.categoryRepo.ListRelationsByCategoryID(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("カテゴリリレーションの取得に失敗しました: %w", err)
	}

	desired := make(map[string]struct{}, len(articleIDs))
	for _, articleID := range articleIDs {
		desired[articleID] = struct{}{}
	}

	existing := make(map[string]struct{}, len(current))
	var deleteIDs []string
	for _, rel := range current {
		existing[rel.ArticleID] = struct{}{}
		if _, ok := desired[rel.ArticleID]; !ok {
			deleteIDs = append(deleteIDs, rel.ID)
		}
	}

	var inserts []model.CategoryStockRelation
	for _, articleID := range articleIDs {
		if _, ok := existing[articleID]; ok {
			continue
		}
		// 重複した記事IDが渡されても1件だけ挿入する
		existing[articleID] = struct{}{}
		inserts = append(inserts, model.CategoryStockRelation{
			ID:         uuid.New().String(),
			CategoryID: categoryID,
			ArticleID:  articleID,
		})
	}

	if len(inserts) == 0 && len(deleteIDs) == 0 {
		return nil
	}

	if err := s.categoryRepo.ReplaceRelations(ctx, inserts, deleteIDs); err != nil {
		return fmt.Errorf("カテゴリリレーションの更新に失敗しました: %w", err)
	}

	return nil
}

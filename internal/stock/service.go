// Package stock はストックの一覧取得とQiita APIとの同期のユースケースを実装する。
package stock

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/himrock922/qiita-stocker-backend/internal/metrics"
	"github.com/himrock922/qiita-stocker-backend/internal/model"
	"github.com/himrock922/qiita-stocker-backend/internal/qiita"
	"github.com/himrock922/qiita-stocker-backend/internal/repository"
	"github.com/himrock922/qiita-stocker-backend/internal/security"
)

const (
	// defaultPage はページ指定省略時のページ番号。
	defaultPage = 1
	// defaultPerPage はperPage指定省略時の1ページあたりの件数。
	defaultPerPage = 20
	// maxPageParam はpageおよびperPageの上限値。
	maxPageParam = 100
)

// QiitaFetcher はQiita APIからのストック取得のインターフェース。
type QiitaFetcher interface {
	// FetchStocks は指定ユーザーのストック一覧を1ページ分取得する。
	FetchStocks(ctx context.Context, userName string, page, perPage int) (*qiita.StockPage, error)
	// FetchAllStocks は指定ユーザーの全ストックをページングしながら取得する。
	FetchAllStocks(ctx context.Context, userName string) ([]model.StockValue, error)
}

// compile-time interface check
var _ QiitaFetcher = (*qiita.Client)(nil)

// StockItem はAPI応答に含めるストック1件を表す。
// 記事作成日時はマイクロ秒まで含む固定書式の文字列で返す。
type StockItem struct {
	ArticleID        string   `json:"articleId"`
	Title            string   `json:"title"`
	UserID           string   `json:"userId"`
	ProfileImageURL  string   `json:"profileImageUrl"`
	ArticleCreatedAt string   `json:"articleCreatedAt"`
	Tags             []string `json:"tags"`
}

// PageResult はページ単位のストック一覧取得の結果を表す。
type PageResult struct {
	Stocks     []StockItem
	TotalCount int
	LinkHeader string
}

// SyncResult は同期処理の適用結果を表す。
type SyncResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
}

// Service はストックに関するユースケースを提供する。
type Service struct {
	stockRepo    repository.StockRepository
	categoryRepo repository.CategoryRepository
	fetcher      QiitaFetcher
	sanitizer    security.ContentSanitizerService
	collector    metrics.MetricsCollector
	logger       *slog.Logger
	baseURL      string // Linkヘッダーに埋め込むURIの起点
}

// NewService はストックサービスを生成する。
func NewService(
	stockRepo repository.StockRepository,
	categoryRepo repository.CategoryRepository,
	fetcher QiitaFetcher,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	baseURL string,
) *Service {
	return &Service{
		stockRepo:    stockRepo,
		categoryRepo: categoryRepo,
		fetcher:      fetcher,
		sanitizer:    sanitizer,
		collector:    collector,
		logger:       logger,
		baseURL:      baseURL,
	}
}

// parsePagination はクエリパラメータのpageとperPageを検証して整数に変換する。
// 省略時は既定値を使用し、整数でない値や1〜100の範囲外は検証エラーになる。
func parsePagination(pageParam, perPageParam string) (page, perPage int, fields map[string][]string) {
	fields = map[string][]string{}

	page = defaultPage
	if pageParam != "" {
		n, err := strconv.Atoi(pageParam)
		if err != nil || n < 1 || n > maxPageParam {
			fields["page"] = append(fields["page"], "pageには1から100までの整数を指定してください。")
		} else {
			page = n
		}
	}

	perPage = defaultPerPage
	if perPageParam != "" {
		n, err := strconv.Atoi(perPageParam)
		if err != nil || n < 1 || n > maxPageParam {
			fields["perPage"] = append(fields["perPage"], "perPageには1から100までの整数を指定してください。")
		} else {
			perPage = n
		}
	}

	if len(fields) == 0 {
		return page, perPage, nil
	}
	return 0, 0, fields
}

// Index は認証済みアカウントのストック一覧をQiita APIから1ページ分取得する。
// Qiita API側の障害はSERVICE_UNAVAILABLEに変換し、下層のトランスポート
// エラーを応答に漏らさない。
func (s *Service) Index(ctx context.Context, account *model.Account, pageParam, perPageParam string) (*PageResult, error) {
	page, perPage, fields := parsePagination(pageParam, perPageParam)
	if fields != nil {
		return nil, model.NewValidationError(fields)
	}

	start := time.Now()
	result, err := s.fetcher.FetchStocks(ctx, account.UserName, page, perPage)
	s.collector.RecordQiitaFetchLatency(time.Since(start))
	if err != nil {
		s.collector.RecordQiitaFetchFailure()
		s.logger.Error("ストック一覧の取得に失敗しました",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID),
		)
		return nil, model.NewServiceUnavailableError()
	}
	s.collector.RecordQiitaFetchSuccess()

	items := make([]StockItem, 0, len(result.Stocks))
	for _, value := range result.Stocks {
		items = append(items, s.toStockItem(value))
	}

	return &PageResult{
		Stocks:     items,
		TotalCount: result.TotalCount,
		LinkHeader: BuildLinkHeader(s.baseURL+"/stocks", page, perPage, result.TotalCount),
	}, nil
}

// ShowCategorized は指定カテゴリに紐づくローカル保存済みストックをページ単位で返す。
// 他アカウントのカテゴリや存在しないカテゴリはCATEGORY_NOT_FOUNDになる。
func (s *Service) ShowCategorized(ctx context.Context, accountID, categoryID, pageParam, perPageParam string) (*PageResult, error) {
	page, perPage, fields := parsePagination(pageParam, perPageParam)
	if fields != nil {
		return nil, model.NewValidationError(fields)
	}

	category, err := s.categoryRepo.FindByIDAndAccountID(ctx, categoryID, accountID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return nil, model.NewCategoryNotFoundError()
	}

	totalCount, err := s.stockRepo.CountByCategoryID(ctx, accountID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ内ストック数の取得に失敗しました: %w", err)
	}

	offset := (page - 1) * perPage
	stocks, err := s.stockRepo.ListByCategoryID(ctx, accountID, categoryID, perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ内ストックの取得に失敗しました: %w", err)
	}

	items := make([]StockItem, 0, len(stocks))
	for _, stock := range stocks {
		items = append(items, StockItem{
			ArticleID:        stock.ArticleID,
			Title:            stock.Title,
			UserID:           stock.UserID,
			ProfileImageURL:  stock.ProfileImageURL,
			ArticleCreatedAt: stock.ArticleCreatedAt.Format(model.ArticleTimeFormat),
			Tags:             stock.Tags,
		})
	}

	baseURI := fmt.Sprintf("%s/stocks/categories/%s", s.baseURL, categoryID)
	return &PageResult{
		Stocks:     items,
		TotalCount: totalCount,
		LinkHeader: BuildLinkHeader(baseURI, page, perPage, totalCount),
	}, nil
}

// Synchronize はQiita上のストック全件とローカル保存分を突き合わせ、
// 差分を1トランザクションで適用する。Qiita API側の障害は書き込み前に
// SERVICE_UNAVAILABLEとして中断し、部分的な同期結果は観測されない。
func (s *Service) Synchronize(ctx context.Context, account *model.Account) (*SyncResult, error) {
	start := time.Now()
	remote, err := s.fetcher.FetchAllStocks(ctx, account.UserName)
	s.collector.RecordQiitaFetchLatency(time.Since(start))
	if err != nil {
		s.collector.RecordQiitaFetchFailure()
		s.logger.Error("ストック全件の取得に失敗しました",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID),
		)
		return nil, model.NewServiceUnavailableError()
	}
	s.collector.RecordQiitaFetchSuccess()

	// 保存前にリモート由来のタイトルをサニタイズする
	for i := range remote {
		remote[i].Title = s.sanitizer.Sanitize(remote[i].Title)
	}

	local, err := s.stockRepo.ListByAccountID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("ローカルストックの取得に失敗しました: %w", err)
	}

	plan := BuildSyncPlan(local, remote)
	if !plan.IsEmpty() {
		if err := s.stockRepo.ApplySyncPlan(ctx, account.ID, plan); err != nil {
			return nil, fmt.Errorf("同期計画の適用に失敗しました: %w", err)
		}
	}

	result := &SyncResult{
		Inserted: len(plan.Inserts),
		Updated:  len(plan.Updates),
		Deleted:  len(plan.DeleteStockIDs),
	}
	s.collector.RecordSyncApplied(result.Inserted, result.Updated, result.Deleted)

	s.logger.Info("ストックの同期が完了しました",
		slog.String("account_id", account.ID),
		slog.Int("inserted", result.Inserted),
		slog.Int("updated", result.Updated),
		slog.Int("deleted", result.Deleted),
	)

	return result, nil
}

// toStockItem はQiita APIの値をサニタイズ済みの応答用ストックに変換する。
func (s *Service) toStockItem(value model.StockValue) StockItem {
	return StockItem{
		ArticleID:        value.ArticleID,
		Title:            s.sanitizer.Sanitize(value.Title),
		UserID:           value.UserID,
		ProfileImageURL:  value.ProfileImageURL,
		ArticleCreatedAt: value.ArticleCreatedAt.Format(model.ArticleTimeFormat),
		Tags:             value.Tags,
	}
}

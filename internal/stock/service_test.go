package stock

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/himrock922/qiita-stocker-backend/internal/metrics"
	"github.com/himrock922/qiita-stocker-backend/internal/model"
	"github.com/himrock922/qiita-stocker-backend/internal/qiita"
	"github.com/himrock922/qiita-stocker-backend/internal/security"
)

type mockStockRepo struct {
	listByAccountIDFn   func(ctx context.Context, accountID string) ([]*model.Stock, error)
	listByCategoryIDFn  func(ctx context.Context, accountID, categoryID string, limit, offset int) ([]*model.Stock, error)
	countByCategoryIDFn func(ctx context.Context, accountID, categoryID string) (int, error)
	applySyncPlanFn     func(ctx context.Context, accountID string, plan *model.StockSyncPlan) error
}

func (m *mockStockRepo) ListByAccountID(ctx context.Context, accountID string) ([]*model.Stock, error) {
	if m.listByAccountIDFn != nil {
		return m.listByAccountIDFn(ctx, accountID)
	}
	return nil, nil
}
func (m *mockStockRepo) ListByCategoryID(ctx context.Context, accountID, categoryID string, limit, offset int) ([]*model.Stock, error) {
	if m.listByCategoryIDFn != nil {
		return m.listByCategoryIDFn(ctx, accountID, categoryID, limit, offset)
	}
	return nil, nil
}
func (m *mockStockRepo) CountByCategoryID(ctx context.Context, accountID, categoryID string) (int, error) {
	if m.countByCategoryIDFn != nil {
		return m.countByCategoryIDFn(ctx, accountID, categoryID)
	}
	return 0, nil
}
func (m *mockStockRepo) ApplySyncPlan(ctx context.Context, accountID string, plan *model.StockSyncPlan) error {
	if m.applySyncPlanFn != nil {
		return m.applySyncPlanFn(ctx, accountID, plan)
	}
	return nil
}

type mockCategoryRepo struct {
	findByIDAndAccountIDFn func(ctx context.Context, id, accountID string) (*model.Category, error)
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *model.Category) error { return nil }
func (m *mockCategoryRepo) ListByAccountID(ctx context.Context, accountID string) ([]*model.Category, error) {
	return nil, nil
}
func (m *mockCategoryRepo) FindByIDAndAccountID(ctx context.Context, id, accountID string) (*model.Category, error) {
	if m.findByIDAndAccountIDFn != nil {
		return m.findByIDAndAccountIDFn(ctx, id, accountID)
	}
	return nil, nil
}
func (m *mockCategoryRepo) UpdateName(ctx context.Context, category *model.Category) error {
	return nil
}
func (m *mockCategoryRepo) ListRelationsByCategoryID(ctx context.Context, categoryID string) ([]model.CategoryStockRelation, error) {
	return nil, nil
}
func (m *mockCategoryRepo) ReplaceRelations(ctx context.Context, inserts []model.CategoryStockRelation, deleteIDs []string) error {
	return nil
}

type mockFetcher struct {
	fetchStocksFn    func(ctx context.Context, userName string, page, perPage int) (*qiita.StockPage, error)
	fetchAllStocksFn func(ctx context.Context, userName string) ([]model.StockValue, error)
}

func (m *mockFetcher) FetchStocks(ctx context.Context, userName string, page, perPage int) (*qiita.StockPage, error) {
	if m.fetchStocksFn != nil {
		return m.fetchStocksFn(ctx, userName, page, perPage)
	}
	return &qiita.StockPage{}, nil
}
func (m *mockFetcher) FetchAllStocks(ctx context.Context, userName string) ([]model.StockValue, error) {
	if m.fetchAllStocksFn != nil {
		return m.fetchAllStocksFn(ctx, userName)
	}
	return nil, nil
}

func newTestService(t *testing.T, stockRepo *mockStockRepo, categoryRepo *mockCategoryRepo, fetcher *mockFetcher) *Service {
	t.Helper()
	return NewService(
		stockRepo,
		categoryRepo,
		fetcher,
		security.NewContentSanitizer(),
		metrics.NewCollector(prometheus.NewRegistry()),
		slog.New(slog.DiscardHandler),
		"http://localhost:8080",
	)
}

func testAccount() *model.Account {
	return &model.Account{ID: "account-1", PermanentID: 123, UserName: "test-user"}
}

func assertAPIErrorCode(t *testing.T, err error, code string) *model.APIError {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Fatalf("error code = %q, want %q", apiErr.Code, code)
	}
	return apiErr
}

// TestIndex_PaginationValidation はページネーションパラメータの検証を網羅する。
func TestIndex_PaginationValidation(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		perPage   string
		wantField string
	}{
		{"pageが0", "0", "20", "page"},
		{"pageが101", "101", "20", "page"},
		{"pageが整数以外", "abc", "20", "page"},
		{"perPageが0", "1", "0", "perPage"},
		{"perPageが101", "1", "101", "perPage"},
		{"perPageが整数以外", "1", "x", "perPage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &mockStockRepo{}, &mockCategoryRepo{}, &mockFetcher{})

			_, err := svc.Index(context.Background(), testAccount(), tt.page, tt.perPage)
			apiErr := assertAPIErrorCode(t, err, model.ErrCodeValidation)
			if len(apiErr.Fields[tt.wantField]) == 0 {
				t.Errorf("expected field errors for %s, got %v", tt.wantField, apiErr.Fields)
			}
		})
	}
}

// TestIndex_DefaultPagination はパラメータ省略時に既定値が使われることを検証する。
func TestIndex_DefaultPagination(t *testing.T) {
	var gotPage, gotPerPage int
	fetcher := &mockFetcher{
		fetchStocksFn: func(ctx context.Context, userName string, page, perPage int) (*qiita.StockPage, error) {
			gotPage, gotPerPage = page, perPage
			return &qiita.StockPage{}, nil
		},
	}
	svc := newTestService(t, &mockStockRepo{}, &mockCategoryRepo{}, fetcher)

	if _, err := svc.Index(context.Background(), testAccount(), "", ""); err != nil {
		t.Fatalf("Index returned error: %v", err)
	}
	if gotPage != 1 || gotPerPage != 20 {
		t.Errorf("page/perPage = %d/%d, want 1/20", gotPage, gotPerPage)
	}
}

// TestIndex_Success は取得結果の変換とLinkヘッダーの構築を検証する。
// 記事タイトルはサニタイズされ、作成日時はマイクロ秒を含む固定書式になる。
func TestIndex_Success(t *testing.T) {
	createdAt := time.Date(2024, 4, 1, 12, 30, 45, 123456000, time.UTC)
	fetcher := &mockFetcher{
		fetchStocksFn: func(ctx context.Context, userName string, page, perPage int) (*qiita.StockPage, error) {
			if userName != "test-user" {
				t.Errorf("userName = %q, want test-user", userName)
			}
			return &qiita.StockPage{
				Stocks: []model.StockValue{{
					ArticleID:        "article-a",
					Title:            `<script>alert(1)</script>Goの話`,
					UserID:           "author",
					ProfileImageURL:  "https://example.com/avatar.png",
					ArticleCreatedAt: createdAt,
					Tags:             []string{"go"},
				}},
				TotalCount: 101,
			}, nil
		},
	}
	svc := newTestService(t, &mockStockRepo{}, &mockCategoryRepo{}, fetcher)

	result, err := svc.Index(context.Background(), testAccount(), "50", "2")
	if err != nil {
		t.Fatalf("Index returned error: %v", err)
	}

	if result.TotalCount != 101 {
		t.Errorf("TotalCount = %d, want 101", result.TotalCount)
	}
	if len(result.Stocks) != 1 {
		t.Fatalf("Stocks = %+v, want 1 entry", result.Stocks)
	}
	if result.Stocks[0].Title != "Goの話" {
		t.Errorf("Title = %q, want sanitized Goの話", result.Stocks[0].Title)
	}
	if result.Stocks[0].ArticleCreatedAt != "2024-04-01 12:30:45.123456" {
		t.Errorf("ArticleCreatedAt = %q, want 2024-04-01 12:30:45.123456", result.Stocks[0].ArticleCreatedAt)
	}

	wantLink := `<http://localhost:8080/stocks?page=51&per_page=2>; rel="next", ` +
		`<http://localhost:8080/stocks?page=51&per_page=2>; rel="last", ` +
		`<http://localhost:8080/stocks?page=1&per_page=2>; rel="first", ` +
		`<http://localhost:8080/stocks?page=49&per_page=2>; rel="prev"`
	if result.LinkHeader != wantLink {
		t.Errorf("LinkHeader =\n%s\nwant\n%s", result.LinkHeader, wantLink)
	}
}

// TestIndex_UpstreamFailure はQiita API障害がSERVICE_UNAVAILABLEに変換され、
// 下層のエラー内容が漏れないことを検証する。
func TestIndex_UpstreamFailure(t *testing.T) {
	fetcher := &mockFetcher{
		fetchStocksFn: func(ctx context.Context, userName string, page, perPage int) (*qiita.StockPage, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	svc := newTestService(t, &mockStockRepo{}, &mockCategoryRepo{}, fetcher)

	_, err := svc.Index(context.Background(), testAccount(), "1", "20")
	apiErr := assertAPIErrorCode(t, err, model.ErrCodeServiceUnavailable)
	if apiErr.Message == "dial tcp: connection refused" {
		t.Error("transport error must not leak into the API error message")
	}
}

// TestShowCategorized_CategoryNotFound は所有権スコープの検索ミスが
// CATEGORY_NOT_FOUNDになることを検証する。
func TestShowCategorized_CategoryNotFound(t *testing.T) {
	categoryRepo := &mockCategoryRepo{
		findByIDAndAccountIDFn: func(ctx context.Context, id, accountID string) (*model.Category, error) {
			return nil, nil
		},
	}
	svc := newTestService(t, &mockStockRepo{}, categoryRepo, &mockFetcher{})

	_, err := svc.ShowCategorized(context.Background(), "account-1", "other-category", "1", "20")
	assertAPIErrorCode(t, err, model.ErrCodeCategoryNotFound)
}

// TestShowCategorized_Success はカテゴリ内ストックのページ取得とLinkヘッダーを検証する。
func TestShowCategorized_Success(t *testing.T) {
	var gotLimit, gotOffset int
	categoryRepo := &mockCategoryRepo{
		findByIDAndAccountIDFn: func(ctx context.Context, id, accountID string) (*model.Category, error) {
			return &model.Category{ID: id, AccountID: accountID, Name: "Go"}, nil
		},
	}
	stockRepo := &mockStockRepo{
		countByCategoryIDFn: func(ctx context.Context, accountID, categoryID string) (int, error) {
			return 45, nil
		},
		listByCategoryIDFn: func(ctx context.Context, accountID, categoryID string, limit, offset int) ([]*model.Stock, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.Stock{{
				ID:               "stock-1",
				ArticleID:        "article-a",
				Title:            "title",
				UserID:           "author",
				ArticleCreatedAt: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
				Tags:             []string{"go"},
			}}, nil
		},
	}
	svc := newTestService(t, stockRepo, categoryRepo, &mockFetcher{})

	result, err := svc.ShowCategorized(context.Background(), "account-1", "category-1", "2", "10")
	if err != nil {
		t.Fatalf("ShowCategorized returned error: %v", err)
	}

	if gotLimit != 10 || gotOffset != 10 {
		t.Errorf("limit/offset = %d/%d, want 10/10", gotLimit, gotOffset)
	}
	if result.TotalCount != 45 {
		t.Errorf("TotalCount = %d, want 45", result.TotalCount)
	}
	if len(result.Stocks) != 1 || result.Stocks[0].ArticleID != "article-a" {
		t.Errorf("Stocks = %+v, want single article-a", result.Stocks)
	}

	wantLink := `<http://localhost:8080/stocks/categories/category-1?page=3&per_page=10>; rel="next", ` +
		`<http://localhost:8080/stocks/categories/category-1?page=5&per_page=10>; rel="last", ` +
		`<http://localhost:8080/stocks/categories/category-1?page=1&per_page=10>; rel="first", ` +
		`<http://localhost:8080/stocks/categories/category-1?page=1&per_page=10>; rel="prev"`
	if result.LinkHeader != wantLink {
		t.Errorf("LinkHeader =\n%s\nwant\n%s", result.LinkHeader, wantLink)
	}
}

// TestSynchronize_Success は取得・差分計算・適用の一連の流れを検証する。
func TestSynchronize_Success(t *testing.T) {
	var appliedPlan *model.StockSyncPlan
	var appliedAccountID string

	fetcher := &mockFetcher{
		fetchAllStocksFn: func(ctx context.Context, userName string) ([]model.StockValue, error) {
			return []model.StockValue{
				remoteStock("article-a", "title a", "go"),
				remoteStock("article-c", "title c"),
			}, nil
		},
	}
	stockRepo := &mockStockRepo{
		listByAccountIDFn: func(ctx context.Context, accountID string) ([]*model.Stock, error) {
			return []*model.Stock{
				localStock("stock-a", "article-a", "title a", "go"),
				localStock("stock-b", "article-b", "title b"),
			}, nil
		},
		applySyncPlanFn: func(ctx context.Context, accountID string, plan *model.StockSyncPlan) error {
			appliedAccountID = accountID
			appliedPlan = plan
			return nil
		},
	}
	svc := newTestService(t, stockRepo, &mockCategoryRepo{}, fetcher)

	result, err := svc.Synchronize(context.Background(), testAccount())
	if err != nil {
		t.Fatalf("Synchronize returned error: %v", err)
	}

	if appliedAccountID != "account-1" {
		t.Errorf("applied accountID = %q, want account-1", appliedAccountID)
	}
	if appliedPlan == nil {
		t.Fatal("expected ApplySyncPlan to be called")
	}
	if result.Inserted != 1 || result.Updated != 0 || result.Deleted != 1 {
		t.Errorf("result = %+v, want inserted=1 updated=0 deleted=1", result)
	}
}

// TestSynchronize_SanitizesTitles は保存前にリモート由来のタイトルが
// サニタイズされることを検証する。
func TestSynchronize_SanitizesTitles(t *testing.T) {
	var appliedPlan *model.StockSyncPlan
	fetcher := &mockFetcher{
		fetchAllStocksFn: func(ctx context.Context, userName string) ([]model.StockValue, error) {
			return []model.StockValue{remoteStock("article-a", `<img src=x onerror=alert(1)>安全な題名`)}, nil
		},
	}
	stockRepo := &mockStockRepo{
		applySyncPlanFn: func(ctx context.Context, accountID string, plan *model.StockSyncPlan) error {
			appliedPlan = plan
			return nil
		},
	}
	svc := newTestService(t, stockRepo, &mockCategoryRepo{}, fetcher)

	if _, err := svc.Synchronize(context.Background(), testAccount()); err != nil {
		t.Fatalf("Synchronize returned error: %v", err)
	}
	if len(appliedPlan.Inserts) != 1 || appliedPlan.Inserts[0].Title != "安全な題名" {
		t.Errorf("Inserts = %+v, want sanitized title", appliedPlan.Inserts)
	}
}

// TestSynchronize_NoChange は差分がない場合に書き込みが発生しないことを検証する。
func TestSynchronize_NoChange(t *testing.T) {
	fetcher := &mockFetcher{
		fetchAllStocksFn: func(ctx context.Context, userName string) ([]model.StockValue, error) {
			return []model.StockValue{remoteStock("article-a", "title", "go")}, nil
		},
	}
	stockRepo := &mockStockRepo{
		listByAccountIDFn: func(ctx context.Context, accountID string) ([]*model.Stock, error) {
			return []*model.Stock{localStock("stock-a", "article-a", "title", "go")}, nil
		},
		applySyncPlanFn: func(ctx context.Context, accountID string, plan *model.StockSyncPlan) error {
			t.Fatal("ApplySyncPlan must not be called for an empty plan")
			return nil
		},
	}
	svc := newTestService(t, stockRepo, &mockCategoryRepo{}, fetcher)

	result, err := svc.Synchronize(context.Background(), testAccount())
	if err != nil {
		t.Fatalf("Synchronize returned error: %v", err)
	}
	if result.Inserted != 0 || result.Updated != 0 || result.Deleted != 0 {
		t.Errorf("result = %+v, want all zero", result)
	}
}

// TestSynchronize_UpstreamFailure はQiita API障害時に書き込み前に中断し、
// SERVICE_UNAVAILABLEが返ることを検証する。
func TestSynchronize_UpstreamFailure(t *testing.T) {
	fetcher := &mockFetcher{
		fetchAllStocksFn: func(ctx context.Context, userName string) ([]model.StockValue, error) {
			return nil, errors.New("upstream returned 500")
		},
	}
	stockRepo := &mockStockRepo{
		applySyncPlanFn: func(ctx context.Context, accountID string, plan *model.StockSyncPlan) error {
			t.Fatal("ApplySyncPlan must not be called after a fetch failure")
			return nil
		},
	}
	svc := newTestService(t, stockRepo, &mockCategoryRepo{}, fetcher)

	_, err := svc.Synchronize(context.Background(), testAccount())
	assertAPIErrorCode(t, err, model.ErrCodeServiceUnavailable)
}

// Package qiita はQiita APIとの連携機能を提供する。
// ユーザーのストック一覧取得と、同期処理向けの全件ページング取得を含む。
package qiita

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/himrock922/qiita-stocker-backend/internal/model"
)

const (
	// defaultBaseURL はQiita APIのベースURL。
	defaultBaseURL = "https://qiita.com"
	// totalCountHeader はストック総数を通知するレスポンスヘッダー。
	totalCountHeader = "Total-Count"
	// defaultSyncPerPage は全件取得時の1ページあたりの既定件数。
	defaultSyncPerPage = 100
)

// Client はQiita APIのクライアント。
// ストック一覧エンドポイントをページ単位で呼び出す。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	baseURL     string // テスト用にエンドポイントを差し替え可能
	syncPerPage int
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はQiita本番APIを使用する。
// syncPerPageが0以下の場合は既定値の100を使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string, syncPerPage int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if syncPerPage <= 0 {
		syncPerPage = defaultSyncPerPage
	}
	return &Client{
		httpClient:  httpClient,
		logger:      logger,
		baseURL:     baseURL,
		syncPerPage: syncPerPage,
	}
}

// StockPage はストック一覧の1ページ分の取得結果を表す。
type StockPage struct {
	Stocks     []model.StockValue
	TotalCount int
}

// stockPayload はQiita APIのストック1件分のレスポンスボディ。
// 必要なフィールドのみデコードする。
type stockPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	User      struct {
		ID              string `json:"id"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"user"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// FetchStocks は指定ユーザーのストック一覧を1ページ分取得する。
// 総件数はレスポンスのTotal-Countヘッダーから読み取る。
// 非2xxレスポンスおよびトランスポートエラーはそのままエラーとして返す
// （ServiceUnavailableへの変換は呼び出し元のシナリオ層が行う）。
func (c *Client) FetchStocks(ctx context.Context, userName string, page, perPage int) (*StockPage, error) {
	reqURL := fmt.Sprintf("%s/api/v2/users/%s/stocks?page=%d&per_page=%d",
		c.baseURL, url.PathEscape(userName), page, perPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "qiita-stocker/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Qiita APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("user_name", userName),
			slog.Int("page", page),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Qiita APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("user_name", userName),
			slog.Int("page", page),
		)
		return nil, fmt.Errorf("Qiita APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var payloads []stockPayload
	if err := json.Unmarshal(body, &payloads); err != nil {
		c.logger.Error("Qiita APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	totalCount, err := strconv.Atoi(resp.Header.Get(totalCountHeader))
	if err != nil {
		return nil, fmt.Errorf("Total-Countヘッダーのパースに失敗しました: %w", err)
	}

	stocks := make([]model.StockValue, 0, len(payloads))
	for _, p := range payloads {
		value, err := toStockValue(p)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, value)
	}

	return &StockPage{Stocks: stocks, TotalCount: totalCount}, nil
}

// FetchAllStocks は指定ユーザーの全ストックをページングしながら取得する。
// 初回レスポンスのTotal-Countヘッダーを基準に、全件そろうまで順次取得する。
// ページは並行取得せず1ページずつ取得する。
func (c *Client) FetchAllStocks(ctx context.Context, userName string) ([]model.StockValue, error) {
	var all []model.StockValue

	for page := 1; ; page++ {
		result, err := c.FetchStocks(ctx, userName, page, c.syncPerPage)
		if err != nil {
			return nil, err
		}

		all = append(all, result.Stocks...)

		if len(all) >= result.TotalCount || len(result.Stocks) == 0 {
			break
		}
	}

	c.logger.Info("Qiitaのストック全件取得が完了しました",
		slog.String("user_name", userName),
		slog.Int("total", len(all)),
	)

	return all, nil
}

// toStockValue はAPIレスポンスの1件をドメインの値に変換する。
func toStockValue(p stockPayload) (model.StockValue, error) {
	createdAt, err := time.Parse(time.RFC3339, p.CreatedAt)
	if err != nil {
		return model.StockValue{}, fmt.Errorf("記事作成日時のパースに失敗しました: %w", err)
	}

	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}

	return model.StockValue{
		ArticleID:        p.ID,
		Title:            p.Title,
		UserID:           p.User.ID,
		ProfileImageURL:  p.User.ProfileImageURL,
		ArticleCreatedAt: createdAt,
		Tags:             tags,
	}, nil
}

package qiita

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

// testLogger はテスト出力を汚さないロガーを返す。
func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// stockJSON はQiita APIレスポンス形式のストック1件を生成する。
func stockJSON(articleID, title string, tags ...string) map[string]any {
	tagList := make([]map[string]any, 0, len(tags))
	for _, tag := range tags {
		tagList = append(tagList, map[string]any{"name": tag, "versions": []string{}})
	}
	return map[string]any{
		"id":         articleID,
		"title":      title,
		"created_at": "2018-12-01T00:00:00+09:00",
		"user": map[string]any{
			"id":                "test-user",
			"profile_image_url": "http://test.example/test-image.jpg",
		},
		"tags": tagList,
	}
}

// TestFetchStocks_Success は1ページ分のストックとTotal-Countを取得できることを検証する。
func TestFetchStocks_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/users/test-user/stocks" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page = %s, want 2", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "10" {
			t.Errorf("per_page = %s, want 10", got)
		}

		w.Header().Set("Total-Count", "25")
		json.NewEncoder(w).Encode([]map[string]any{
			stockJSON("1234567890abcdefghij", "同期のテスト", "Go", "API"),
		})
	}))
	defer server.Close()

	client := NewClient(server.Client(), testLogger(), server.URL, 0)

	page, err := client.FetchStocks(context.Background(), "test-user", 2, 10)
	if err != nil {
		t.Fatalf("FetchStocks returned error: %v", err)
	}

	if page.TotalCount != 25 {
		t.Errorf("TotalCount = %d, want 25", page.TotalCount)
	}
	if len(page.Stocks) != 1 {
		t.Fatalf("len(Stocks) = %d, want 1", len(page.Stocks))
	}

	stock := page.Stocks[0]
	if stock.ArticleID != "1234567890abcdefghij" {
		t.Errorf("ArticleID = %q", stock.ArticleID)
	}
	if stock.Title != "同期のテスト" {
		t.Errorf("Title = %q", stock.Title)
	}
	if stock.UserID != "test-user" {
		t.Errorf("UserID = %q", stock.UserID)
	}
	if len(stock.Tags) != 2 || stock.Tags[0] != "Go" || stock.Tags[1] != "API" {
		t.Errorf("Tags = %v", stock.Tags)
	}
}

// TestFetchStocks_ErrorStatus は非2xxレスポンスがエラーになることを検証する。
func TestFetchStocks_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.Client(), testLogger(), server.URL, 0)

	_, err := client.FetchStocks(context.Background(), "test-user", 1, 10)
	if err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

// TestFetchStocks_MissingTotalCount はTotal-Countヘッダー欠落がエラーになることを検証する。
func TestFetchStocks_MissingTotalCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	client := NewClient(server.Client(), testLogger(), server.URL, 0)

	_, err := client.FetchStocks(context.Background(), "test-user", 1, 10)
	if err == nil {
		t.Fatal("expected error for missing Total-Count header, got nil")
	}
}

// TestFetchAllStocks_Paging はTotal-Countに基づいて複数ページを順次取得することを検証する。
func TestFetchAllStocks_Paging(t *testing.T) {
	const total = 101

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

		start := (page - 1) * perPage
		count := perPage
		if start+count > total {
			count = total - start
		}
		if count < 0 {
			count = 0
		}

		stocks := make([]map[string]any, 0, count)
		for i := 0; i < count; i++ {
			articleID := fmt.Sprintf("article%04d", start+i)
			stocks = append(stocks, stockJSON(articleID, "タイトル", "Go"))
		}

		w.Header().Set("Total-Count", strconv.Itoa(total))
		json.NewEncoder(w).Encode(stocks)
	}))
	defer server.Close()

	client := NewClient(server.Client(), testLogger(), server.URL, 40)

	all, err := client.FetchAllStocks(context.Background(), "test-user")
	if err != nil {
		t.Fatalf("FetchAllStocks returned error: %v", err)
	}

	if len(all) != total {
		t.Errorf("len(all) = %d, want %d", len(all), total)
	}
	if all[0].ArticleID != "article0000" {
		t.Errorf("first ArticleID = %q", all[0].ArticleID)
	}
	if all[total-1].ArticleID != fmt.Sprintf("article%04d", total-1) {
		t.Errorf("last ArticleID = %q", all[total-1].ArticleID)
	}
}

// TestFetchAllStocks_UpstreamFailure は途中ページの失敗が全体の失敗になることを検証する。
func TestFetchAllStocks_UpstreamFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Total-Count", "150")
		stocks := make([]map[string]any, 0, 100)
		for i := 0; i < 100; i++ {
			stocks = append(stocks, stockJSON(fmt.Sprintf("article%04d", i), "タイトル"))
		}
		json.NewEncoder(w).Encode(stocks)
	}))
	defer server.Close()

	client := NewClient(server.Client(), testLogger(), server.URL, 0)

	_, err := client.FetchAllStocks(context.Background(), "test-user")
	if err == nil {
		t.Fatal("expected error when a page fetch fails, got nil")
	}
}

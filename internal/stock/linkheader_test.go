package stock

import "testing"

// TestBuildLinkHeader はLinkヘッダーの出力内容と順序を検証する。
func TestBuildLinkHeader(t *testing.T) {
	const base = "http://localhost:8080/stocks"

	tests := []struct {
		name       string
		page       int
		perPage    int
		totalCount int
		want       string
	}{
		{
			name:       "中間ページはnext・last・first・prevの順で出力する",
			page:       50,
			perPage:    2,
			totalCount: 101,
			want: `<http://localhost:8080/stocks?page=51&per_page=2>; rel="next", ` +
				`<http://localhost:8080/stocks?page=51&per_page=2>; rel="last", ` +
				`<http://localhost:8080/stocks?page=1&per_page=2>; rel="first", ` +
				`<http://localhost:8080/stocks?page=49&per_page=2>; rel="prev"`,
		},
		{
			name:       "先頭ページはnextとlastのみ",
			page:       1,
			perPage:    20,
			totalCount: 50,
			want: `<http://localhost:8080/stocks?page=2&per_page=20>; rel="next", ` +
				`<http://localhost:8080/stocks?page=3&per_page=20>; rel="last"`,
		},
		{
			name:       "最終ページはfirstとprevのみ",
			page:       3,
			perPage:    20,
			totalCount: 50,
			want: `<http://localhost:8080/stocks?page=1&per_page=20>; rel="first", ` +
				`<http://localhost:8080/stocks?page=2&per_page=20>; rel="prev"`,
		},
		{
			name:       "1ページで収まる場合はリンクなし",
			page:       1,
			perPage:    20,
			totalCount: 10,
			want:       "",
		},
		{
			name:       "0件の場合もリンクなし",
			page:       1,
			perPage:    20,
			totalCount: 0,
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildLinkHeader(base, tt.page, tt.perPage, tt.totalCount)
			if got != tt.want {
				t.Errorf("BuildLinkHeader() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

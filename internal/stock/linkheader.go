package stock

import (
	"fmt"
	"math"
	"strings"
)

// BuildLinkHeader はページネーション用のLinkヘッダー値を組み立てる。
// 次ページが存在する場合はnextとlast、前ページが存在する場合はfirstとprevを
// next、last、first、prevの固定順で出力する。該当するリンクがない場合は
// 空文字列を返す。
func BuildLinkHeader(baseURI string, page, perPage, totalCount int) string {
	totalPage := int(math.Ceil(float64(totalCount) / float64(perPage)))

	link := func(targetPage int, rel string) string {
		return fmt.Sprintf("<%s?page=%d&per_page=%d>; rel=\"%s\"", baseURI, targetPage, perPage, rel)
	}

	var links []string
	if page < totalPage {
		links = append(links, link(page+1, "next"))
		links = append(links, link(totalPage, "last"))
	}
	if page > 1 {
		links = append(links, link(1, "first"))
		links = append(links, link(page-1, "prev"))
	}

	return strings.Join(links, ", ")
}

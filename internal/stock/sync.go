package stock

import (
	"github.com/himrock922/qiita-stocker-backend/internal/model"
)

// BuildSyncPlan はリモートのストック一覧とローカル保存分を記事IDで突き合わせ、
// 適用すべき差分を計算する。リモート側をソース・オブ・トゥルースとし、
//   - リモートのみに存在 → 新規作成
//   - 両方に存在し本体フィールドに差分あり → 更新
//   - ローカルのみに存在 → 削除
// とする。両方に存在するストックのタグは本体の変更有無とは独立に
// 集合差分で突き合わせる。副作用を持たない純粋な計算であり、
// 計画の適用はStockRepository.ApplySyncPlanが行う。
func BuildSyncPlan(local []*model.Stock, remote []model.StockValue) *model.StockSyncPlan {
	plan := &model.StockSyncPlan{}

	localByArticleID := make(map[string]*model.Stock, len(local))
	for _, s := range local {
		localByArticleID[s.ArticleID] = s
	}

	remoteArticleIDs := make(map[string]struct{}, len(remote))
	for _, value := range remote {
		remoteArticleIDs[value.ArticleID] = struct{}{}

		existing, ok := localByArticleID[value.ArticleID]
		if !ok {
			plan.Inserts = append(plan.Inserts, value)
			continue
		}

		if !existing.BodyEquals(value) {
			plan.Updates = append(plan.Updates, model.StockUpdate{
				StockID: existing.ID,
				Value:   value,
			})
		}

		inserts, deletes := diffTags(existing, value.Tags)
		plan.TagInserts = append(plan.TagInserts, inserts...)
		plan.TagDeletes = append(plan.TagDeletes, deletes...)
	}

	for _, s := range local {
		if _, ok := remoteArticleIDs[s.ArticleID]; !ok {
			plan.DeleteStockIDs = append(plan.DeleteStockIDs, s.ID)
		}
	}

	return plan
}

// diffTags は既存ストックのタグ集合とリモートのタグ集合の差分を返す。
func diffTags(existing *model.Stock, remoteTags []string) (inserts, deletes []model.StockTagChange) {
	current := make(map[string]struct{}, len(existing.Tags))
	for _, name := range existing.Tags {
		current[name] = struct{}{}
	}

	desired := make(map[string]struct{}, len(remoteTags))
	for _, name := range remoteTags {
		if _, ok := desired[name]; ok {
			continue
		}
		desired[name] = struct{}{}
		if _, ok := current[name]; !ok {
			inserts = append(inserts, model.StockTagChange{StockID: existing.ID, Name: name})
		}
	}

	for _, name := range existing.Tags {
		if _, ok := desired[name]; !ok {
			deletes = append(deletes, model.StockTagChange{StockID: existing.ID, Name: name})
		}
	}

	return inserts, deletes
}

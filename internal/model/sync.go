// Package model はドメインモデルを定義する。
package model

// StockSyncPlan はリモートのストック一覧とローカル保存分の差分を表す。
// 計画の適用は1トランザクションで行われ、部分適用は観測されない。
type StockSyncPlan struct {
	// Inserts はリモートにのみ存在するストック。タグも含めて新規作成する。
	Inserts []StockValue
	// Updates は両方に存在し本体フィールドに差分があるストック。
	Updates []StockUpdate
	// DeleteStockIDs はローカルにのみ存在するストックのID。タグはカスケード削除される。
	DeleteStockIDs []string
	// TagInserts は既存ストックに追加するタグ。
	TagInserts []StockTagChange
	// TagDeletes は既存ストックから削除するタグ。
	TagDeletes []StockTagChange
}

// StockUpdate は既存ストック1件の本体更新を表す。
type StockUpdate struct {
	StockID string
	Value   StockValue
}

// StockTagChange は既存ストック1件に対するタグの追加または削除を表す。
type StockTagChange struct {
	StockID string
	Name    string
}

// IsEmpty は適用すべき変更が1つもないかどうかを返す。
func (p *StockSyncPlan) IsEmpty() bool {
	return len(p.Inserts) == 0 &&
		len(p.Updates) == 0 &&
		len(p.DeleteStockIDs) == 0 &&
		len(p.TagInserts) == 0 &&
		len(p.TagDeletes) == 0
}

package ingest

import "context"

// Store 食譜儲存層；Save 以 ID 為鍵，已存在時回傳 created=false 且不覆寫
type Store interface {
	Save(ctx context.Context, r *StoredRecipe) (created bool, err error)
	Get(ctx context.Context, id string) (*StoredRecipe, error)
	// List 依 ID 排序分頁列出，超出範圍時回傳空切片
	List(ctx context.Context, offset, limit int) ([]*StoredRecipe, error)
	Ping(ctx context.Context) error
	Close() error
}

// Indexer 搜尋索引
type Indexer interface {
	Index(ctx context.Context, r *StoredRecipe) error
}

// Page 把 offset/limit 夾在 [0, n] 內，回傳切片範圍
func Page(n, offset, limit int) (lo, hi int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	if limit < 0 {
		limit = 0
	}
	hi = offset + limit
	if hi > n || hi < offset {
		hi = n
	}
	return offset, hi
}

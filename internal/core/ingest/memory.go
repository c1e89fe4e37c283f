package ingest

import (
	"context"
	"sort"
	"sync"
	"time"

	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

const memoryBackend = "memory"

// MemoryStore 記憶體儲存，供單機與測試使用
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]*StoredRecipe
	stats memoryStats
}

type memoryStats struct {
	saves      int64
	duplicates int64
	hits       int64
	misses     int64
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore() *MemoryStore {
	common.LogInfo("記憶體儲存已初始化")
	return &MemoryStore{store: make(map[string]*StoredRecipe)}
}

// Save 儲存食譜，ID 已存在時不覆寫
func (m *MemoryStore) Save(ctx context.Context, r *StoredRecipe) (bool, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		common.LogStoreCall(memoryBackend, "save", time.Since(start), err)
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[r.ID]; exists {
		m.stats.duplicates++
		common.LogDebug("食譜已存在", zap.String("id", r.ID))
		return false, nil
	}

	m.store[r.ID] = r.Clone()
	m.stats.saves++
	common.LogStoreCall(memoryBackend, "save", time.Since(start), nil)
	return true, nil
}

// Get 取得食譜
func (m *MemoryStore) Get(ctx context.Context, id string) (*StoredRecipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store[id]
	if !ok {
		m.stats.misses++
		return nil, ErrNotFound
	}
	m.stats.hits++
	return r.Clone(), nil
}

// List 依 ID 排序分頁列出
func (m *MemoryStore) List(ctx context.Context, offset, limit int) ([]*StoredRecipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.store))
	for id := range m.store {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lo, hi := Page(len(ids), offset, limit)
	out := make([]*StoredRecipe, 0, hi-lo)
	for _, id := range ids[lo:hi] {
		out = append(out, m.store[id].Clone())
	}
	return out, nil
}

// Ping 記憶體儲存永遠可用
func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len 目前筆數
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// GetStats 獲取統計信息
func (m *MemoryStore) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"size":       len(m.store),
		"saves":      m.stats.saves,
		"duplicates": m.stats.duplicates,
		"hits":       m.stats.hits,
		"misses":     m.stats.misses,
	}
}

// Close 清空儲存
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]*StoredRecipe)
	common.LogInfo("記憶體儲存已關閉",
		zap.Int64("寫入次數", m.stats.saves),
		zap.Int64("重複次數", m.stats.duplicates),
	)
	return nil
}

// Package search 把已寫入的食譜同步到 OpenSearch 索引
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"recipe-extractor/internal/core/ingest"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"go.uber.org/zap"
)

const (
	maxSingleIngredientName = 100
	defaultSyncPageSize     = 1000
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "uuid":         {"type": "keyword"},
      "title":        {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "description":  {"type": "text"},
      "ingredients": {
        "type": "nested",
        "properties": {
          "name":     {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
          "quantity": {"type": "float"},
          "unit":     {"type": "keyword"},
          "notes":    {"type": "text"}
        }
      },
      "difficulty":   {"type": "keyword"},
      "cuisine_type": {"type": "keyword"},
      "meal_type":    {"type": "keyword"},
      "dietary_tags": {"type": "keyword"},
      "source":       {"type": "keyword"},
      "created_at":   {"type": "date"}
    }
  }
}`

// Source 可分頁列出已儲存食譜的來源
type Source interface {
	List(ctx context.Context, offset, limit int) ([]*ingest.StoredRecipe, error)
}

// Ingredient 索引文件中的食材
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     *string  `json:"unit,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
}

// Document 索引文件
type Document struct {
	UUID        string       `json:"uuid"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
	Difficulty  *string      `json:"difficulty,omitempty"`
	CuisineType *string      `json:"cuisine_type,omitempty"`
	MealType    *string      `json:"meal_type,omitempty"`
	DietaryTags []string     `json:"dietary_tags,omitempty"`
	Source      string       `json:"source"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewDocument 由儲存的食譜建立索引文件
func NewDocument(r *ingest.StoredRecipe) Document {
	ings := make([]Ingredient, 0, len(r.Ingredients))
	for _, it := range r.Ingredients {
		ings = append(ings, Ingredient{Name: it.Item, Quantity: it.Quantity, Unit: it.Unit, Notes: it.Notes})
	}
	return Document{
		UUID:        r.ID,
		Title:       r.Title,
		Description: r.Description,
		Ingredients: ings,
		Difficulty:  r.Difficulty,
		CuisineType: r.Cuisine,
		MealType:    r.MealType,
		DietaryTags: r.DietaryTags,
		Source:      r.Source,
		CreatedAt:   r.CreatedAt,
	}
}

// MalformedReason 不應進索引的食譜回傳原因，正常時回傳空字串
func MalformedReason(r *ingest.StoredRecipe) string {
	switch {
	case len(r.Ingredients) == 0:
		return "no ingredients"
	case r.HasPlaceholderInstructions():
		return "placeholder instructions"
	case len(r.Ingredients) == 1 && utf8.RuneCountInString(r.Ingredients[0].Item) > maxSingleIngredientName:
		return "single oversized ingredient"
	}
	return ""
}

// Stats 同步統計
type Stats struct {
	Indexed int64 `json:"indexed"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

// Indexer OpenSearch 索引同步
type Indexer struct {
	client *opensearch.Client
	index  string
	stats  Stats
}

// New 創建索引同步器
func New(cfg config.SearchConfig) (*Indexer, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}
	index := cfg.Index
	if index == "" {
		index = "recipes"
	}
	return &Indexer{client: client, index: index}, nil
}

// Index 寫入單筆；格式不良的食譜略過並計數，不回傳錯誤
func (i *Indexer) Index(ctx context.Context, r *ingest.StoredRecipe) error {
	if reason := MalformedReason(r); reason != "" {
		atomic.AddInt64(&i.stats.Skipped, 1)
		common.LogWarn("略過格式不良的食譜", zap.String("id", r.ID), zap.String("reason", reason))
		return nil
	}

	start := time.Now()
	err := i.put(ctx, r)
	common.LogStoreCall("opensearch", "index", time.Since(start), err)
	if err != nil {
		atomic.AddInt64(&i.stats.Failed, 1)
		return err
	}
	atomic.AddInt64(&i.stats.Indexed, 1)
	return nil
}

func (i *Indexer) put(ctx context.Context, r *ingest.StoredRecipe) error {
	body, err := json.Marshal(NewDocument(r))
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      i.index,
		DocumentID: r.ID,
		Body:       bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("opensearch returned %s: %s", resp.Status(), string(msg))
	}
	return nil
}

// Sync 逐筆寫入，遇到錯誤時繼續處理其餘食譜並回傳第一個錯誤
func (i *Indexer) Sync(ctx context.Context, recipes []*ingest.StoredRecipe) error {
	var first error
	for _, r := range recipes {
		if err := i.Index(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	s := i.Stats()
	common.LogInfo("索引同步完成",
		zap.Int64("indexed", s.Indexed),
		zap.Int64("skipped", s.Skipped),
		zap.Int64("failed", s.Failed),
	)
	return first
}

// EnsureIndex 索引不存在時以預設映射建立
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	exists, err := opensearchapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	resp, err := opensearchapi.IndicesCreateRequest{
		Index: i.index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("opensearch returned %s: %s", resp.Status(), string(msg))
	}
	common.LogInfo("索引已建立", zap.String("index", i.index))
	return nil
}

// DeleteIndex 刪除索引；不存在不算錯誤
func (i *Indexer) DeleteIndex(ctx context.Context) error {
	resp, err := opensearchapi.IndicesDeleteRequest{Index: []string{i.index}}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() && resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("opensearch returned %s: %s", resp.Status(), string(msg))
	}
	common.LogInfo("索引已刪除", zap.String("index", i.index))
	return nil
}

// SyncStore 分頁讀取儲存層並逐頁寫入索引；單筆失敗不中斷，回傳讀取筆數與第一個錯誤
func (i *Indexer) SyncStore(ctx context.Context, src Source, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = defaultSyncPageSize
	}

	var (
		total int
		first error
	)
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		page, err := src.List(ctx, offset, pageSize)
		if err != nil {
			return total, fmt.Errorf("failed to list recipes at offset %d: %w", offset, err)
		}
		total += len(page)
		if len(page) > 0 {
			if err := i.Sync(ctx, page); err != nil && first == nil {
				first = err
			}
		}
		if len(page) < pageSize {
			break
		}
	}
	return total, first
}

// Stats 獲取統計信息
func (i *Indexer) Stats() Stats {
	return Stats{
		Indexed: atomic.LoadInt64(&i.stats.Indexed),
		Skipped: atomic.LoadInt64(&i.stats.Skipped),
		Failed:  atomic.LoadInt64(&i.stats.Failed),
	}
}

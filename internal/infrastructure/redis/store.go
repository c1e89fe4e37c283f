// Package redis 以 Redis 鍵值儲存食譜，SETNX 保證同一識別碼只寫入一次
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"recipe-extractor/internal/core/ingest"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	goredis "github.com/go-redis/redis/v8"
)

const (
	backend   = "redis"
	scanCount = 200
)

// client Store 用到的 redis 指令
type client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	MGet(ctx context.Context, keys ...string) *goredis.SliceCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *goredis.ScanCmd
	Ping(ctx context.Context) *goredis.StatusCmd
	Close() error
}

// Store Redis 食譜儲存
type Store struct {
	client client
	prefix string
}

// New 連線並檢查 Redis
func New(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	c := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 儲存已連線")
	return newStore(c, cfg.KeyPrefix), nil
}

func newStore(c client, prefix string) *Store {
	return &Store{client: c, prefix: prefix}
}

// Save 以 SETNX 寫入；鍵已存在時回傳 false
func (s *Store) Save(ctx context.Context, r *ingest.StoredRecipe) (bool, error) {
	start := time.Now()
	created, err := s.save(ctx, r)
	common.LogStoreCall(backend, "save", time.Since(start), err)
	return created, err
}

func (s *Store) save(ctx context.Context, r *ingest.StoredRecipe) (bool, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("failed to marshal recipe: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(r.ID), data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set recipe: %w", err)
	}
	return ok, nil
}

// Get 取得食譜
func (s *Store) Get(ctx context.Context, id string) (*ingest.StoredRecipe, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ingest.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	var r ingest.StoredRecipe
	if err := common.ParseJSONBytes(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}
	return &r, nil
}

// List 以 SCAN 收集前綴下的鍵，排序後分頁再以 MGET 取值
func (s *Store) List(ctx context.Context, offset, limit int) ([]*ingest.StoredRecipe, error) {
	start := time.Now()
	out, err := s.list(ctx, offset, limit)
	common.LogStoreCall(backend, "list", time.Since(start), err)
	return out, err
}

func (s *Store) list(ctx context.Context, offset, limit int) ([]*ingest.StoredRecipe, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		page, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipes: %w", err)
		}
		keys = append(keys, page...)
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(keys)
	keys = dedupe(keys)

	lo, hi := ingest.Page(len(keys), offset, limit)
	if lo == hi {
		return []*ingest.StoredRecipe{}, nil
	}

	values, err := s.client.MGet(ctx, keys[lo:hi]...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes: %w", err)
	}

	out := make([]*ingest.StoredRecipe, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// 掃描後被刪除
			continue
		}
		var r ingest.StoredRecipe
		if err := common.ParseJSON(str, &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipe %s: %w", keys[lo+i], err)
		}
		out = append(out, &r)
	}
	return out, nil
}

// dedupe SCAN 可能重複回傳同一個鍵；輸入需已排序
func dedupe(keys []string) []string {
	out := keys[:0]
	for _, k := range keys {
		if len(out) > 0 && out[len(out)-1] == k {
			continue
		}
		out = append(out, k)
	}
	return out
}

// Ping 檢查連線
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 關閉連線
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

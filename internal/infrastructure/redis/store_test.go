package redis

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"recipe-extractor/internal/core/ingest"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient 以 map 模擬 redis 指令
type fakeClient struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: map[string]string{}}
}

func (f *fakeClient) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *goredis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return goredis.NewBoolResult(false, f.err)
	}
	if _, ok := f.data[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	f.data[key] = string(value.([]byte))
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeClient) Get(_ context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeClient) MGet(_ context.Context, keys ...string) *goredis.SliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return goredis.NewSliceResult(nil, f.err)
	}
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		if v, ok := f.data[k]; ok {
			out[i] = v
		}
	}
	return goredis.NewSliceResult(out, nil)
}

// Scan 每次回傳兩個鍵，並重複回傳第一個鍵以模擬 SCAN 的重複結果
func (f *fakeClient) Scan(_ context.Context, cursor uint64, match string, _ int64) *goredis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return goredis.NewScanCmdResult(nil, 0, f.err)
	}
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := int(cursor)
	if start >= len(keys) {
		return goredis.NewScanCmdResult(nil, 0, nil)
	}
	end := start + 2
	if end >= len(keys) {
		end = len(keys)
	}
	page := append([]string{}, keys[start:end]...)
	if start == 0 {
		page = append(page, keys[0])
	}
	next := uint64(end)
	if end == len(keys) {
		next = 0
	}
	return goredis.NewScanCmdResult(page, next, nil)
}

func (f *fakeClient) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", f.err)
}

func (f *fakeClient) Close() error { return nil }

func TestStoreSaveAndGet(t *testing.T) {
	fc := newFakeClient()
	s := newStore(fc, "recipe:")
	ctx := context.Background()
	r := &ingest.StoredRecipe{ID: "abc", Title: "Soup", Instructions: []string{"Boil."}}

	created, err := s.Save(ctx, r)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, fc.data, "recipe:abc")

	created, err = s.Save(ctx, r)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Title)
	assert.Equal(t, []string{"Boil."}, got.Instructions)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ingest.ErrNotFound)
	assert.NoError(t, s.Ping(ctx))
}

func TestStoreErrors(t *testing.T) {
	fc := newFakeClient()
	fc.err = errors.New("connection refused")
	s := newStore(fc, "")

	_, err := s.Save(context.Background(), &ingest.StoredRecipe{ID: "x"})
	assert.ErrorContains(t, err, "connection refused")
	_, err = s.Get(context.Background(), "x")
	assert.ErrorContains(t, err, "connection refused")
	assert.NotErrorIs(t, err, ingest.ErrNotFound)
	assert.Error(t, s.Ping(context.Background()))
}

func TestStoreList(t *testing.T) {
	fc := newFakeClient()
	s := newStore(fc, "recipe:")
	ctx := context.Background()
	for _, id := range []string{"d", "b", "a", "c", "e"} {
		_, err := s.Save(ctx, &ingest.StoredRecipe{ID: id, Title: "T" + id})
		require.NoError(t, err)
	}
	fc.data["other:z"] = "not a recipe"

	page, err := s.List(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "a", page[0].ID)
	assert.Equal(t, "c", page[2].ID)
	assert.Equal(t, "Ta", page[0].Title)

	page, err = s.List(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "e", page[1].ID)

	page, err = s.List(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, page)

	fc.err = errors.New("connection refused")
	_, err = s.List(ctx, 0, 3)
	assert.ErrorContains(t, err, "failed to scan recipes")
}

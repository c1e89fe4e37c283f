package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"recipe-extractor/internal/core/extract"
	"recipe-extractor/internal/core/ingest"
	"recipe-extractor/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu     sync.Mutex
	paths  []string
	docs   []Document
	bodies []string
}

func newTestIndexer(t *testing.T, status int) (*Indexer, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.paths = append(c.paths, r.Method+" "+r.URL.Path)
		var d Document
		_ = json.NewDecoder(r.Body).Decode(&d)
		c.docs = append(c.docs, d)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(srv.Close)

	ix, err := New(config.SearchConfig{Addresses: []string{srv.URL}, Index: "recipes-test"})
	require.NoError(t, err)
	return ix, c
}

func good(id string) *ingest.StoredRecipe {
	q := 2.0
	return &ingest.StoredRecipe{
		ID:           id,
		Title:        "Chili",
		Source:       "reddit:x",
		Ingredients:  []ingest.StoredIngredient{{Item: "beans", Amount: "2 cans", Quantity: &q}, {Item: "onion", Amount: "1"}},
		Instructions: []string{"Simmer."},
	}
}

func TestIndex(t *testing.T) {
	ix, c := newTestIndexer(t, http.StatusCreated)

	require.NoError(t, ix.Index(context.Background(), good("id-1")))

	require.Len(t, c.paths, 1)
	assert.Equal(t, "PUT /recipes-test/_doc/id-1", c.paths[0])
	assert.Equal(t, "id-1", c.docs[0].UUID)
	require.Len(t, c.docs[0].Ingredients, 2)
	assert.Equal(t, "beans", c.docs[0].Ingredients[0].Name)
	assert.Equal(t, int64(1), ix.Stats().Indexed)
}

func TestIndexSkipsMalformed(t *testing.T) {
	ix, c := newTestIndexer(t, http.StatusCreated)

	placeholder := good("id-2")
	placeholder.Instructions = ingest.InstructionStrings([]extract.InstructionRecord{extract.PlaceholderInstruction()})
	oversized := good("id-3")
	oversized.Ingredients = []ingest.StoredIngredient{{Item: strings.Repeat("x", 101)}}
	empty := good("id-4")
	empty.Ingredients = nil

	require.NoError(t, ix.Sync(context.Background(), []*ingest.StoredRecipe{placeholder, oversized, empty, good("id-5")}))

	assert.Len(t, c.paths, 1)
	assert.Equal(t, Stats{Indexed: 1, Skipped: 3}, ix.Stats())
}

func TestIndexError(t *testing.T) {
	ix, _ := newTestIndexer(t, http.StatusBadRequest)

	err := ix.Index(context.Background(), good("id-6"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int64(1), ix.Stats().Failed)
}

func TestMalformedReason(t *testing.T) {
	assert.Empty(t, MalformedReason(good("a")))
	assert.Equal(t, "no ingredients", MalformedReason(&ingest.StoredRecipe{}))
}

// pagedSource 依 ID 順序分頁的記憶體來源
type pagedSource struct {
	recipes []*ingest.StoredRecipe
	calls   []int
	err     error
}

func (p *pagedSource) List(_ context.Context, offset, limit int) ([]*ingest.StoredRecipe, error) {
	p.calls = append(p.calls, offset)
	if p.err != nil {
		return nil, p.err
	}
	lo, hi := ingest.Page(len(p.recipes), offset, limit)
	return p.recipes[lo:hi], nil
}

func TestSyncStorePagesThroughSource(t *testing.T) {
	ix, c := newTestIndexer(t, http.StatusCreated)
	bad := good("id-3")
	bad.Ingredients = nil
	src := &pagedSource{recipes: []*ingest.StoredRecipe{good("id-1"), good("id-2"), bad, good("id-4"), good("id-5")}}

	n, err := ix.SyncStore(context.Background(), src, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Equal(t, []int{0, 2, 4}, src.calls)
	assert.Equal(t, Stats{Indexed: 4, Skipped: 1}, ix.Stats())
	assert.Len(t, c.paths, 4)
	assert.Equal(t, "PUT /recipes-test/_doc/id-5", c.paths[3])
}

func TestSyncStoreExactPageBoundary(t *testing.T) {
	ix, _ := newTestIndexer(t, http.StatusCreated)
	src := &pagedSource{recipes: []*ingest.StoredRecipe{good("id-1"), good("id-2")}}

	n, err := ix.SyncStore(context.Background(), src, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{0, 2}, src.calls)
}

func TestSyncStoreErrors(t *testing.T) {
	ix, _ := newTestIndexer(t, http.StatusInternalServerError)
	src := &pagedSource{recipes: []*ingest.StoredRecipe{good("id-1"), good("id-2"), good("id-3")}}

	n, err := ix.SyncStore(context.Background(), src, 0)
	require.Error(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(3), ix.Stats().Failed)

	_, err = ix.SyncStore(context.Background(), &pagedSource{err: errors.New("db down")}, 10)
	assert.ErrorContains(t, err, "db down")
}

func newIndexAdminServer(t *testing.T, existing bool) (*Indexer, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.paths = append(c.paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead && !existing, r.Method == http.MethodDelete && !existing:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"index_not_found_exception"}`))
		default:
			if r.Method == http.MethodPut {
				body, _ := io.ReadAll(r.Body)
				c.bodies = append(c.bodies, string(body))
			}
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		}
	}))
	t.Cleanup(srv.Close)

	ix, err := New(config.SearchConfig{Addresses: []string{srv.URL}, Index: "recipes-test"})
	require.NoError(t, err)
	return ix, c
}

func TestEnsureIndex(t *testing.T) {
	ix, c := newIndexAdminServer(t, false)
	require.NoError(t, ix.EnsureIndex(context.Background()))
	assert.Equal(t, []string{"HEAD /recipes-test", "PUT /recipes-test"}, c.paths)
	require.Len(t, c.bodies, 1)
	assert.Contains(t, c.bodies[0], `"nested"`)

	ix, c = newIndexAdminServer(t, true)
	require.NoError(t, ix.EnsureIndex(context.Background()))
	assert.Equal(t, []string{"HEAD /recipes-test"}, c.paths)
}

func TestDeleteIndexIgnoresMissing(t *testing.T) {
	ix, c := newIndexAdminServer(t, false)
	require.NoError(t, ix.DeleteIndex(context.Background()))
	assert.Equal(t, []string{"DELETE /recipes-test"}, c.paths)
}

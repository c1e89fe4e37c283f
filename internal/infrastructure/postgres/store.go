// Package postgres 以 PostgreSQL 儲存食譜
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recipe-extractor/internal/core/ingest"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const backend = "postgres"

//go:embed schema.sql
var schema string

// queryExecutor pgxpool.Pool 用到的方法
type queryExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

const insertSQL = `
	INSERT INTO recipes (id, source, title, description, ingredients, instructions,
	                     prep_time, cook_time, chill_time, pan_size,
	                     difficulty, cuisine, meal_type, dietary_tags, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (id) DO NOTHING`

const selectSQL = `
	SELECT id, source, title, description, ingredients, instructions,
	       prep_time, cook_time, chill_time, pan_size,
	       difficulty, cuisine, meal_type, dietary_tags, created_at
	FROM recipes WHERE id = $1`

// 欄位名稱與 StoredRecipe 的 JSON 標籤一致，整頁以單一 JSON 陣列回傳
const listSQL = `
	SELECT COALESCE(json_agg(p ORDER BY p.id), '[]'::json)
	FROM (
		SELECT id, source, title, description, ingredients, instructions,
		       prep_time, cook_time, chill_time, pan_size,
		       difficulty, cuisine, meal_type, dietary_tags, created_at
		FROM recipes ORDER BY id OFFSET $1 LIMIT $2
	) p`

// Store PostgreSQL 食譜儲存
type Store struct {
	db queryExecutor
}

// New 建立連線池並套用資料表定義
func New(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &Store{db: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	common.LogInfo("Postgres 儲存已連線")
	return s, nil
}

// Migrate 建立資料表
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Save 寫入食譜，識別碼衝突時不覆寫
func (s *Store) Save(ctx context.Context, r *ingest.StoredRecipe) (bool, error) {
	start := time.Now()
	created, err := s.save(ctx, r)
	common.LogStoreCall(backend, "save", time.Since(start), err)
	return created, err
}

func (s *Store) save(ctx context.Context, r *ingest.StoredRecipe) (bool, error) {
	ingredients, err := json.Marshal(r.Ingredients)
	if err != nil {
		return false, fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	instructions, err := json.Marshal(r.Instructions)
	if err != nil {
		return false, fmt.Errorf("failed to marshal instructions: %w", err)
	}
	tags := r.DietaryTags
	if tags == nil {
		tags = []string{}
	}
	dietary, err := json.Marshal(tags)
	if err != nil {
		return false, fmt.Errorf("failed to marshal dietary tags: %w", err)
	}

	tag, err := s.db.Exec(ctx, insertSQL,
		r.ID, r.Source, r.Title, r.Description, ingredients, instructions,
		r.PrepTime, r.CookTime, r.ChillTime, r.PanSize,
		r.Difficulty, r.Cuisine, r.MealType, dietary, r.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert recipe: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get 取得食譜
func (s *Store) Get(ctx context.Context, id string) (*ingest.StoredRecipe, error) {
	var (
		r                              ingest.StoredRecipe
		ingredients, steps, dietaryRaw []byte
	)
	err := s.db.QueryRow(ctx, selectSQL, id).Scan(
		&r.ID, &r.Source, &r.Title, &r.Description, &ingredients, &steps,
		&r.PrepTime, &r.CookTime, &r.ChillTime, &r.PanSize,
		&r.Difficulty, &r.Cuisine, &r.MealType, &dietaryRaw, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingest.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe: %w", err)
	}

	if err := json.Unmarshal(ingredients, &r.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}
	if err := json.Unmarshal(steps, &r.Instructions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instructions: %w", err)
	}
	if len(dietaryRaw) > 0 {
		if err := json.Unmarshal(dietaryRaw, &r.DietaryTags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dietary tags: %w", err)
		}
	}
	if len(r.DietaryTags) == 0 {
		r.DietaryTags = nil
	}
	return &r, nil
}

// List 依 ID 排序分頁列出
func (s *Store) List(ctx context.Context, offset, limit int) ([]*ingest.StoredRecipe, error) {
	start := time.Now()
	out, err := s.list(ctx, offset, limit)
	common.LogStoreCall(backend, "list", time.Since(start), err)
	return out, err
}

func (s *Store) list(ctx context.Context, offset, limit int) ([]*ingest.StoredRecipe, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []*ingest.StoredRecipe{}, nil
	}

	var raw []byte
	if err := s.db.QueryRow(ctx, listSQL, offset, limit).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	var out []*ingest.StoredRecipe
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipes: %w", err)
	}
	for _, r := range out {
		if len(r.DietaryTags) == 0 {
			r.DietaryTags = nil
		}
	}
	if out == nil {
		out = []*ingest.StoredRecipe{}
	}
	return out, nil
}

// Ping 檢查連線
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close 關閉連線池
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

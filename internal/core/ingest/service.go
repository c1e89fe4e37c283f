package ingest

import (
	"context"
	"errors"
	"time"

	"recipe-extractor/internal/core/extract"
	"recipe-extractor/internal/core/identity"
	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultMinIngredients 寫入所需的最少有效食材數
const DefaultMinIngredients = 2

// Config 寫入設定
type Config struct {
	MinIngredients int
	MaxItemLength  int
	IndexOnSave    bool
}

// Result 寫入結果
type Result struct {
	ID            string        `json:"id"`
	AlreadyExists bool          `json:"already_exists"`
	Valid         int           `json:"valid"`
	Skipped       int           `json:"skipped"`
	Total         int           `json:"total"`
	Recipe        *StoredRecipe `json:"recipe,omitempty"`
}

// Option 服務選項
type Option func(*Service)

// WithIndexer 寫入新食譜後同步建立索引
func WithIndexer(ix Indexer) Option {
	return func(s *Service) { s.indexer = ix }
}

// WithClock 替換時間來源
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service 寫入服務
type Service struct {
	store   Store
	indexer Indexer
	filter  *extract.Filter
	cfg     Config
	now     func() time.Time
}

// NewService 創建寫入服務
func NewService(store Store, cfg Config, opts ...Option) *Service {
	if cfg.MinIngredients <= 0 {
		cfg.MinIngredients = DefaultMinIngredients
	}
	s := &Service{
		store:  store,
		filter: extract.NewFilter(nil),
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare 修正、過濾並轉成待寫入的食譜；有效食材不足時回傳 InsufficientIngredientsError
func (s *Service) Prepare(rec extract.RecipeRecord, source string) (*StoredRecipe, *Result, error) {
	total := len(rec.Ingredients)
	repaired, skipped := Repair(rec.Ingredients, s.cfg.MaxItemLength)
	kept, dropped := s.filter.Strict(repaired)
	skipped += dropped

	res := &Result{Valid: len(kept), Skipped: skipped, Total: total}
	if len(kept) < s.cfg.MinIngredients {
		common.LogWarn("有效食材不足，拒絕寫入",
			zap.String("title", rec.Title),
			zap.String("source", source),
			zap.Int("valid", res.Valid),
			zap.Int("skipped", res.Skipped),
			zap.Int("total", res.Total),
		)
		return nil, res, &InsufficientIngredientsError{Valid: res.Valid, Skipped: res.Skipped, Total: res.Total}
	}

	ingredients := make([]StoredIngredient, 0, len(kept))
	for _, it := range kept {
		ingredients = append(ingredients, NormalizeIngredient(it))
	}

	stored := &StoredRecipe{
		ID:           identity.Generate(rec.Title, source),
		Source:       source,
		Title:        rec.Title,
		Description:  rec.Description,
		Ingredients:  ingredients,
		Instructions: InstructionStrings(rec.Instructions),
		PrepTime:     rec.PrepTime,
		CookTime:     rec.CookTime,
		ChillTime:    rec.ChillTime,
		PanSize:      rec.PanSize,
		Difficulty:   enumPtr(rec.Difficulty),
		Cuisine:      rec.Cuisine,
		MealType:     enumPtr(rec.MealType),
		DietaryTags:  append([]string(nil), rec.DietaryTags...),
		CreatedAt:    s.now().UTC(),
	}
	res.ID = stored.ID
	return stored, res, nil
}

// Ingest 寫入食譜；同一 ID 重複寫入時 AlreadyExists 為 true
func (s *Service) Ingest(ctx context.Context, rec extract.RecipeRecord, source string) (*Result, error) {
	stored, res, err := s.Prepare(rec, source)
	if err != nil {
		return nil, err
	}

	created, err := s.store.Save(ctx, stored)
	if err != nil {
		return nil, common.ErrStoreError.Wrap(err)
	}
	res.AlreadyExists = !created
	res.Recipe = stored

	if created && s.cfg.IndexOnSave && s.indexer != nil {
		if err := s.indexer.Index(ctx, stored); err != nil {
			common.LogWarn("建立索引失敗", zap.String("id", stored.ID), zap.Error(err))
		}
	}

	common.LogInfo("食譜已寫入",
		zap.String("id", stored.ID),
		zap.Bool("already_exists", res.AlreadyExists),
		zap.Int("valid", res.Valid),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// Get 依 ID 取得食譜
func (s *Service) Get(ctx context.Context, id string) (*StoredRecipe, error) {
	if !identity.Valid(id) {
		return nil, common.NewValidationError("invalid recipe id")
	}
	r, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, common.ErrNotFound.Wrap(err)
	}
	if err != nil {
		return nil, common.ErrStoreError.Wrap(err)
	}
	return r, nil
}

// Ping 檢查儲存層
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Package app 依設定組裝擷取、寫入、批次與外部依賴
package app

import (
	"context"
	"errors"
	"fmt"

	"recipe-extractor/internal/core/batch"
	"recipe-extractor/internal/core/extract"
	"recipe-extractor/internal/core/ingest"
	"recipe-extractor/internal/core/llm"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/infrastructure/metrics"
	"recipe-extractor/internal/infrastructure/postgres"
	"recipe-extractor/internal/infrastructure/redis"
	"recipe-extractor/internal/infrastructure/search"
	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

// App 組裝完成的服務
type App struct {
	Config    *config.Config
	Extractor *extract.Extractor
	Store     ingest.Store
	Ingest    *ingest.Service
	Indexer   *search.Indexer
	LLM       *llm.Extractor
	Batch     *batch.Manager
	Metrics   *metrics.Metrics

	provider llm.Provider
}

// New 依設定建立所有元件；失敗時已建立的連線會被關閉
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:  cfg,
		Metrics: metrics.New(),
		Extractor: extract.New(extract.WithLimits(extract.SegmenterConfig{
			MaxIngredients:  cfg.Extract.MaxIngredients,
			MaxInstructions: cfg.Extract.MaxInstructions,
			LenientMax:      cfg.Extract.LenientMax,
		})),
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store

	var opts []ingest.Option
	if cfg.Search.Enabled {
		ix, err := search.New(cfg.Search)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create search indexer: %w", err)
		}
		a.Indexer = ix
		opts = append(opts, ingest.WithIndexer(ix))
	}

	a.Ingest = ingest.NewService(store, ingest.Config{
		MinIngredients: cfg.Ingest.MinIngredients,
		MaxItemLength:  cfg.Ingest.MaxItemLength,
		IndexOnSave:    cfg.Ingest.IndexOnSave,
	}, opts...)

	if cfg.OpenRouter.Enabled {
		a.provider = llm.NewOpenRouter(cfg.OpenRouter)
		a.LLM = llm.NewExtractor(a.provider, cfg.Ingest.MaxItemLength)
	}

	a.Batch = batch.NewManager(batch.Config{
		Workers:      cfg.Queue.Workers,
		MaxSize:      cfg.Queue.MaxSize,
		MaxRetries:   cfg.Queue.MaxRetries,
		RetryBackoff: cfg.Queue.RetryBackoff,
	}, a.Extractor, a.Ingest, batch.WithRecorder(a.Metrics))

	common.LogInfo("Services initialized",
		zap.String("store", cfg.Ingest.Store),
		zap.Bool("search_enabled", a.Indexer != nil),
		zap.Bool("llm_enabled", a.LLM != nil),
		zap.Int("queue_workers", cfg.Queue.Workers),
	)
	return a, nil
}

// OpenStore 依 ingest.store 開啟儲存後端
func OpenStore(ctx context.Context, cfg *config.Config) (ingest.Store, error) {
	switch cfg.Ingest.Store {
	case config.StoreMemory, "":
		return ingest.NewMemoryStore(), nil
	case config.StoreRedis:
		s, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		return s, nil
	case config.StorePostgres:
		s, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown ingest store %q", cfg.Ingest.Store)
	}
}

// Close 依建立的反向順序釋放資源
func (a *App) Close() error {
	var errs []error
	if a.Batch != nil {
		a.Batch.Close()
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

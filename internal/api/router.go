package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"recipe-extractor/internal/api/handlers/health"
	recipeHandler "recipe-extractor/internal/api/handlers/recipe"
	"recipe-extractor/internal/api/middleware"
	"recipe-extractor/internal/core/batch"
	"recipe-extractor/internal/core/extract"
	"recipe-extractor/internal/core/ingest"
	"recipe-extractor/internal/core/llm"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/infrastructure/metrics"
	"recipe-extractor/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps 路由所需的服務；LLM、Batch、Metrics 可為 nil
type Deps struct {
	Extractor *extract.Extractor
	Ingest    *ingest.Service
	LLM       *llm.Extractor
	Batch     *batch.Manager
	Metrics   *metrics.Metrics
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Deps) (*gin.Engine, error) {
	if deps.Extractor == nil || deps.Ingest == nil {
		return nil, errors.New("extractor and ingest service are required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	var observer middleware.HTTPObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	router.Use(middleware.Logger(observer))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(requestTimeout(cfg.Server.RequestTimeout))

	// 健康檢查與指標
	var queue health.QueueReporter
	if deps.Batch != nil {
		queue = deps.Batch
	}
	health.NewHandler(cfg.App.Version, cfg.Ingest.Store, deps.Ingest, queue).Register(router)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.NewDeduplicator(cfg.DedupWindow).Middleware())

	var opts []recipeHandler.Option
	if deps.LLM != nil {
		opts = append(opts, recipeHandler.WithLLM(deps.LLM))
	}
	if deps.Batch != nil {
		opts = append(opts, recipeHandler.WithBatch(deps.Batch))
	}
	if deps.Metrics != nil {
		opts = append(opts, recipeHandler.WithRecorder(deps.Metrics))
	}
	recipeHandler.NewHandler(deps.Extractor, deps.Ingest, opts...).Register(api.Group("/recipe"))

	common.LogInfo("Router setup completed successfully",
		zap.String("store", cfg.Ingest.Store),
		zap.Bool("llm_enabled", deps.LLM != nil),
		zap.Bool("batch_enabled", deps.Batch != nil),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}

// requestTimeout 為每個請求設置超時；處理器未寫出回應時補上 504
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeRequestTimeout,
				Message: common.ErrRequestTimeout.Message,
				Details: gin.H{"timeout": timeout.String()},
			})
		}
	}
}

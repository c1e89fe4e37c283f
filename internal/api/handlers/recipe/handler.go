// Package recipe 食譜擷取與寫入的 HTTP 處理器
package recipe

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"recipe-extractor/internal/core/amount"
	"recipe-extractor/internal/core/batch"
	"recipe-extractor/internal/core/extract"
	"recipe-extractor/internal/core/identity"
	"recipe-extractor/internal/core/ingest"
	"recipe-extractor/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Extractor 規則式擷取
type Extractor interface {
	ExtractDetailed(text, title string) extract.Result
}

// Ingester 寫入與查詢
type Ingester interface {
	Ingest(ctx context.Context, rec extract.RecipeRecord, source string) (*ingest.Result, error)
	Get(ctx context.Context, id string) (*ingest.StoredRecipe, error)
}

// LLMExtractor 遠端模型擷取
type LLMExtractor interface {
	Extract(ctx context.Context, text, title string) (extract.RecipeRecord, error)
}

// BatchProcessor 批次處理
type BatchProcessor interface {
	Process(ctx context.Context, docs []batch.Document) ([]batch.Result, error)
}

// Recorder 擷取統計
type Recorder interface {
	RecordTier(section, tier string)
	RecordDropped(n int)
}

// Handler 食譜處理器
type Handler struct {
	extractor Extractor
	ingester  Ingester
	llm       LLMExtractor
	batch     BatchProcessor
	recorder  Recorder
}

// Option 處理器選項
type Option func(*Handler)

// WithLLM 啟用遠端模型擷取
func WithLLM(l LLMExtractor) Option {
	return func(h *Handler) { h.llm = l }
}

// WithBatch 啟用批次寫入
func WithBatch(b BatchProcessor) Option {
	return func(h *Handler) { h.batch = b }
}

// WithRecorder 設定統計
func WithRecorder(r Recorder) Option {
	return func(h *Handler) { h.recorder = r }
}

// NewHandler 創建處理器
func NewHandler(ex Extractor, ing Ingester, opts ...Option) *Handler {
	h := &Handler{extractor: ex, ingester: ing}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register 註冊路由
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/parse", h.HandleParse)
	g.POST("/amount", h.HandleAmount)
	g.POST("/identity", h.HandleIdentity)
	g.POST("/ingest", h.HandleIngest)
	g.POST("/batch", h.HandleBatch)
	g.POST("/extract-llm", h.HandleExtractLLM)
	g.GET("/:id", h.HandleGet)
}

// HandleParse 擷取但不寫入
func (h *Handler) HandleParse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidRequest(err))
		return
	}

	res := h.extract(req.Text, req.Title)

	common.LogDebug("食譜擷取完成",
		zap.String("request_id", requestid.Get(c)),
		zap.String("ingredient_tier", string(res.IngredientTier)),
		zap.String("instruction_tier", string(res.InstructionTier)),
		zap.Int("dropped", res.Dropped),
	)

	c.JSON(http.StatusOK, res)
}

// HandleAmount 解析份量文字
func (h *Handler) HandleAmount(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidRequest(err))
		return
	}
	c.JSON(http.StatusOK, amount.Parse(req.Amount))
}

// HandleIdentity 計算食譜識別碼
func (h *Handler) HandleIdentity(c *gin.Context) {
	var req IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidRequest(err))
		return
	}
	c.JSON(http.StatusOK, IdentityResponse{ID: identity.Generate(req.Title, req.Source)})
}

// HandleIngest 擷取並寫入
func (h *Handler) HandleIngest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidRequest(err))
		return
	}

	res := h.extract(req.Text, req.Title)
	result, err := h.ingester.Ingest(c.Request.Context(), res.Record, req.Source)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyExists {
		status = http.StatusOK
	}

	common.LogInfo("食譜寫入完成",
		zap.String("request_id", requestid.Get(c)),
		zap.String("id", result.ID),
		zap.Bool("already_exists", result.AlreadyExists),
		zap.Int("valid", result.Valid),
		zap.Int("skipped", result.Skipped),
	)

	// 回應不帶完整食譜，需要時以 GET 取得
	result.Recipe = nil
	c.JSON(status, result)
}

// HandleBatch 批次擷取並寫入
func (h *Handler) HandleBatch(c *gin.Context) {
	if h.batch == nil {
		respondError(c, common.ErrServiceUnavailable.Wrap(errors.New("batch processing is not enabled")))
		return
	}

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidRequest(err))
		return
	}

	docs := make([]batch.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = batch.Document{Text: d.Text, Title: d.Title, Source: d.Source}
	}

	results, err := h.batch.Process(c.Request.Context(), docs)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := BatchResponse{
		Results: make([]BatchItem, len(results)),
		Summary: make(map[string]int),
	}
	for i, r := range results {
		resp.Results[i] = newBatchItem(r)
		resp.Summary[r.Outcome]++
	}
	c.JSON(http.StatusOK, resp)
}

// HandleExtractLLM 以遠端模型擷取
func (h *Handler) HandleExtractLLM(c *gin.Context) {
	if h.llm == nil {
		respondError(c, common.ErrServiceUnavailable.Wrap(errors.New("llm extraction is not enabled")))
		return
	}

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidRequest(err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(c, common.NewValidationError("text is required"))
		return
	}

	rec, err := h.llm.Extract(c.Request.Context(), req.Text, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// HandleGet 取得已儲存的食譜
func (h *Handler) HandleGet(c *gin.Context) {
	rec, err := h.ingester.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) extract(text, title string) extract.Result {
	res := h.extractor.ExtractDetailed(text, title)
	if h.recorder != nil {
		h.recorder.RecordTier("ingredients", tierLabel(res.IngredientTier))
		h.recorder.RecordTier("instructions", tierLabel(res.InstructionTier))
		h.recorder.RecordDropped(res.Dropped)
	}
	return res
}

func tierLabel(t extract.Tier) string {
	if t == extract.TierNone {
		return "none"
	}
	return string(t)
}

func invalidRequest(err error) error {
	return common.ErrInvalidRequest.Wrap(err)
}

// respondError 依錯誤類型輸出 ErrorResponse
func respondError(c *gin.Context, err error) {
	status := common.StatusOf(err)
	resp := common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: err.Error(),
	}

	var insufficient *ingest.InsufficientIngredientsError
	var ce *common.CustomError
	switch {
	case errors.As(err, &insufficient):
		resp.Code = common.ErrCodeTooFewIngredients
		resp.Details = gin.H{
			"valid":   insufficient.Valid,
			"skipped": insufficient.Skipped,
			"total":   insufficient.Total,
		}
	case errors.As(err, &ce):
		resp.Code = ce.Code
	case common.IsValidationError(err):
		resp.Code = common.ErrCodeInvalidRequest
	}

	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗",
			zap.String("request_id", requestid.Get(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(status, resp)
}

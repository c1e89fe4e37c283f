package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// OpenRouter OpenRouter chat completions 客戶端
type OpenRouter struct {
	model     string
	maxTokens int
	client    *resty.Client
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// apiError 表示 API 錯誤
type apiError struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewOpenRouter 創建 OpenRouter 客戶端
func NewOpenRouter(cfg config.OpenRouterConfig) *OpenRouter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Title", "Recipe Extractor")

	return &OpenRouter{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    client,
	}
}

// Generate 呼叫 /chat/completions
func (c *OpenRouter) Generate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := c.generate(ctx, req)
	common.LogLLMCall(c.model, time.Since(start), err)
	return resp, err
}

func (c *OpenRouter) generate(ctx context.Context, req *Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	body := chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", c.model),
		zap.Int("messages", len(req.Messages)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("OpenRouter API error (status %d): %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return nil, fmt.Errorf("OpenRouter API error (status %d): %s", resp.StatusCode(), common.Truncate(resp.String(), 200))
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenRouter response")
	}
	content := result.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("empty content in OpenRouter response")
	}

	return &Response{Content: content, Usage: result.Usage}, nil
}

// GetModel 獲取模型名稱
func (c *OpenRouter) GetModel() string {
	return c.model
}

// Close 關閉客戶端
func (c *OpenRouter) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

// Package reddit 透過 Reddit 公開 JSON API 取得食譜貼文
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipe-extractor/internal/core/batch"
	"recipe-extractor/internal/core/identity"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// recipeMarkers 作者留言含有其中任一字詞才視為食譜
var recipeMarkers = []string{
	"instructions", "ingredients", "preparation", "prep time", "cook time", "total time", "servings",
}

// Post Reddit 貼文
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
}

type listing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type comment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// Client Reddit 客戶端
type Client struct {
	client    *resty.Client
	subreddit string
	limit     int
}

// NewClient 創建 Reddit 客戶端
func NewClient(cfg config.RedditConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	limit := cfg.Limit
	if limit <= 0 {
		limit = 25
	}
	return &Client{client: client, subreddit: cfg.Subreddit, limit: limit}
}

// NewPosts 取得看板最新貼文
func (c *Client) NewPosts(ctx context.Context) ([]Post, error) {
	var l listing
	if err := c.getJSON(ctx, fmt.Sprintf("/r/%s/new.json", c.subreddit), map[string]string{
		"limit":    fmt.Sprintf("%d", c.limit),
		"raw_json": "1",
	}, &l); err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var p Post
		if err := json.Unmarshal(child.Data, &p); err != nil {
			common.LogWarn("無法解析貼文", zap.Error(err))
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// RecipeText 回傳作者第一則含食譜字詞的留言，沒有時退回貼文內文
func (c *Client) RecipeText(ctx context.Context, p Post) (string, error) {
	var ls []listing
	if err := c.getJSON(ctx, fmt.Sprintf("/comments/%s.json", p.ID), map[string]string{"raw_json": "1"}, &ls); err != nil {
		return "", err
	}

	if len(ls) > 1 {
		for _, child := range ls[1].Data.Children {
			if child.Kind != "t1" {
				continue
			}
			var cm comment
			if err := json.Unmarshal(child.Data, &cm); err != nil {
				continue
			}
			if cm.Author == p.Author && hasRecipeMarker(cm.Body) {
				return cm.Body, nil
			}
		}
	}
	return strings.TrimSpace(p.SelfText), nil
}

// Scrape 取得最新貼文並逐筆送入批次處理
func (c *Client) Scrape(ctx context.Context, sink batch.Submitter) ([]batch.Result, error) {
	posts, err := c.NewPosts(ctx)
	if err != nil {
		return nil, err
	}

	var chans []<-chan batch.Result
	for _, p := range posts {
		text, err := c.RecipeText(ctx, p)
		if err != nil {
			common.LogWarn("無法取得貼文留言", zap.String("post_id", p.ID), zap.Error(err))
			continue
		}
		if text == "" {
			continue
		}
		ch, err := sink.Enqueue(ctx, batch.Document{Text: text, Title: p.Title, Source: identity.RedditSource(p.ID)})
		if err != nil {
			return nil, fmt.Errorf("failed to enqueue post %s: %w", p.ID, err)
		}
		chans = append(chans, ch)
	}

	results := make([]batch.Result, 0, len(chans))
	for _, ch := range chans {
		select {
		case r := <-ch:
			results = append(results, r)
		case <-ctx.Done():
			return results, ctx.Err()
		}
	}
	return results, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, out interface{}) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return common.ErrSourceError.Wrap(fmt.Errorf("failed to request %s: %w", path, err))
	}
	if resp.StatusCode() != http.StatusOK {
		return common.ErrSourceError.Wrap(fmt.Errorf("reddit returned status %d for %s", resp.StatusCode(), path))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return common.ErrSourceError.Wrap(fmt.Errorf("failed to parse %s: %w", path, err))
	}
	return nil
}

func hasRecipeMarker(body string) bool {
	lower := strings.ToLower(body)
	for _, m := range recipeMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

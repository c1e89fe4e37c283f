// Package identity 產生食譜的確定性識別碼，用於重複匯入去重
package identity

import (
	"strings"

	"github.com/google/uuid"
)

// Namespace 食譜識別碼命名空間（沿用 DNS namespace）
var Namespace = uuid.NameSpaceDNS

// Normalize 去除前後空白並轉小寫
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Generate 由標題與來源產生 UUIDv5，相同輸入永遠得到相同結果
func Generate(title, source string) string {
	content := Normalize(title) + ":" + Normalize(source)
	return uuid.NewSHA1(Namespace, []byte(content)).String()
}

// RedditSource Reddit 貼文的來源字串
func RedditSource(postID string) string {
	return "reddit:" + strings.TrimSpace(postID)
}

// ForReddit 以 Reddit 貼文 ID 作為來源產生識別碼
func ForReddit(title, postID string) string {
	return Generate(title, RedditSource(postID))
}

// Valid 檢查字串是否為合法 UUID
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

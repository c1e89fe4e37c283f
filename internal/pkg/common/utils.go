package common

import "unicode/utf8"

// Truncate 依字元數截斷字串
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// StringPtr 回傳字串指標，空字串回傳 nil
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref 取出字串指標的值
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

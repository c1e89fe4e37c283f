package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "½ c", Truncate("½ cup", 3))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestStringPtrAndDeref(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	p := StringPtr("x")
	if assert.NotNil(t, p) {
		assert.Equal(t, "x", *p)
	}
	assert.Equal(t, "x", Deref(p))
	assert.Equal(t, "", Deref(nil))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", ParseLevel("DEBUG").String())
	assert.Equal(t, "warn", ParseLevel("warning").String())
	assert.Equal(t, "info", ParseLevel("nonsense").String())
}

func TestLoggerDefaultsToNop(t *testing.T) {
	// 未初始化時各日誌函式都不應 panic
	LogInfo("info")
	LogWarn("warn")
	LogDebug("debug")
	LogStoreCall("memory", "save", 0, nil)
	InitConsoleLogger("off")
	LogError("error")
}

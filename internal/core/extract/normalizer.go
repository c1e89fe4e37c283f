package extract

import (
	"regexp"
	"strings"
)

var (
	escapeReplacer = strings.NewReplacer(
		`\\n`, "\n", `\n`, "\n",
		`\\r`, "", `\r`, "",
		`\\t`, " ", `\t`, " ",
		`\\*`, "*", `\*`, "*",
		"\r\n", "\n", "\r", "\n",
		"&amp;#x200B;", "", "&amp;x200B;", "", "&#x200B;", "", "\u200b", "",
		"&amp;", "&", "&nbsp;", " ", "\u00a0", " ",
	)
	doubleSpacePattern = regexp.MustCompile(` {2,}`)
)

// Normalized 清理後的全文與逐行內容
type Normalized struct {
	Text  string
	Lines []string
}

// Normalize 還原跳脫字元，必要時把連續空白視為換行，並切出非空行
func Normalize(raw string) Normalized {
	text := escapeReplacer.Replace(raw)

	// 失去換行格式的來源：以雙空白當作段落分隔
	if !strings.Contains(text, "\n") && strings.Contains(text, "  ") {
		text = doubleSpacePattern.ReplaceAllString(text, "\n")
	}

	text = strings.TrimSpace(text)
	return Normalized{Text: text, Lines: splitLines(text)}
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

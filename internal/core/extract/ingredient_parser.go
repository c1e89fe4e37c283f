package extract

import (
	"regexp"
	"strings"
)

const (
	qtyExpr    = `(?:\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?(?:\s*(?:-|–|to)\s*\d+(?:\.\d+)?)?|\d*[½¼¾⅓⅔⅛])`
	leadExpr   = `^(?:x\s*)?(?:(?:about|approx\.?|approximately|around)\s+)?`
	unitExpr   = `([A-Za-z][A-Za-z'-]*\.?)`
	headerSize = 40
)

var (
	emphasisPattern  = regexp.MustCompile(`\*\*|__`)
	leadingHashes    = regexp.MustCompile(`^#+\s*`)
	whitespacePatten = regexp.MustCompile(`\s+`)

	// 1 cup (240 ml) milk / 270 g (9.5 oz) flour / x2 (100 g) eggs
	qtyParenPattern = regexp.MustCompile(`(?i)` + leadExpr + `(` + qtyExpr + `)\s*` + unitExpr + `?\s*\(([^)]*\d[^)]*)\)\s*(.+)$`)
	// Chicken thighs (1.8 lb / 800 g)
	itemFirstPattern = regexp.MustCompile(`^([^\d(][^(]*?)\s*\((` + qtyExpr + `[^)]*)\)\s*$`)
	// 2 cups flour / 1 Eggplant cut into cubes
	qtyTokenPattern = regexp.MustCompile(`(?i)` + leadExpr + `(` + qtyExpr + `)\s*` + unitExpr + `\s*(.*)$`)
	// 3 eggs
	qtyRestPattern = regexp.MustCompile(`(?i)` + leadExpr + `(` + qtyExpr + `)\s+(.+)$`)

	trailingParenPattern = regexp.MustCompile(`^(.*?)\s*\(([^)]*)\)\s*$`)
	toTasteSuffix        = regexp.MustCompile(`(?i)^(.+?)[,\s]+(?:to taste|as needed)$`)
)

// LineParser 將單行食材文字解析成 IngredientRecord
type LineParser struct {
	vocab *Vocabulary
}

// NewLineParser 建立食材行解析器
func NewLineParser(vocab *Vocabulary) *LineParser {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &LineParser{vocab: vocab}
}

// Parse 解析一行食材；標題、步驟句或無法辨識的內容回傳 nil
func (p *LineParser) Parse(line string) *IngredientRecord {
	text := p.clean(line)
	if p.rejectRaw(text) {
		return nil
	}

	item, amt, notes, ok := p.split(text)
	if !ok {
		return nil
	}

	item, notes = splitTrailingNotes(item, notes)
	item = strings.Trim(item, " .;:-")
	if amt == "" {
		amt = DefaultAmount
	}

	rec, err := NewIngredient(item, amt, notes)
	if err != nil {
		return nil
	}
	return &rec
}

func (p *LineParser) clean(line string) string {
	text := emphasisPattern.ReplaceAllString(line, "")
	text = leadingHashes.ReplaceAllString(strings.TrimSpace(text), "")
	text = cleanListItem(text)
	return strings.TrimSpace(whitespacePatten.ReplaceAllString(text, " "))
}

func (p *LineParser) rejectRaw(text string) bool {
	size := runeLen(text)
	if size < MinItemLength || size > MaxItemLength {
		return true
	}

	lower := strings.ToLower(text)
	if p.vocab.standaloneNotes[strings.Trim(lower, " .,;:()")] {
		return true
	}

	tokens := strings.Fields(lower)
	if len(tokens) == 1 && p.vocab.IsUnitToken(tokens[0]) {
		return true
	}

	// 子段落標題，例如 "Waffle Dough:"
	if strings.HasSuffix(text, ":") && size <= headerSize {
		if p.vocab.subsectionNouns.Any(lower) || !digitPattern.MatchString(text) {
			return true
		}
	}

	if p.vocab.IsActionVerb(strings.Trim(tokens[0], ",.;:")) {
		return true
	}

	// 長句且含動作動詞，視為步驟
	if strings.HasSuffix(text, ".") && len(tokens) > 6 {
		for _, tok := range tokens {
			if p.vocab.IsActionVerb(strings.Trim(tok, ",.;:")) {
				return true
			}
		}
	}
	return false
}

// split 依序嘗試各種份量寫法，回傳品名、份量與備註
func (p *LineParser) split(text string) (item, amt, notes string, ok bool) {
	if m := qtyParenPattern.FindStringSubmatch(text); m != nil {
		qty, unit, paren, rest := m[1], m[2], m[3], m[4]
		amt = qty
		item = rest
		if unit != "" {
			if p.vocab.IsUnitToken(unit) {
				amt = qty + " " + unit
			} else {
				item = unit + " " + rest
			}
		}
		return item, amt, paren, true
	}

	if m := itemFirstPattern.FindStringSubmatch(text); m != nil {
		return m[1], strings.TrimSpace(m[2]), "", true
	}

	if m := qtyTokenPattern.FindStringSubmatch(text); m != nil {
		qty, token, rest := m[1], m[2], strings.TrimSpace(m[3])
		switch {
		case p.vocab.IsUnitToken(token) && rest != "":
			return rest, qty + " " + strings.TrimSuffix(token, "."), "", true
		case isCapitalized(token) && !p.vocab.IsDescriptor(token):
			return token, qty, rest, true
		}
	}

	if m := qtyRestPattern.FindStringSubmatch(text); m != nil {
		return m[2], m[1], "", true
	}

	if m := toTasteSuffix.FindStringSubmatch(text); m != nil {
		return m[1], DefaultAmount, "", true
	}
	return text, DefaultAmount, "", true
}

// splitTrailingNotes 把逗號後的說明與結尾括號移到備註
func splitTrailingNotes(item, notes string) (string, string) {
	var extra []string
	if notes != "" {
		extra = append(extra, notes)
	}

	if m := trailingParenPattern.FindStringSubmatch(item); m != nil && strings.TrimSpace(m[1]) != "" {
		item = m[1]
		if inner := strings.TrimSpace(m[2]); inner != "" {
			extra = append(extra, inner)
		}
	}
	if idx := strings.Index(item, ","); idx > 0 {
		if tail := strings.TrimSpace(item[idx+1:]); tail != "" {
			extra = append([]string{tail}, extra...)
		}
		item = item[:idx]
	}
	return strings.TrimSpace(item), strings.Join(extra, ", ")
}

func isCapitalized(token string) bool {
	if token == "" {
		return false
	}
	c := token[0]
	return c >= 'A' && c <= 'Z'
}

package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	servingPattern = regexp.MustCompile(`(?i)^\(?\s*(?:serves|serving|servings|makes|yields?)\b`)
	measurePattern = regexp.MustCompile(`(?i)\d|\b(?:cups?|tbsps?|tsps?|tablespoons?|teaspoons?|oz|ounces?|lbs?|pounds?|grams?|g|kg|ml|l|pinch|dash)\b`)
)

// Filter 食材有效性過濾。只做判斷、不改寫內容，因此重複套用結果不變
type Filter struct {
	vocab *Vocabulary
}

// NewFilter 建立過濾器
func NewFilter(vocab *Vocabulary) *Filter {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Filter{vocab: vocab}
}

// Strict 嚴格規則，用於段落錨點或關鍵字找到的食材
func (f *Filter) Strict(items []IngredientRecord) ([]IngredientRecord, int) {
	return f.apply(items, f.KeepStrict)
}

// Lenient 寬鬆規則，用於啟發式掃描出的食材
func (f *Filter) Lenient(items []IngredientRecord) ([]IngredientRecord, int) {
	return f.apply(items, f.KeepLenient)
}

func (f *Filter) apply(items []IngredientRecord, keep func(IngredientRecord) bool) ([]IngredientRecord, int) {
	kept := make([]IngredientRecord, 0, len(items))
	for _, it := range items {
		if keep(it) {
			kept = append(kept, it)
		}
	}
	return kept, len(items) - len(kept)
}

// KeepLenient 寬鬆規則下是否保留
func (f *Filter) KeepLenient(it IngredientRecord) bool {
	item := strings.TrimSpace(it.Item)
	size := runeLen(item)
	if size < MinItemLength || size > MaxItemLength {
		return false
	}
	if strings.Trim(item, "*[]()- \n\t") == "" {
		return false
	}

	lower := strings.ToLower(item)
	switch {
	case servingPattern.MatchString(item):
		return false
	case f.isHeader(lower, it):
		return false
	case f.vocab.standaloneNotes[strings.Trim(lower, " .,;:()")]:
		return false
	case strings.HasPrefix(lower, "in a ") || strings.HasPrefix(lower, "in the "):
		return false
	case f.isSentence(lower):
		return false
	}
	return true
}

// KeepStrict 嚴格規則下是否保留
func (f *Filter) KeepStrict(it IngredientRecord) bool {
	if !f.KeepLenient(it) {
		return false
	}

	item := strings.TrimSpace(it.Item)
	lower := strings.ToLower(item)
	if strings.Contains(item, "\n") {
		return false
	}
	for _, prefix := range f.vocab.filterPrefixes {
		if hasWordPrefix(lower, prefix) {
			return false
		}
	}
	for _, phrase := range f.vocab.noisePhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	if first := strings.Fields(lower); len(first) > 0 && f.vocab.IsActionVerb(strings.Trim(first[0], ",.;:")) {
		return false
	}
	return true
}

// isHeader "For the filling" 之類的子標題；帶份量的 "for" 開頭行不算
func (f *Filter) isHeader(lower string, it IngredientRecord) bool {
	if !hasAnyPrefix(lower, f.vocab.headerPrefixes) {
		return false
	}
	amt := it.Amount
	if amt == DefaultAmount {
		amt = ""
	}
	return !measurePattern.MatchString(it.Item + " " + amt)
}

// isSentence 句點結尾、超過五個字且含動作動詞的完整句子
func (f *Filter) isSentence(lower string) bool {
	if !strings.HasSuffix(lower, ".") {
		return false
	}
	words := strings.Fields(lower)
	if len(words) <= 5 {
		return false
	}
	for _, w := range words {
		if f.vocab.IsActionVerb(strings.Trim(w, ",.;:")) {
			return true
		}
	}
	return false
}

// hasWordPrefix 前綴後面必須是字詞邊界，"cooking oil" 不會被 "cook" 擋下
func hasWordPrefix(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	rest := s[len(prefix):]
	if rest == "" {
		return true
	}
	r := []rune(rest)[0]
	return !unicode.IsLetter(r) && r != '-'
}

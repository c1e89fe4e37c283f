package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"recipe-extractor/internal/core/extract"
	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// 品名開頭殘留的份量，例如 "1/2 cups beef stock"
	leadingQtyPattern = regexp.MustCompile(`^(\d+/\d+|\d+(?:\.\d+)?)\s+([A-Za-z]+\.?)\s+(.+)$`)
	bareNumberPattern = regexp.MustCompile(`^\d+$`)
)

// Repair 在最終過濾前修正食材欄位，回傳保留的食材與剔除數量
//
// maxItemLength 以上的品名直接剔除；其餘截到 extract.MaxItemLength。
func Repair(items []extract.IngredientRecord, maxItemLength int) ([]extract.IngredientRecord, int) {
	vocab := extract.DefaultVocabulary()
	kept := make([]extract.IngredientRecord, 0, len(items))
	skipped := 0

	for _, it := range items {
		if it.IsPlaceholder() {
			skipped++
			continue
		}
		if maxItemLength > 0 && utf8.RuneCountInString(it.Item) > maxItemLength {
			common.LogDebug("食材過長，已略過", zap.Int("長度", utf8.RuneCountInString(it.Item)))
			skipped++
			continue
		}

		item := it.Item
		if idx := strings.Index(item, "\n\n"); idx >= 0 {
			item = item[:idx]
		}
		item = strings.TrimSpace(item)

		if strings.Contains(item, "**") || strings.HasPrefix(item, "#") || vocab.IsSectionHeader(item) {
			skipped++
			continue
		}

		amt := it.Amount
		item, amt = swapLeadingQuantity(vocab, item, amt)
		item = common.Truncate(item, extract.MaxItemLength)

		rec, err := extract.NewIngredient(item, amt, common.Deref(it.Notes))
		if err != nil {
			skipped++
			continue
		}
		kept = append(kept, rec)
	}

	return kept, skipped
}

// swapLeadingQuantity 把誤留在品名前面的份量移回份量欄位
func swapLeadingQuantity(vocab *extract.Vocabulary, item, amt string) (string, string) {
	m := leadingQtyPattern.FindStringSubmatch(item)
	if m == nil {
		return item, amt
	}
	if !vocab.IsUnitToken(strings.TrimSuffix(m[2], ".")) {
		return item, amt
	}

	moved := m[1] + " " + m[2]
	amt = strings.TrimSpace(amt)
	switch {
	case amt == "" || amt == extract.DefaultAmount:
		amt = moved
	case bareNumberPattern.MatchString(amt) && strings.Contains(m[1], "/"):
		amt = amt + " " + moved
	default:
		return item, amt
	}
	return m[3], amt
}

package ingest

import (
	"strings"
	"testing"

	"recipe-extractor/internal/core/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ing(item, amount string) extract.IngredientRecord {
	return extract.IngredientRecord{Item: item, Amount: amount}
}

func TestRepairSwapsLeadingQuantity(t *testing.T) {
	kept, skipped := Repair([]extract.IngredientRecord{
		ing("1/2 cups beef stock", "1"),
		ing("2 cups flour", extract.DefaultAmount),
		ing("3 cloves garlic", "2 tbsp"),
	}, 500)

	require.Len(t, kept, 3)
	assert.Zero(t, skipped)
	assert.Equal(t, "beef stock", kept[0].Item)
	assert.Equal(t, "1 1/2 cups", kept[0].Amount)
	assert.Equal(t, "flour", kept[1].Item)
	assert.Equal(t, "2 cups", kept[1].Amount)
	// 份量欄位已有內容時保持原樣
	assert.Equal(t, "3 cloves garlic", kept[2].Item)
	assert.Equal(t, "2 tbsp", kept[2].Amount)
}

func TestRepairDropsBrokenItems(t *testing.T) {
	kept, skipped := Repair([]extract.IngredientRecord{
		extract.PlaceholderIngredient(),
		ing("**For the sauce**", extract.DefaultAmount),
		ing("# Toppings", extract.DefaultAmount),
		ing(strings.Repeat("a", 501), "1 cup"),
		ing("butter\n\nInstructions: melt it", "2 tbsp"),
		ing("sugar", "1 cup"),
	}, 500)

	assert.Equal(t, 4, skipped)
	require.Len(t, kept, 2)
	assert.Equal(t, "butter", kept[0].Item)
	assert.Equal(t, "sugar", kept[1].Item)
}

func TestRepairTruncatesLongItems(t *testing.T) {
	kept, skipped := Repair([]extract.IngredientRecord{ing(strings.Repeat("b", 300), "1 cup")}, 500)

	assert.Zero(t, skipped)
	require.Len(t, kept, 1)
	assert.Len(t, kept[0].Item, extract.MaxItemLength)
}

package amount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		quantity *float64
		unit     string
		unitType UnitType
	}{
		{"fraction with unit", "1/2 tbsp", f(0.5), "tablespoon", UnitVolume},
		{"range resolves to mean", "2-3 cups", f(2.5), "cup", UnitVolume},
		{"mixed number", "1 1/2 cups", f(1.5), "cup", UnitVolume},
		{"hyphenated mixed number", "1-1/2 cups", f(1.5), "cup", UnitVolume},
		{"hyphenated vulgar mixed number", "2-½ tbsp", f(2.5), "tablespoon", UnitVolume},
		{"container unit", "2 cloves", f(2), "clove", UnitCount},
		{"can unit", "1 can", f(1), "can", UnitCount},
		{"decimal", "1.5 lbs", f(1.5), "pound", UnitWeight},
		{"integer grams", "100 g", f(100), "gram", UnitWeight},
		{"abbreviation with dot", "2 tsp.", f(2), "teaspoon", UnitVolume},
		{"upper case unit", "3 Tablespoons", f(3), "tablespoon", UnitVolume},
		{"count unit", "4 pieces", f(4), "piece", UnitCount},
		{"pinch", "1 pinch", f(1), "pinch", UnitOther},
		{"vulgar fraction", "½ cup", f(0.5), "cup", UnitVolume},
		{"range with to", "2 to 4 oz", f(3), "ounce", UnitWeight},
		{"unit only", "cup", nil, "cup", UnitVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if tt.quantity == nil {
				assert.Nil(t, got.Quantity)
			} else {
				require.NotNil(t, got.Quantity)
				assert.InDelta(t, *tt.quantity, *got.Quantity, 1e-9)
			}
			require.NotNil(t, got.Unit)
			assert.Equal(t, tt.unit, *got.Unit)
			require.NotNil(t, got.UnitType)
			assert.Equal(t, tt.unitType, *got.UnitType)
		})
	}
}

func TestParseToTaste(t *testing.T) {
	for _, raw := range []string{"to taste", "As needed", " taste "} {
		got := Parse(raw)
		assert.Nil(t, got.Quantity, raw)
		require.NotNil(t, got.Unit, raw)
		assert.Equal(t, ToTaste, *got.Unit)
		require.NotNil(t, got.UnitType)
		assert.Equal(t, UnitOther, *got.UnitType)
	}
}

func TestParseUnknownUnitKeepsQuantity(t *testing.T) {
	got := Parse("3 large")
	require.NotNil(t, got.Quantity)
	assert.Equal(t, 3.0, *got.Quantity)
	assert.Nil(t, got.Unit)
	assert.Nil(t, got.UnitType)
}

func TestParseBareNumber(t *testing.T) {
	got := Parse("2")
	require.NotNil(t, got.Quantity)
	assert.Equal(t, 2.0, *got.Quantity)
	assert.Nil(t, got.Unit)
}

func TestParseGarbage(t *testing.T) {
	assert.Equal(t, NormalizedAmount{}, Parse(""))
	assert.Equal(t, NormalizedAmount{}, Parse("See recipe"))
}

func TestParseZeroDenominator(t *testing.T) {
	got := Parse("1/0 cup")
	assert.Nil(t, got.Quantity)
	require.NotNil(t, got.Unit)
	assert.Equal(t, "cup", *got.Unit)
}

func TestLookupUnit(t *testing.T) {
	u, ok := LookupUnit("Cups")
	require.True(t, ok)
	assert.Equal(t, "cup", u.Canonical)
	assert.Equal(t, "c", u.Abbreviation)
	assert.False(t, IsUnit("eggplant"))
}

func f(v float64) *float64 { return &v }

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ing(item, amount string) IngredientRecord {
	return IngredientRecord{Item: item, Amount: amount}
}

func TestFilterStrictKeeps(t *testing.T) {
	f := NewFilter(nil)
	for _, it := range []IngredientRecord{
		ing("Cooking oil", DefaultAmount),
		ing("Pre-cooked chicken", "2 cups"),
		ing("Heat-resistant spatula", DefaultAmount),
		ing("Stir-fry sauce", "2 tbsp"),
		ing("Salt and pepper", DefaultAmount),
		ing("garlic", "4 cloves"),
		ing("all-purpose flour", "2 cups"),
		ing("For frying oil", "2 cups"),
	} {
		assert.True(t, f.KeepStrict(it), "item %q", it.Item)
	}
}

func TestFilterStrictSkips(t *testing.T) {
	f := NewFilter(nil)
	for _, it := range []IngredientRecord{
		ing("Preheat oven to 350°F.", DefaultAmount),
		ing("In a large bowl, combine flour and salt.", DefaultAmount),
		ing("Cook pasta according to package directions.", DefaultAmount),
		ing("For the Filling", DefaultAmount),
		ing("For the Cookies", DefaultAmount),
		ing("Serves 4", DefaultAmount),
		ing("(makes 12 muffins)", DefaultAmount),
		ing("optional", DefaultAmount),
		ing("Check out my instagram for more", DefaultAmount),
		ing("Stir in the cheese", DefaultAmount),
		ing("line one\nline two", DefaultAmount),
		ing("***", DefaultAmount),
		ing("x", DefaultAmount),
	} {
		assert.False(t, f.KeepStrict(it), "item %q", it.Item)
	}
}

func TestFilterLenientIsLooser(t *testing.T) {
	f := NewFilter(nil)
	it := ing("Stir in the cheese", DefaultAmount)
	assert.False(t, f.KeepStrict(it))
	assert.True(t, f.KeepLenient(it))

	assert.False(t, f.KeepLenient(ing("Serves 4", DefaultAmount)))
	assert.False(t, f.KeepLenient(ing("For the Filling", DefaultAmount)))
}

func TestFilterIdempotent(t *testing.T) {
	f := NewFilter(nil)
	items := []IngredientRecord{
		ing("flour", "2 cups"),
		ing("Preheat oven to 350°F.", DefaultAmount),
		ing("sugar", "1 cup"),
		ing("For the Filling", DefaultAmount),
		ing("Stir in the cheese", DefaultAmount),
		ing("cream cheese", "8 oz"),
	}

	once, dropped := f.Strict(items)
	assert.Equal(t, 3, dropped)
	twice, droppedAgain := f.Strict(once)
	assert.Equal(t, once, twice)
	assert.Zero(t, droppedAgain)

	lOnce, _ := f.Lenient(items)
	lTwice, lDropped := f.Lenient(lOnce)
	assert.Equal(t, lOnce, lTwice)
	assert.Zero(t, lDropped)
	assert.Len(t, lOnce, 5)
}

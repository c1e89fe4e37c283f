package extract

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pancakePost = `Classic Pancakes

Fluffy pancakes that are perfect for a lazy weekend morning.

Ingredients:
- 1 1/2 cups all-purpose flour
- 2 tbsp sugar
- 1 tsp baking powder
- 1 1/4 cups milk
- 1 egg

Instructions:
1. Whisk the flour, sugar and baking powder in a bowl.
2. Add the milk and egg and stir until smooth.
3. Heat a lightly oiled griddle over medium heat.
4. Pour the batter onto the griddle and cook until golden.`

func TestExtractEndToEnd(t *testing.T) {
	e := New()
	res := e.ExtractDetailed(pancakePost, "")
	rec := res.Record

	assert.Equal(t, TierRobust, res.IngredientTier)
	assert.Equal(t, TierRobust, res.InstructionTier)
	assert.Zero(t, res.Dropped)

	assert.Equal(t, "Classic Pancakes", rec.Title)
	require.NotNil(t, rec.Description)
	assert.Equal(t, "Fluffy pancakes that are perfect for a lazy weekend morning.", *rec.Description)

	require.Len(t, rec.Ingredients, 5)
	assert.Equal(t, []string{"all-purpose flour", "sugar", "baking powder", "milk", "egg"}, rec.IngredientNames())
	assert.Equal(t, "1 1/2 cups", rec.Ingredients[0].Amount)
	vocab := DefaultVocabulary()
	for _, it := range rec.Ingredients {
		first := strings.Fields(it.Item)[0]
		assert.False(t, vocab.IsActionVerb(first), "item %q starts with a verb", it.Item)
	}

	require.Len(t, rec.Instructions, 4)
	for i, ins := range rec.Instructions {
		assert.Equal(t, i+1, ins.Step)
		assert.True(t, ins.HasDefaultTitle())
	}
	assert.Equal(t, "Whisk the flour, sugar and baking powder in a bowl.", rec.Instructions[0].Description)

	require.NotNil(t, rec.MealType)
	assert.Equal(t, MealBreakfast, *rec.MealType)
	require.NotNil(t, rec.Difficulty)
	assert.Equal(t, DifficultyEasy, *rec.Difficulty)
	assert.Equal(t, []string{"vegetarian"}, rec.DietaryTags)
	assert.Nil(t, rec.Cuisine)
}

func TestExtractSegmentationExclusion(t *testing.T) {
	text := "**Ingredients:**\n* 2 cups flour\n* 1 cup sugar\n\n**Instructions:**\n* Mix the flour and sugar\n* Bake for 30 minutes"

	rec := New().Extract(text, "")

	require.Len(t, rec.Ingredients, 2)
	for _, it := range rec.Ingredients {
		line := strings.ToLower(it.Line())
		assert.NotContains(t, line, "mix")
		assert.NotContains(t, line, "bake")
	}
	assert.Len(t, rec.Instructions, 2)
	assert.Equal(t, UntitledRecipe, rec.Title)
}

func TestExtractHeaderExclusion(t *testing.T) {
	text := "Ingredients:\nFor the Cookies\n2 cups flour\n1 cup butter\nFor the Filling\n8 oz cream cheese\n1/2 cup sugar\n\nInstructions:\n1. Beat the butter and flour into a dough."

	rec := New().Extract(text, "Sandwich Cookies")

	assert.Equal(t, "Sandwich Cookies", rec.Title)
	names := rec.IngredientNames()
	assert.Equal(t, []string{"flour", "butter", "cream cheese", "sugar"}, names)
	assert.NotContains(t, names, "For the Cookies")
	assert.NotContains(t, names, "For the Filling")
}

func TestExtractLenientTier(t *testing.T) {
	res := New().ExtractDetailed("2 cups flour\n1 cup sugar\nMix everything and bake for 20 minutes.", "")

	assert.Equal(t, TierLenient, res.IngredientTier)
	assert.Equal(t, []string{"flour", "sugar"}, res.Record.IngredientNames())
	assert.Equal(t, 1, res.Dropped)
	require.Len(t, res.Record.Instructions, 1)
	assert.Equal(t, "Mix everything and bake for 20 minutes.", res.Record.Instructions[0].Description)
}

func TestExtractTitleOverrideDrivesDifficulty(t *testing.T) {
	body := "Ingredients:\n- 1 lb beef tenderloin\n- 1 sheet puff pastry\nInstructions:\n1. Sear the beef on all sides.\n2. Wrap in pastry and bake until golden."

	for _, title := range []string{"Advanced Beef Wellington", "Challenging Beef Wellington"} {
		rec := New().Extract(body, title)
		require.NotNil(t, rec.Difficulty, title)
		assert.Equal(t, DifficultyHard, *rec.Difficulty, title)
	}
}

func TestExtractPlaceholders(t *testing.T) {
	for _, text := range []string{"", "   ", "lol", "\\n\\n", "**", "Ingredients:\nInstructions:"} {
		rec := New().Extract(text, "")
		require.NotEmpty(t, rec.Ingredients, "text %q", text)
		require.NotEmpty(t, rec.Instructions, "text %q", text)
	}

	rec := New().Extract("", "")
	assert.Equal(t, UntitledRecipe, rec.Title)
	assert.Equal(t, []IngredientRecord{PlaceholderIngredient()}, rec.Ingredients)
	assert.Equal(t, []InstructionRecord{PlaceholderInstruction()}, rec.Instructions)
	assert.Empty(t, rec.IngredientNames())
}

func TestSplitStepTitle(t *testing.T) {
	tests := []struct {
		line  string
		title string
		desc  string
	}{
		{"Make the sauce: whisk the butter and flour together", "Make the sauce", "whisk the butter and flour together"},
		{"Step 2: Bake for 20 minutes", "", "Bake for 20 minutes"},
		{"Bake at 350: done", "", "Bake at 350: done"},
		{"mix the dough: knead for ten minutes", "", "mix the dough: knead for ten minutes"},
		{"Stir well and serve", "", "Stir well and serve"},
	}

	for _, tt := range tests {
		title, desc := splitStepTitle(tt.line)
		assert.Equal(t, tt.title, title, tt.line)
		assert.Equal(t, tt.desc, desc, tt.line)
	}
}

func TestExtractStepTitles(t *testing.T) {
	text := "Ingredients:\n2 cups flour\n1 egg\nInstructions:\n1. Make the dough: combine the flour and egg until smooth.\n2. Step 2: Rest the dough for thirty minutes."

	rec := New().Extract(text, "")

	require.Len(t, rec.Instructions, 2)
	assert.Equal(t, "Make the dough", rec.Instructions[0].Title)
	assert.Equal(t, "combine the flour and egg until smooth.", rec.Instructions[0].Description)
	assert.Equal(t, "Step 2", rec.Instructions[1].Title)
	assert.Equal(t, "Rest the dough for thirty minutes.", rec.Instructions[1].Description)
}

func TestExtractConcurrentDeterminism(t *testing.T) {
	e := New()
	want := e.Extract(pancakePost, "")

	var wg sync.WaitGroup
	results := make([]RecipeRecord, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Extract(pancakePost, "")
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

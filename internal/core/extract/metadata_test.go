package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitle(t *testing.T) {
	m := NewMetadataExtractor(nil)

	assert.Equal(t, "My Title", m.Title(Normalize("whatever"), "  My Title "))
	assert.Equal(t, "Grandma's Apple Pie", m.Title(Normalize("Recipe: Grandma's Apple Pie\n2 apples"), ""))
	assert.Equal(t, "Spicy Chicken Curry", m.Title(Normalize("**Spicy Chicken Curry**\nIngredients:\n1 chicken"), ""))
	assert.Equal(t, "Weeknight Tomato Soup", m.Title(Normalize("## Weeknight Tomato Soup\nIngredients:"), ""))
	assert.Equal(t, UntitledRecipe, m.Title(Normalize("2 cups\n1 egg"), ""))
	assert.Equal(t, UntitledRecipe, m.Title(Normalize(""), ""))
}

func TestTitleSkipsHeadersAndLabels(t *testing.T) {
	m := NewMetadataExtractor(nil)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"bold section anchors", "**Ingredients:**\n* 2 cups flour\n* 1 cup sugar\n\n**Instructions:**\n* Mix the flour and sugar\n* Bake for 30 minutes", UntitledRecipe},
		{"label line", "Difficulty: Medium\nIngredients:\n2 cups flour\n1 egg", UntitledRecipe},
		{"instruction line", "Preheat the oven to 350F\n2 cups flour", UntitledRecipe},
		{"lowercase line after label", "Difficulty: Medium\nlemony chicken orzo soup\nIngredients:", "lemony chicken orzo soup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Title(Normalize(tt.text), "")
			assert.Equal(t, tt.want, got)
			assert.NotEqual(t, "Ingredients:", got)
		})
	}
}

func TestDescription(t *testing.T) {
	m := NewMetadataExtractor(nil)
	n := Normalize("Lemon Bars\nBright and tangy bars with a buttery shortbread crust.\nIngredients:\n1 cup flour")

	d := m.Description(n, "Lemon Bars")
	require.NotNil(t, d)
	assert.Equal(t, "Bright and tangy bars with a buttery shortbread crust.", *d)

	assert.Nil(t, m.Description(Normalize("Lemon Bars\nIngredients:\n1 cup flour"), "Lemon Bars"))
}

func TestTimes(t *testing.T) {
	m := NewMetadataExtractor(nil)
	prep, cook, chill := m.Times("Prep time: 15 minutes\nCook Time: 1 hour 30 minutes\nChill time: 2 hours")

	require.NotNil(t, prep)
	assert.Equal(t, "15 minutes", *prep)
	require.NotNil(t, cook)
	assert.Equal(t, "1 hour 30 minutes", *cook)
	require.NotNil(t, chill)
	assert.Equal(t, "2 hours", *chill)

	prep, cook, chill = m.Times("no times here")
	assert.Nil(t, prep)
	assert.Nil(t, cook)
	assert.Nil(t, chill)
}

func TestPanSize(t *testing.T) {
	m := NewMetadataExtractor(nil)

	got := m.PanSize("Bake in a 9x13 inch baking pan for 30 minutes.")
	require.NotNil(t, got)
	assert.Equal(t, "9x13 inch baking pan", *got)

	got = m.PanSize("Grease a 9-inch springform pan.")
	require.NotNil(t, got)
	assert.Equal(t, "9-inch springform pan", *got)

	assert.Nil(t, m.PanSize("Use a large bowl."))
}

func TestDifficulty(t *testing.T) {
	m := NewMetadataExtractor(nil)

	tests := []struct {
		name        string
		text        string
		ingredients int
		steps       int
		want        *Difficulty
	}{
		{"explicit keyword", "This is an easy recipe", 20, 20, diff(DifficultyEasy)},
		{"many ingredients", "plain", 16, 0, diff(DifficultyHard)},
		{"many steps", "plain", 1, 11, diff(DifficultyHard)},
		{"medium counts", "plain", 9, 2, diff(DifficultyMedium)},
		{"medium heat is not a difficulty", "cook over medium heat", 2, 1, diff(DifficultyEasy)},
		{"skill level label", "Skill level: Medium", 20, 20, diff(DifficultyMedium)},
		{"keyword in title line", "Advanced Beef Wellington\nsear the beef", 2, 2, diff(DifficultyHard)},
		{"advanced technique", "temper the chocolate", 1, 1, diff(DifficultyHard)},
		{"no signal", "", 0, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Difficulty(tt.text, tt.ingredients, tt.steps))
		})
	}
}

func TestClassifyReadsTitleForDifficulty(t *testing.T) {
	m := NewMetadataExtractor(nil)

	md := m.Classify("Sear the beef.\nWrap in pastry.", "Challenging Beef Wellington", []string{"beef", "puff pastry"}, 2)
	assert.Equal(t, diff(DifficultyHard), md.Difficulty)

	md = m.Classify("Sear the beef.\nWrap in pastry.", "Beef Wellington", []string{"beef", "puff pastry"}, 2)
	assert.Equal(t, diff(DifficultyEasy), md.Difficulty)
}

func TestDifficultyCountsListMarkers(t *testing.T) {
	m := NewMetadataExtractor(nil)
	text := "1. a\n2. b\n3. c\n4. d\n5. e\n6. f"
	assert.Equal(t, diff(DifficultyMedium), m.Difficulty(text, 0, 0))
}

func TestCuisine(t *testing.T) {
	m := NewMetadataExtractor(nil)

	tests := []struct {
		name  string
		title string
		text  string
		want  *string
	}{
		{"name in title", "Homemade Italian Meatballs", "with tortilla chips and salsa", strPtr("Italian")},
		{"name only in body is a keyword", "Dinner", "an italian classic with basil", strPtr("Italian")},
		{"most keywords wins", "Weeknight Bowl", "tortilla, salsa, cilantro and some basil", strPtr("Mexican")},
		{"single keyword in title", "Miso Glazed Salmon", "serve warm", strPtr("Japanese")},
		{"single keyword in body only", "Weeknight Bowl", "top with cilantro", nil},
		{"no signal", "Water", "just water", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Cuisine(tt.title, tt.text))
		})
	}
}

func TestMealType(t *testing.T) {
	m := NewMetadataExtractor(nil)

	tests := []struct {
		name        string
		text        string
		title       string
		ingredients []string
		want        *MealType
	}{
		{"title breaks dinner dessert tie", "Beef stew with chocolate cake for dessert", "Beef Stew", nil, mealPtr(MealDinner)},
		{"dessert wins by count", "a cake and a pie with ice cream after the stew", "Sunday", nil, mealPtr(MealDessert)},
		{"breakfast keyword", "Pancakes for a slow weekend", "Pancakes", nil, mealPtr(MealBreakfast)},
		{"sweet ingredients", "Something nice", "Treat", []string{"sugar", "cocoa", "butter"}, mealPtr(MealDessert)},
		{"sweet with protein", "Something nice", "Glaze", []string{"honey", "chicken"}, nil},
		{"no signal", "Just water", "Water", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.MealType(tt.text, tt.title, tt.ingredients))
		})
	}
}

func TestDietaryTags(t *testing.T) {
	m := NewMetadataExtractor(nil)

	assert.Equal(t, []string{"vegan", "gluten-free"},
		m.DietaryTags("A vegan and gluten-free bowl", []string{"rice", "beans", "feta"}))
	assert.Equal(t, []string{"vegetarian", "vegan"}, m.DietaryTags("Rice and beans", []string{"rice", "beans"}))
	assert.Equal(t, []string{"vegetarian"}, m.DietaryTags("Baked ziti", []string{"cheese", "pasta"}))
	assert.Nil(t, m.DietaryTags("Dinner", []string{"chicken", "rice"}))
	assert.Nil(t, m.DietaryTags("Nothing", nil))
}

func diff(d Difficulty) *Difficulty { return &d }

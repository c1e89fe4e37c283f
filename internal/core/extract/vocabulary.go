package extract

import (
	"regexp"
	"strings"
	"sync"

	"recipe-extractor/internal/core/amount"
)

// keywordSet 以字詞邊界比對的關鍵字集合（輸入需為小寫）
type keywordSet struct {
	members  map[string]bool
	patterns []*regexp.Regexp
}

func newKeywordSet(words ...string) keywordSet {
	ks := keywordSet{
		members:  make(map[string]bool, len(words)),
		patterns: make([]*regexp.Regexp, len(words)),
	}
	for i, w := range words {
		ks.members[w] = true
		ks.patterns[i] = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(w) + `(?:s|es)?(?:[^\p{L}\p{N}]|$)`)
	}
	return ks
}

// Count 出現過的不同關鍵字數量
func (k keywordSet) Count(text string) int {
	n := 0
	for _, p := range k.patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

// Any 是否出現任一關鍵字
func (k keywordSet) Any(text string) bool {
	for _, p := range k.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Has 單一字詞是否屬於集合
func (k keywordSet) Has(word string) bool {
	return k.members[word]
}

type difficultyRule struct {
	level    Difficulty
	keywords keywordSet
}

type cuisineRule struct {
	name     string
	literal  keywordSet
	keywords keywordSet
}

type mealRule struct {
	meal     MealType
	keywords keywordSet
}

type dietaryRule struct {
	tag      string
	keywords keywordSet
}

// Vocabulary 擷取流程共用的唯讀字彙表，建立後不再修改
type Vocabulary struct {
	actionVerbs      keywordSet
	instructionVerbs keywordSet
	lenientVerbs     keywordSet
	subsectionNouns  keywordSet
	descriptors      keywordSet
	standaloneNotes  map[string]bool
	sectionHeaders   map[string]bool

	ingredientStart []string
	ingredientEnd   []string
	instructionMark []string

	filterPrefixes []string
	noisePhrases   []string
	headerPrefixes []string

	advancedTechniques keywordSet
	difficulty         []difficultyRule
	cuisines           []cuisineRule
	meals              []mealRule
	dinner             keywordSet
	dessert            keywordSet
	sweetIngredients   keywordSet
	savoryProteins     keywordSet
	dietary            []dietaryRule
	meat               keywordSet
	dairy              keywordSet
	egg                keywordSet
}

var (
	defaultVocab     *Vocabulary
	defaultVocabOnce sync.Once
)

// DefaultVocabulary 取得行程共用的字彙表，首次呼叫時建立
func DefaultVocabulary() *Vocabulary {
	defaultVocabOnce.Do(func() {
		defaultVocab = buildVocabulary()
	})
	return defaultVocab
}

func buildVocabulary() *Vocabulary {
	v := &Vocabulary{
		actionVerbs: newKeywordSet(
			"cook", "add", "mix", "stir", "fold", "knead", "preheat", "transfer",
			"combine", "whisk", "pour", "place", "put", "bake", "fry", "boil",
			"heat", "remove", "serve", "spread", "blend", "bring", "cover", "let",
			"simmer", "saute", "sauté", "sprinkle", "drain", "rinse", "toss", "beat",
			"fill", "roll", "shape", "grease", "line", "reduce", "return", "season",
			"marinate", "refrigerate", "chill", "freeze", "wash", "peel", "cut",
			"chop", "dice", "process", "microwave", "roast", "grill", "broil",
			"allow", "continue", "repeat", "start", "begin", "meanwhile", "set",
			"layer", "arrange", "flip", "turn", "pulse", "strain", "discard",
		),
		instructionVerbs: newKeywordSet(
			"mix", "stir", "cook", "bake", "fry", "boil", "heat", "add", "remove",
			"serve", "combine", "whisk", "pour", "place", "put", "cut", "chop",
			"dice", "slice", "preheat", "prepare", "spread", "fold", "blend", "process",
		),
		lenientVerbs: newKeywordSet(
			"mix", "stir", "cook", "bake", "fry", "boil", "heat", "add", "remove",
			"combine", "whisk", "prepare", "place", "serve", "preheat", "pour",
		),
		subsectionNouns: newKeywordSet(
			"dough", "sauce", "topping", "filling", "crust", "batter", "glaze",
			"syrup", "broth", "base", "layer", "frosting", "icing", "dressing",
			"marinade", "garnish", "assembly",
		),
		standaloneNotes: map[string]bool{
			"optional":    true,
			"to taste":    true,
			"as needed":   true,
			"if desired":  true,
			"for garnish": true,
			"for serving": true,
		},
		descriptors: newKeywordSet(
			"large", "small", "medium", "big", "jumbo", "extra", "fresh", "ripe",
			"whole", "red", "green", "yellow", "white", "black", "brown", "dried",
			"frozen", "boneless", "skinless", "raw", "cooked", "organic", "hot", "sweet",
		),
		sectionHeaders: map[string]bool{
			"ingredients": true, "ingredient": true, "ingredient list": true,
			"what you need": true, "you will need": true, "shopping list": true,
			"instructions": true, "instruction": true, "directions": true,
			"direction": true, "method": true, "steps": true, "step": true,
			"preparation": true, "notes": true, "note": true,
		},

		ingredientStart: []string{"ingredient", "what you need", "you will need", "you'll need", "shopping list"},
		ingredientEnd:   []string{"instruction", "direction", "method", "step", "preparation"},
		instructionMark: []string{"instruction", "direction", "method", "step", "preparation", "how to"},

		filterPrefixes: []string{
			"how to do it", "direction", "directions", "instruction", "instructions", "preheat", "in the meantime",
			"cooking the", "bake at", "bake for", "blend everything", "transfer to",
			"mix the", "place the", "pour the", "take the", "add the", "stir",
			"remove from", "set aside", "let sit", "let it rest", "allow it to",
			"continue cooking", "reduce heat", "warm a", "heat a", "bring to a boil",
			"rinse", "drain", "clean and", "top with", "cover with", "line a",
			"spread the", "evenly spread", "start by adding", "grease baking",
			"stretch the", "recipe", "recipes", "fill a", "fill the", "toss to", "serve with",
			"cook", "optional as topping",
		},
		noisePhrases: []string{
			"[video]", "**[", "&amp;x200b", "x200b", "check out my", "instagram",
			"support from", "if you make this", "if you like my recipes",
			"you can find", "recipe video", "http://", "https://",
		},
		headerPrefixes: []string{
			"for the ", "for filling", "for topping", "for garnish", "for sauce",
			"for dressing", "for marinade", "for glaze", "for frosting", "for serving",
			"for ",
		},

		advancedTechniques: newKeywordSet(
			"sous vide", "tempering", "temper", "emulsify", "caramelize", "braise",
			"confit", "deglaze", "flambe", "flambé", "blanch", "score", "laminate",
		),
		difficulty: []difficultyRule{
			{DifficultyEasy, newKeywordSet("beginner", "simple", "quick", "easy")},
			{DifficultyMedium, newKeywordSet("intermediate", "medium difficulty", "medium-difficulty", "difficulty: medium", "level: medium", "moderate difficulty")},
			{DifficultyHard, newKeywordSet("advanced", "difficult", "complex", "challenging")},
		},
		dinner: newKeywordSet(
			"dinner", "supper", "main course", "entrée", "entree", "evening meal",
			"gravy", "stew", "casserole", "steak", "meatloaf", "brat",
			"bratwurst", "pot roast",
		),
		dessert: newKeywordSet(
			"dessert", "cake", "cookie", "brownie", "pie", "tart", "pudding",
			"ice cream", "sorbet", "mousse", "truffle", "candy", "frosting",
			"cheesecake", "cupcake", "macaron", "tiramisu", "parfait", "fudge",
		),
		sweetIngredients: newKeywordSet("sugar", "chocolate", "cocoa", "honey", "maple syrup", "vanilla extract"),
		savoryProteins:   newKeywordSet("chicken", "beef", "pork", "fish", "meat", "pasta", "sausage", "bacon", "turkey", "lamb", "shrimp", "brat"),
		meat: newKeywordSet(
			"chicken", "beef", "pork", "fish", "meat", "bacon", "sausage", "turkey",
			"lamb", "duck", "seafood", "shrimp", "salmon", "tuna", "ham", "anchovy",
			"prosciutto", "pancetta", "chorizo", "brat", "bratwurst",
		),
		dairy: newKeywordSet("milk", "cheese", "butter", "cream", "yogurt", "whey", "parmesan", "mozzarella", "ricotta", "feta"),
		egg:   newKeywordSet("egg", "yolk"),
	}

	v.meals = []mealRule{
		{MealBreakfast, newKeywordSet(
			"breakfast", "pancake", "waffle", "omelette", "omelet", "french toast",
			"cereal", "granola", "muffin", "bagel", "croissant", "eggs benedict",
			"breakfast burrito", "brunch", "morning",
		)},
		{MealLunch, newKeywordSet("lunch", "sandwich", "wrap", "salad", "soup and salad", "midday")},
		{MealDinner, v.dinner},
		{MealDessert, v.dessert},
		{MealSnack, newKeywordSet(
			"snack", "appetizer", "finger food", "dip", "chips", "popcorn",
			"energy ball", "trail mix", "tapas", "mezze",
		)},
	}

	v.cuisines = []cuisineRule{
		cuisine("Italian", "italian", "pasta", "risotto", "parmigiano", "parmesan", "mozzarella", "basil", "marinara", "carbonara", "lasagna", "tiramisu", "bruschetta"),
		cuisine("Mexican", "mexican", "taco", "burrito", "enchilada", "salsa", "guacamole", "tortilla", "cilantro", "jalapeño", "jalapeno", "chipotle", "fajita", "quesadilla"),
		cuisine("Chinese", "chinese", "stir fry", "stir-fry", "wok", "soy sauce", "ginger", "bok choy", "szechuan", "sichuan", "dim sum", "dumpling", "lo mein", "chow mein"),
		cuisine("Japanese", "japanese", "sushi", "ramen", "miso", "teriyaki", "tempura", "wasabi", "udon", "soba", "sake", "mirin", "nori"),
		cuisine("Thai", "thai", "pad thai", "curry paste", "lemongrass", "fish sauce", "coconut milk", "thai basil", "galangal", "kaffir lime"),
		cuisine("Indian", "indian", "curry", "naan", "tandoori", "masala", "tikka", "cumin", "turmeric", "garam masala", "cardamom", "biryani"),
		cuisine("French", "french", "béarnaise", "hollandaise", "croissant", "baguette", "coq au vin", "ratatouille", "crème", "bourguignon", "soufflé"),
		cuisine("Greek", "greek", "feta", "tzatziki", "gyro", "moussaka", "baklava", "oregano", "kalamata", "spanakopita", "souvlaki"),
		cuisine("Korean", "korean", "kimchi", "bibimbap", "bulgogi", "gochujang", "ssamjang", "korean bbq", "banchan"),
		cuisine("Vietnamese", "vietnamese", "pho", "banh mi", "spring roll", "nuoc mam"),
		cuisine("Spanish", "spanish", "paella", "tapas", "chorizo", "gazpacho", "sangria"),
		cuisine("American", "american", "bbq", "barbecue", "burger", "hotdog", "hot dog", "mac and cheese", "southern", "cajun", "creole", "fried chicken"),
		cuisine("Middle Eastern", "middle eastern", "hummus", "falafel", "tahini", "shawarma", "pita", "chickpea", "couscous", "kebab", "baba ganoush"),
		cuisine("Mediterranean", "mediterranean", "olive oil", "feta", "olive", "lemon"),
	}

	v.dietary = []dietaryRule{
		{"vegetarian", newKeywordSet("vegetarian", "veggie")},
		{"vegan", newKeywordSet("vegan", "plant-based", "plant based")},
		{"gluten-free", newKeywordSet("gluten-free", "gluten free", "gf")},
		{"dairy-free", newKeywordSet("dairy-free", "dairy free", "lactose-free")},
		{"keto", newKeywordSet("keto", "ketogenic", "low-carb", "low carb")},
		{"paleo", newKeywordSet("paleo", "paleolithic")},
		{"whole30", newKeywordSet("whole30", "whole 30")},
		{"low-fat", newKeywordSet("low-fat", "low fat", "fat-free")},
		{"sugar-free", newKeywordSet("sugar-free", "sugar free", "no sugar")},
		{"nut-free", newKeywordSet("nut-free", "nut free")},
		{"soy-free", newKeywordSet("soy-free", "soy free")},
		{"kosher", newKeywordSet("kosher")},
		{"halal", newKeywordSet("halal")},
	}

	return v
}

func cuisine(name string, keywords ...string) cuisineRule {
	return cuisineRule{
		name:     name,
		literal:  newKeywordSet(strings.ToLower(name)),
		keywords: newKeywordSet(keywords...),
	}
}

// IsActionVerb 單一字詞是否為烹飪動作動詞
func (v *Vocabulary) IsActionVerb(word string) bool {
	return v.actionVerbs.Has(strings.ToLower(word))
}

// IsDescriptor 大小、顏色與狀態等形容詞
func (v *Vocabulary) IsDescriptor(word string) bool {
	return v.descriptors.Has(strings.ToLower(word))
}

// IsSectionHeader 整行是否只是段落標題
func (v *Vocabulary) IsSectionHeader(line string) bool {
	return v.sectionHeaders[strings.Trim(strings.ToLower(line), " :*#_-")]
}

// IsUnitToken 是否為份量單位（含罐、瓣等容器單位）
func (v *Vocabulary) IsUnitToken(word string) bool {
	return amount.IsUnit(word)
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"recipe-extractor/internal/core/extract"
	"recipe-extractor/internal/core/ingest"
	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

const maxPromptText = 12000

const promptTemplate = `Extract the recipe from the post below and answer with a single JSON object only.
Rules:
1. Use only what the post says. Do not invent ingredients or steps.
2. "amount" holds the quantity and unit ("1 1/2 cups"); leave it empty when the post gives none.
3. Put preparation words ("minced", "softened") in "notes", not in "item".
4. Section headers such as "For the sauce" are not ingredients.
5. "difficulty" is one of easy, medium, hard; "meal_type" is one of breakfast, lunch, dinner, snack, dessert; use null when unsure.
Format:
{"title":"","description":"","ingredients":[{"item":"","amount":"","notes":""}],"instructions":[{"title":"","description":""}],"prep_time":"","cook_time":"","chill_time":"","pan_size":"","difficulty":null,"cuisine":null,"meal_type":null,"dietary_tags":[]}

Title hint: %s

Post:
%s`

// modelRecipe 模型回傳的 JSON
type modelRecipe struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Ingredients []struct {
		Item   string `json:"item"`
		Amount string `json:"amount"`
		Notes  string `json:"notes"`
	} `json:"ingredients"`
	Instructions []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"instructions"`
	PrepTime    string   `json:"prep_time"`
	CookTime    string   `json:"cook_time"`
	ChillTime   string   `json:"chill_time"`
	PanSize     string   `json:"pan_size"`
	Difficulty  *string  `json:"difficulty"`
	Cuisine     *string  `json:"cuisine"`
	MealType    *string  `json:"meal_type"`
	DietaryTags []string `json:"dietary_tags"`
}

// Extractor 以模型擷取食譜
type Extractor struct {
	provider      Provider
	maxItemLength int
	filter        *extract.Filter
	meta          *extract.MetadataExtractor

	dropped atomic.Int64
}

// NewExtractor 創建模型擷取器
func NewExtractor(p Provider, maxItemLength int) *Extractor {
	return &Extractor{
		provider:      p,
		maxItemLength: maxItemLength,
		filter:        extract.NewFilter(nil),
		meta:          extract.NewMetadataExtractor(nil),
	}
}

// Dropped 累計被捨棄的模型食材數
func (e *Extractor) Dropped() int64 {
	return e.dropped.Load()
}

// Extract 呼叫模型並把結果整理成與規則擷取相同形狀的紀錄
func (e *Extractor) Extract(ctx context.Context, text, title string) (extract.RecipeRecord, error) {
	n := extract.Normalize(text)
	prompt := fmt.Sprintf(promptTemplate, strings.TrimSpace(title), common.Truncate(n.Text, maxPromptText))

	resp, err := e.provider.Generate(ctx, &Request{
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: 0.1,
	})
	if err != nil {
		return extract.RecipeRecord{}, common.ErrLLMServiceError.Wrap(err)
	}

	var out modelRecipe
	raw := common.ExtractJSONObject(resp.Content)
	if err := common.ParseJSON(raw, &out); err != nil {
		if err2 := common.ParseJSON(common.QuoteJSONKeys(raw), &out); err2 != nil {
			common.LogWarn("模型回應不是合法 JSON", zap.String("model", e.provider.GetModel()), zap.Error(err))
			return extract.RecipeRecord{}, common.ErrLLMServiceError.Wrap(fmt.Errorf("invalid model response: %w", err))
		}
	}

	return e.clean(n, title, out), nil
}

// clean 套用與規則擷取相同的修正、過濾與佔位規則
func (e *Extractor) clean(n extract.Normalized, override string, out modelRecipe) extract.RecipeRecord {
	items := make([]extract.IngredientRecord, 0, len(out.Ingredients))
	invalid := 0
	for _, it := range out.Ingredients {
		rec, err := extract.NewIngredient(it.Item, it.Amount, it.Notes)
		if err != nil {
			invalid++
			continue
		}
		items = append(items, rec)
	}
	items, skipped := ingest.Repair(items, e.maxItemLength)
	items, filtered := e.filter.Strict(items)
	dropped := invalid + skipped + filtered
	e.dropped.Add(int64(dropped))
	common.LogDebug("model recipe cleaned",
		zap.String("model", e.provider.GetModel()),
		zap.Int("model_ingredients", len(out.Ingredients)),
		zap.Int("invalid", invalid),
		zap.Int("skipped", skipped),
		zap.Int("dropped", dropped),
	)
	if len(items) == 0 {
		items = []extract.IngredientRecord{extract.PlaceholderIngredient()}
	}

	steps := make([]extract.InstructionRecord, 0, len(out.Instructions))
	for _, s := range out.Instructions {
		if strings.TrimSpace(s.Description) == "" {
			continue
		}
		steps = append(steps, extract.NewInstruction(len(steps)+1, s.Title, s.Description))
	}
	if len(steps) == 0 {
		steps = []extract.InstructionRecord{extract.PlaceholderInstruction()}
	}

	title := strings.TrimSpace(override)
	if title == "" {
		title = strings.TrimSpace(out.Title)
	}
	if title == "" {
		title = e.meta.Title(n, "")
	}
	title = common.Truncate(title, extract.MaxTitleLength)

	rec := extract.RecipeRecord{
		Title:        title,
		Description:  common.StringPtr(common.Truncate(strings.TrimSpace(out.Description), extract.MaxDescriptionLength)),
		Ingredients:  items,
		Instructions: steps,
		PrepTime:     common.StringPtr(strings.TrimSpace(out.PrepTime)),
		CookTime:     common.StringPtr(strings.TrimSpace(out.CookTime)),
		ChillTime:    common.StringPtr(strings.TrimSpace(out.ChillTime)),
		PanSize:      common.StringPtr(strings.TrimSpace(out.PanSize)),
	}
	if rec.Description == nil {
		rec.Description = e.meta.Description(n, title)
	}
	prep, cook, chill := e.meta.Times(n.Text)
	rec.PrepTime = fallback(rec.PrepTime, prep)
	rec.CookTime = fallback(rec.CookTime, cook)
	rec.ChillTime = fallback(rec.ChillTime, chill)
	rec.PanSize = fallback(rec.PanSize, e.meta.PanSize(n.Text))

	realSteps := 0
	for _, s := range steps {
		if !s.IsPlaceholder() {
			realSteps++
		}
	}
	md := e.meta.Classify(n.Text, title, rec.IngredientNames(), realSteps)

	rec.Difficulty = md.Difficulty
	if d := parseDifficulty(out.Difficulty); d != nil {
		rec.Difficulty = d
	}
	rec.MealType = md.MealType
	if m := parseMealType(out.MealType); m != nil {
		rec.MealType = m
	}
	rec.Cuisine = md.Cuisine
	if c := common.StringPtr(strings.TrimSpace(common.Deref(out.Cuisine))); c != nil {
		rec.Cuisine = c
	}
	rec.DietaryTags = md.DietaryTags
	if tags := normalizeTags(out.DietaryTags); len(tags) > 0 {
		rec.DietaryTags = tags
	}
	return rec
}

func fallback(v, alt *string) *string {
	if v != nil {
		return v
	}
	return alt
}

func parseDifficulty(s *string) *extract.Difficulty {
	switch d := extract.Difficulty(strings.ToLower(strings.TrimSpace(common.Deref(s)))); d {
	case extract.DifficultyEasy, extract.DifficultyMedium, extract.DifficultyHard:
		return &d
	}
	return nil
}

func parseMealType(s *string) *extract.MealType {
	switch m := extract.MealType(strings.ToLower(strings.TrimSpace(common.Deref(s)))); m {
	case extract.MealBreakfast, extract.MealLunch, extract.MealDinner, extract.MealSnack, extract.MealDessert:
		return &m
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

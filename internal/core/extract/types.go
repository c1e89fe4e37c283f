// Package extract 從格式混亂的食譜文字中擷取結構化食譜，不做任何 I/O
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Difficulty 難度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// MealType 餐別
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
	MealDessert   MealType = "dessert"
)

// Tier 段落擷取策略
type Tier string

const (
	TierNone     Tier = ""
	TierRobust   Tier = "robust"
	TierImproved Tier = "improved"
	TierLenient  Tier = "lenient"
)

// 哨兵值與佔位內容
const (
	UntitledRecipe          = "Untitled Recipe"
	DefaultAmount           = "to taste"
	PlaceholderItem         = "Ingredients listed in recipe text"
	PlaceholderAmount       = "See recipe"
	PlaceholderStepTitle    = "Preparation"
	PlaceholderInstructions = "See full recipe text for instructions"

	MinItemLength  = 2
	MaxItemLength  = 200
	MaxNotesLength = 500
)

// IngredientRecord 食材
type IngredientRecord struct {
	Item   string  `json:"item"`
	Amount string  `json:"amount"`
	Notes  *string `json:"notes,omitempty"`
}

// NewIngredient 建立食材，品名長度不符時回傳錯誤
func NewIngredient(item, amount, notes string) (IngredientRecord, error) {
	item = strings.TrimSpace(item)
	n := utf8.RuneCountInString(item)
	if n < MinItemLength || n > MaxItemLength {
		return IngredientRecord{}, fmt.Errorf("ingredient item length %d out of range", n)
	}
	amount = strings.TrimSpace(amount)
	if amount == "" {
		amount = DefaultAmount
	}
	rec := IngredientRecord{Item: item, Amount: amount}
	if notes = strings.TrimSpace(notes); notes != "" {
		if utf8.RuneCountInString(notes) > MaxNotesLength {
			notes = string([]rune(notes)[:MaxNotesLength])
		}
		rec.Notes = &notes
	}
	return rec, nil
}

// Line 還原成單行文字（份量 + 品名）
func (r IngredientRecord) Line() string {
	if r.Amount == "" || r.Amount == DefaultAmount {
		return r.Item
	}
	return r.Amount + " " + r.Item
}

// IsPlaceholder 是否為佔位食材
func (r IngredientRecord) IsPlaceholder() bool {
	return r.Item == PlaceholderItem && r.Amount == PlaceholderAmount
}

// InstructionRecord 步驟
type InstructionRecord struct {
	Step        int    `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DefaultStepTitle 預設步驟標題
func DefaultStepTitle(step int) string {
	return fmt.Sprintf("Step %d", step)
}

// NewInstruction 建立步驟，標題留空時補上 "Step N"
func NewInstruction(step int, title, description string) InstructionRecord {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultStepTitle(step)
	}
	return InstructionRecord{Step: step, Title: title, Description: strings.TrimSpace(description)}
}

// HasDefaultTitle 標題是否為預設的 "Step N"
func (r InstructionRecord) HasDefaultTitle() bool {
	return r.Title == DefaultStepTitle(r.Step)
}

// IsPlaceholder 是否為佔位步驟
func (r InstructionRecord) IsPlaceholder() bool {
	return r.Description == PlaceholderInstructions
}

// RecipeRecord 擷取結果
type RecipeRecord struct {
	Title        string              `json:"title"`
	Description  *string             `json:"description,omitempty"`
	Ingredients  []IngredientRecord  `json:"ingredients"`
	Instructions []InstructionRecord `json:"instructions"`
	PrepTime     *string             `json:"prep_time,omitempty"`
	CookTime     *string             `json:"cook_time,omitempty"`
	ChillTime    *string             `json:"chill_time,omitempty"`
	PanSize      *string             `json:"pan_size,omitempty"`
	Difficulty   *Difficulty         `json:"difficulty,omitempty"`
	Cuisine      *string             `json:"cuisine,omitempty"`
	MealType     *MealType           `json:"meal_type,omitempty"`
	DietaryTags  []string            `json:"dietary_tags,omitempty"`
}

// IngredientNames 回傳非佔位食材的品名
func (r RecipeRecord) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if ing.IsPlaceholder() {
			continue
		}
		names = append(names, ing.Item)
	}
	return names
}

// TierResult 某一段落的候選行與產生它們的策略
type TierResult struct {
	Candidates []string `json:"candidates"`
	Tier       Tier     `json:"tier"`
}

// Empty 是否沒有候選行
func (t TierResult) Empty() bool {
	return len(t.Candidates) == 0
}

// Segments 食材與步驟兩段的切分結果
type Segments struct {
	Ingredients  TierResult `json:"ingredients"`
	Instructions TierResult `json:"instructions"`
}

// PlaceholderIngredient 擷取不到食材時的佔位
func PlaceholderIngredient() IngredientRecord {
	return IngredientRecord{Item: PlaceholderItem, Amount: PlaceholderAmount}
}

// PlaceholderInstruction 擷取不到步驟時的佔位
func PlaceholderInstruction() InstructionRecord {
	return InstructionRecord{Step: 1, Title: PlaceholderStepTitle, Description: PlaceholderInstructions}
}

// Package ingest 寫入前的最後一道關卡：修正、過濾、計數、正規化份量並產生識別碼
package ingest

import (
	"strings"
	"time"

	"recipe-extractor/internal/core/amount"
	"recipe-extractor/internal/core/extract"
)

// StoredIngredient 寫入儲存層的食材，保留原始份量並附上解析結果
type StoredIngredient struct {
	Item     string           `json:"item"`
	Amount   string           `json:"amount"`
	Notes    *string          `json:"notes,omitempty"`
	Quantity *float64         `json:"quantity,omitempty"`
	Unit     *string          `json:"unit,omitempty"`
	UnitType *amount.UnitType `json:"unit_type,omitempty"`
}

// StoredRecipe 寫入儲存層的食譜
type StoredRecipe struct {
	ID           string             `json:"id"`
	Source       string             `json:"source"`
	Title        string             `json:"title"`
	Description  *string            `json:"description,omitempty"`
	Ingredients  []StoredIngredient `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	PrepTime     *string            `json:"prep_time,omitempty"`
	CookTime     *string            `json:"cook_time,omitempty"`
	ChillTime    *string            `json:"chill_time,omitempty"`
	PanSize      *string            `json:"pan_size,omitempty"`
	Difficulty   *string            `json:"difficulty,omitempty"`
	Cuisine      *string            `json:"cuisine,omitempty"`
	MealType     *string            `json:"meal_type,omitempty"`
	DietaryTags  []string           `json:"dietary_tags,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// HasPlaceholderInstructions 步驟是否只有佔位內容
func (r *StoredRecipe) HasPlaceholderInstructions() bool {
	for _, s := range r.Instructions {
		if strings.Contains(s, extract.PlaceholderInstructions) {
			return true
		}
	}
	return false
}

// Clone 深拷貝，避免呼叫端修改儲存層內的資料
func (r *StoredRecipe) Clone() *StoredRecipe {
	if r == nil {
		return nil
	}
	c := *r
	c.Ingredients = append([]StoredIngredient(nil), r.Ingredients...)
	c.Instructions = append([]string(nil), r.Instructions...)
	c.DietaryTags = append([]string(nil), r.DietaryTags...)
	return &c
}

// NormalizeIngredient 把份量文字解析成數量與單位
func NormalizeIngredient(it extract.IngredientRecord) StoredIngredient {
	n := amount.Parse(it.Amount)
	return StoredIngredient{
		Item:     it.Item,
		Amount:   it.Amount,
		Notes:    it.Notes,
		Quantity: n.Quantity,
		Unit:     n.Unit,
		UnitType: n.UnitType,
	}
}

// InstructionStrings 步驟轉成字串；預設標題 "Step N" 不寫入
func InstructionStrings(steps []extract.InstructionRecord) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		if s.HasDefaultTitle() || s.Title == "" {
			out = append(out, s.Description)
			continue
		}
		out = append(out, s.Title+": "+s.Description)
	}
	return out
}

func enumPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

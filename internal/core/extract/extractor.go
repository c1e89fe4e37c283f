package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"recipe-extractor/internal/pkg/common"
)

const stepTitleWindow = 50

var stepLabelPattern = regexp.MustCompile(`(?i)^step\s*\d+$`)

// Option 設定 Extractor
type Option func(*Extractor)

// WithVocabulary 替換字彙表
func WithVocabulary(v *Vocabulary) Option {
	return func(e *Extractor) {
		if v != nil {
			e.vocab = v
		}
	}
}

// WithLimits 設定每段候選行上限
func WithLimits(cfg SegmenterConfig) Option {
	return func(e *Extractor) {
		e.limits = cfg
	}
}

// Extractor 文字到 RecipeRecord 的完整流程。不持有可變狀態，可同時被多個 goroutine 使用
type Extractor struct {
	vocab     *Vocabulary
	limits    SegmenterConfig
	segmenter *Segmenter
	parser    *LineParser
	filter    *Filter
	meta      *MetadataExtractor
}

// New 建立 Extractor
func New(opts ...Option) *Extractor {
	e := &Extractor{vocab: DefaultVocabulary()}
	for _, opt := range opts {
		opt(e)
	}
	e.segmenter = NewSegmenter(e.vocab, e.limits)
	e.parser = NewLineParser(e.vocab)
	e.filter = NewFilter(e.vocab)
	e.meta = NewMetadataExtractor(e.vocab)
	return e
}

// Result 擷取結果與過程資訊
type Result struct {
	Record          RecipeRecord `json:"record"`
	IngredientTier  Tier         `json:"ingredient_tier"`
	InstructionTier Tier         `json:"instruction_tier"`
	Dropped         int          `json:"dropped"`
}

// Extract 擷取食譜；任何輸入都回傳完整的紀錄
func (e *Extractor) Extract(text, title string) RecipeRecord {
	return e.ExtractDetailed(text, title).Record
}

// ExtractDetailed 同 Extract，另外回傳使用的策略層級與被丟棄的食材數
func (e *Extractor) ExtractDetailed(text, titleOverride string) Result {
	n := Normalize(text)
	seg := e.segmenter.Segment(n)

	ingredients, dropped := e.buildIngredients(seg.Ingredients)
	instructions := e.buildInstructions(seg.Instructions)

	title := e.meta.Title(n, titleOverride)
	rec := RecipeRecord{
		Title:        title,
		Description:  e.meta.Description(n, title),
		Ingredients:  ingredients,
		Instructions: instructions,
		PanSize:      e.meta.PanSize(n.Text),
	}
	rec.PrepTime, rec.CookTime, rec.ChillTime = e.meta.Times(n.Text)

	steps := 0
	for _, ins := range instructions {
		if !ins.IsPlaceholder() {
			steps++
		}
	}
	md := e.meta.Classify(n.Text, title, rec.IngredientNames(), steps)
	rec.Difficulty = md.Difficulty
	rec.Cuisine = md.Cuisine
	rec.MealType = md.MealType
	rec.DietaryTags = md.DietaryTags

	common.LogDebug("recipe extracted",
		zap.String("title", title),
		zap.String("ingredient_tier", string(seg.Ingredients.Tier)),
		zap.String("instruction_tier", string(seg.Instructions.Tier)),
		zap.Int("ingredients", len(ingredients)),
		zap.Int("instructions", len(instructions)),
		zap.Int("dropped", dropped),
	)

	return Result{
		Record:          rec,
		IngredientTier:  seg.Ingredients.Tier,
		InstructionTier: seg.Instructions.Tier,
		Dropped:         dropped,
	}
}

// ParseIngredient 解析單行食材
func (e *Extractor) ParseIngredient(line string) *IngredientRecord {
	return e.parser.Parse(line)
}

// Filter 回傳共用的過濾器
func (e *Extractor) Filter() *Filter {
	return e.filter
}

// Segment 只做段落切分
func (e *Extractor) Segment(text string) Segments {
	return e.segmenter.Segment(Normalize(text))
}

func (e *Extractor) buildIngredients(tr TierResult) ([]IngredientRecord, int) {
	parsed := make([]IngredientRecord, 0, len(tr.Candidates))
	rejected := 0
	for _, c := range tr.Candidates {
		rec := e.parser.Parse(c)
		if rec == nil {
			rejected++
			continue
		}
		parsed = append(parsed, *rec)
	}

	var kept []IngredientRecord
	var dropped int
	if tr.Tier == TierLenient {
		kept, dropped = e.filter.Lenient(parsed)
	} else {
		kept, dropped = e.filter.Strict(parsed)
	}

	if len(kept) == 0 {
		kept = []IngredientRecord{PlaceholderIngredient()}
	}
	return kept, rejected + dropped
}

func (e *Extractor) buildInstructions(tr TierResult) []InstructionRecord {
	out := make([]InstructionRecord, 0, len(tr.Candidates))
	for _, c := range tr.Candidates {
		title, desc := splitStepTitle(c)
		if desc == "" {
			continue
		}
		out = append(out, NewInstruction(len(out)+1, title, desc))
	}
	if len(out) == 0 {
		return []InstructionRecord{PlaceholderInstruction()}
	}
	return out
}

// splitStepTitle "Make the sauce: whisk ..." 拆成標題與內容；"Step 2:" 只去掉前綴
func splitStepTitle(line string) (title, desc string) {
	line = strings.TrimSpace(line)
	idx := strings.Index(line, ":")
	if idx <= 0 || idx >= stepTitleWindow {
		return "", line
	}

	prefix := strings.TrimSpace(line[:idx])
	rest := strings.TrimSpace(line[idx+1:])
	if stepLabelPattern.MatchString(prefix) {
		if rest == "" {
			return "", line
		}
		return "", rest
	}
	if startsUpper(prefix) && runeLen(rest) >= 10 {
		return prefix, rest
	}
	return "", line
}

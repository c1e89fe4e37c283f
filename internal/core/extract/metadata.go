package extract

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	MaxTitleLength       = 500
	MaxDescriptionLength = 1000

	titleScanLines = 5
)

var (
	titleLabelPattern = regexp.MustCompile(`(?i)^(?:#+\s*)?(?:\*\*)?\s*(?:recipe|title)\s*:\s*(?:\*\*)?\s*(.+?)\s*(?:\*\*)?$`)
	boldTitlePattern  = regexp.MustCompile(`^(?:#+\s*)?\*\*(.+?)\*\*$`)
	headingPattern    = regexp.MustCompile(`^#+\s*(.+)$`)
	quantityStart     = regexp.MustCompile(`^\s*[\d½¼¾⅓⅔⅛]`)
	// "Difficulty: Medium"、"Prep time: 15 minutes" 這類標示行
	labelLinePattern  = regexp.MustCompile(`^[\p{L}][\p{L} ]{0,29}:\s*\S`)

	timeValue    = `(\d+(?:\s*(?:-|–|to)\s*\d+)?\s*(?:hours?|hrs?|h|minutes?|mins?|m)\b(?:\s*(?:and\s*)?\d+\s*(?:minutes?|mins?|m)\b)?)`
	prepPattern  = regexp.MustCompile(`(?i)\bprep(?:aration)?\s*time\s*[:\-]?\s*(?:\*\*)?\s*` + timeValue)
	cookPattern  = regexp.MustCompile(`(?i)\b(?:cook(?:ing)?|bake|baking)\s*time\s*[:\-]?\s*(?:\*\*)?\s*` + timeValue)
	chillPattern = regexp.MustCompile(`(?i)\b(?:chill(?:ing)?|refrigerat(?:e|ion)|setting|resting)\s*time\s*[:\-]?\s*(?:\*\*)?\s*` + timeValue)

	panDimsPattern  = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s*(?:x|×|by)\s*\d+(?:\.\d+)?(?:\s*(?:x|×|by)\s*\d+(?:\.\d+)?)?\s*(?:-?inch(?:es)?|in\.?|"|cm)?(?:\s+[a-z]+){0,2}\s+(?:pan|dish|tin))\b`)
	panRoundPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s*-?\s*(?:inch|in\.|"|cm)\s+(?:[a-z]+\s+){0,2}(?:pan|dish|tin|skillet))\b`)
	potPattern      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s*-?\s*(?:quart|qt\.?)\s+(?:[a-z]+\s+){0,2}(?:pot|dutch oven|slow cooker|pan|dish))\b`)

	descLabelPattern = regexp.MustCompile(`(?i)^(?:\*\*)?\s*(?:description|about)\s*:\s*(?:\*\*)?\s*(.+)$`)

	bulletLinePattern = regexp.MustCompile(`(?m)^\s*[-*•]\s`)
	stepLinePattern   = regexp.MustCompile(`(?m)^\s*\d+[.)]`)
)

// Metadata 推論出的分類資訊
type Metadata struct {
	Difficulty  *Difficulty
	Cuisine     *string
	MealType    *MealType
	DietaryTags []string
}

// MetadataExtractor 標題、描述、時間與分類推論
type MetadataExtractor struct {
	vocab *Vocabulary
}

// NewMetadataExtractor 建立 MetadataExtractor
func NewMetadataExtractor(vocab *Vocabulary) *MetadataExtractor {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &MetadataExtractor{vocab: vocab}
}

// Classify 一次推論難度、菜系、餐別與飲食標籤
func (m *MetadataExtractor) Classify(text, title string, ingredients []string, steps int) Metadata {
	return Metadata{
		Difficulty:  m.Difficulty(title+"\n"+text, len(ingredients), steps),
		Cuisine:     m.Cuisine(title, text+"\n"+strings.Join(ingredients, "\n")),
		MealType:    m.MealType(text, title, ingredients),
		DietaryTags: m.DietaryTags(title+"\n"+text, ingredients),
	}
}

// Title 擷取標題；有指定時優先使用
func (m *MetadataExtractor) Title(n Normalized, override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return truncateRunes(override, MaxTitleLength)
	}

	for _, line := range n.Lines {
		if mt := titleLabelPattern.FindStringSubmatch(line); mt != nil {
			if t := strings.TrimSpace(mt[1]); t != "" {
				return truncateRunes(t, MaxTitleLength)
			}
		}
	}

	head := n.Lines
	if len(head) > titleScanLines {
		head = head[:titleScanLines]
	}

	for _, line := range head {
		candidate, emphasized := stripTitleMarkup(line)
		size := runeLen(candidate)
		if size < 10 || size > 100 {
			continue
		}
		if !emphasized && !startsUpper(candidate) {
			continue
		}
		if m.notTitle(candidate) {
			continue
		}
		return candidate
	}

	for _, line := range head {
		if listPrefixPattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		candidate, _ := stripTitleMarkup(line)
		if size := runeLen(candidate); size < 10 || size > 150 {
			continue
		}
		if m.notTitle(candidate) {
			continue
		}
		return candidate
	}
	return UntitledRecipe
}

func (m *MetadataExtractor) notTitle(line string) bool {
	if quantityStart.MatchString(line) || numberedPattern.MatchString(line) {
		return true
	}
	if strings.HasSuffix(line, ":") || m.vocab.IsSectionHeader(line) || labelLinePattern.MatchString(line) {
		return true
	}
	fields := strings.Fields(line)
	return len(fields) > 0 && m.vocab.IsActionVerb(strings.Trim(fields[0], ",.;:"))
}

// Description 優先取 "Description:" 標示行，否則取標題之後、食材段之前的第一段敘述
func (m *MetadataExtractor) Description(n Normalized, title string) *string {
	for _, line := range n.Lines {
		if mt := descLabelPattern.FindStringSubmatch(line); mt != nil {
			if d := strings.TrimSpace(mt[1]); d != "" {
				d = truncateRunes(d, MaxDescriptionLength)
				return &d
			}
		}
	}

	for _, line := range n.Lines {
		clean, _ := stripTitleMarkup(line)
		if clean == title || titleLabelPattern.MatchString(line) {
			continue
		}
		lower := markerText(clean)
		if m.vocab.IsSectionHeader(clean) {
			return nil
		}
		if runeLen(lower) <= 60 && (containsAny(lower, m.vocab.ingredientStart) || containsAny(lower, m.vocab.instructionMark)) {
			return nil
		}
		if quantityStart.MatchString(clean) || listPrefixPattern.MatchString(line) {
			continue
		}
		if runeLen(clean) >= 30 {
			d := truncateRunes(clean, MaxDescriptionLength)
			return &d
		}
	}
	return nil
}

// Times 備料、烹調與冷藏時間
func (m *MetadataExtractor) Times(text string) (prep, cook, chill *string) {
	return findTime(prepPattern, text), findTime(cookPattern, text), findTime(chillPattern, text)
}

func findTime(p *regexp.Regexp, text string) *string {
	mt := p.FindStringSubmatch(text)
	if mt == nil {
		return nil
	}
	v := strings.TrimSpace(mt[1])
	return &v
}

// PanSize 烤模尺寸，例如 9x13 inch pan
func (m *MetadataExtractor) PanSize(text string) *string {
	for _, p := range []*regexp.Regexp{panDimsPattern, panRoundPattern, potPattern} {
		if mt := p.FindStringSubmatch(text); mt != nil {
			v := strings.TrimSpace(mt[1])
			return &v
		}
	}
	return nil
}

// Difficulty 明確關鍵字優先，否則依食材數、步驟數與進階技巧推估
func (m *MetadataExtractor) Difficulty(text string, ingredients, steps int) *Difficulty {
	lower := strings.ToLower(text)
	for _, rule := range m.vocab.difficulty {
		if rule.keywords.Any(lower) {
			d := rule.level
			return &d
		}
	}

	if b := len(bulletLinePattern.FindAllStringIndex(text, -1)); b > ingredients {
		ingredients = b
	}
	if s := len(stepLinePattern.FindAllStringIndex(text, -1)); s > steps {
		steps = s
	}

	var d Difficulty
	switch {
	case m.vocab.advancedTechniques.Any(lower) || ingredients > 15 || steps > 10:
		d = DifficultyHard
	case ingredients > 8 || steps > 5:
		d = DifficultyMedium
	case ingredients > 0 || steps > 0:
		d = DifficultyEasy
	default:
		return nil
	}
	return &d
}

// Cuisine 依序：標題直接出現菜系名稱、全文命中兩個以上關鍵字（取最多者，同分依表格順序）、標題命中單一關鍵字
func (m *MetadataExtractor) Cuisine(title, text string) *string {
	lowerTitle := strings.ToLower(title)
	lower := lowerTitle + "\n" + strings.ToLower(text)

	for _, rule := range m.vocab.cuisines {
		if rule.literal.Any(lowerTitle) {
			return strPtr(rule.name)
		}
	}

	best, bestScore := "", 1
	for _, rule := range m.vocab.cuisines {
		if score := rule.keywords.Count(lower); score > bestScore {
			best, bestScore = rule.name, score
		}
	}
	if best != "" {
		return strPtr(best)
	}

	for _, rule := range m.vocab.cuisines {
		if rule.keywords.Any(lowerTitle) {
			return strPtr(rule.name)
		}
	}
	return nil
}

// MealType 餐別；晚餐與甜點同時命中時以標題與命中數決定
func (m *MetadataExtractor) MealType(text, title string, ingredients []string) *MealType {
	lowerTitle := strings.ToLower(title)
	lower := lowerTitle + "\n" + strings.ToLower(text)
	v := m.vocab

	dinner, dessert := v.dinner.Count(lower), v.dessert.Count(lower)
	if dinner > 0 && dessert > 0 {
		inTitleDinner, inTitleDessert := v.dinner.Any(lowerTitle), v.dessert.Any(lowerTitle)
		switch {
		case inTitleDinner && !inTitleDessert:
			return mealPtr(MealDinner)
		case inTitleDessert && !inTitleDinner:
			return mealPtr(MealDessert)
		case dinner >= dessert:
			return mealPtr(MealDinner)
		default:
			return mealPtr(MealDessert)
		}
	}

	for _, rule := range v.meals {
		if rule.keywords.Any(lower) {
			return mealPtr(rule.meal)
		}
	}

	names := strings.ToLower(strings.Join(ingredients, "\n"))
	if names != "" && v.sweetIngredients.Any(names) && !v.savoryProteins.Any(names) {
		return mealPtr(MealDessert)
	}
	return nil
}

// DietaryTags 關鍵字標籤優先；沒有任何關鍵字時才由食材推論素食標籤。結果依字彙表順序
func (m *MetadataExtractor) DietaryTags(text string, ingredients []string) []string {
	lower := strings.ToLower(text)
	found := map[string]bool{}
	for _, rule := range m.vocab.dietary {
		if rule.keywords.Any(lower) {
			found[rule.tag] = true
		}
	}

	if len(found) == 0 && len(ingredients) > 0 {
		all := lower + "\n" + strings.ToLower(strings.Join(ingredients, "\n"))
		meat := m.vocab.meat.Any(all)
		animal := m.vocab.dairy.Any(all) || m.vocab.egg.Any(all)
		switch {
		case !meat && !animal:
			found["vegan"] = true
			found["vegetarian"] = true
		case !meat:
			found["vegetarian"] = true
		}
	}

	var tags []string
	for _, rule := range m.vocab.dietary {
		if found[rule.tag] {
			tags = append(tags, rule.tag)
		}
	}
	return tags
}

func stripTitleMarkup(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if mt := boldTitlePattern.FindStringSubmatch(line); mt != nil {
		return strings.TrimSpace(mt[1]), true
	}
	if mt := headingPattern.FindStringSubmatch(line); mt != nil {
		return strings.TrimSpace(strings.ReplaceAll(mt[1], "**", "")), true
	}
	return strings.TrimSpace(strings.ReplaceAll(line, "**", "")), false
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func mealPtr(m MealType) *MealType { return &m }

func strPtr(s string) *string { return &s }

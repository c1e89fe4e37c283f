package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	defaultMaxItems   = 30
	defaultLenientMax = 20
)

var (
	// 段落錨點：獨立成行的標題，或行內帶冒號的關鍵字
	ingredientLineAnchor   = regexp.MustCompile(`(?im)^[ \t#>*_•\-]*(ingredient list|ingredients?|what you(?: will|'ll)? need|you will need|shopping list)[ \t*_]*(?:\([^)\n]*\))?[ \t*_]*(:)?[ \t*_]*`)
	ingredientInlineAnchor = regexp.MustCompile(`(?i)(?:\*\*)?\bingredients?\b(?:\*\*)?[ \t]*:(?:\*\*)?`)

	instructionLineAnchor   = regexp.MustCompile(`(?im)^[ \t#>*_•\-]*(instructions?|directions?|method|steps?|preparation|how to make it|how to make|how to)[ \t*_]*(?:\([^)\n]*\))?[ \t*_]*(:)?[ \t*_]*`)
	instructionInlineAnchor = regexp.MustCompile(`(?i)(?:\*\*)?\b(?:instructions?|directions?|method|steps?|preparation)\b(?:\*\*)?[ \t]*:(?:\*\*)?`)

	trailerLineAnchor = regexp.MustCompile(`(?im)^[ \t#>*_]*(notes?|tips?|nutrition(?: facts)?|storage)[ \t*_]*(?:\([^)\n]*\))?[ \t*_]*(:)?[ \t*_]*`)

	listPrefixPattern     = regexp.MustCompile(`^(?:[•◦▪▫●○■□►▸‣⁃·✓✔]+\s*|[*\-–—]\s+|\d{1,2}[.)]\s+)`)
	numberedPattern       = regexp.MustCompile(`^\d{1,2}[.)]\s+`)
	inlineSplitPattern    = regexp.MustCompile(`(?:^|\s)(?:\d{1,2}[.)]|[*\-•◦▪▫●○■□►▸‣⁃·])\s+`)
	secondaryBulletSplit  = regexp.MustCompile(`\s+[•◦▪▫●○■□►▸‣⁃·]\s+`)
	boldLinePattern       = regexp.MustCompile(`^\*\*.*\*\*$`)
	leadingParenPattern   = regexp.MustCompile(`^\([^)]*\):\s*`)
	lenientUnitPattern    = regexp.MustCompile(`(?i)\b(?:cups?|tbsps?|tsps?|tablespoons?|teaspoons?|oz|ounces?|lbs?|pounds?|grams?|g|kg|ml|l|liters?|cloves?|pinch|dash|cans?)\b`)
	digitPattern          = regexp.MustCompile(`\d`)
	videoPrefixes         = []string{"video recipe is", "(video", "recipe video"}
	lenientSkipPrefixes   = []string{"ingredients:", "instructions:", "directions:", "step", "method"}
)

// SegmenterConfig 每段候選行上限
type SegmenterConfig struct {
	MaxIngredients  int
	MaxInstructions int
	LenientMax      int
}

func (c SegmenterConfig) withDefaults() SegmenterConfig {
	if c.MaxIngredients <= 0 {
		c.MaxIngredients = defaultMaxItems
	}
	if c.MaxInstructions <= 0 {
		c.MaxInstructions = defaultMaxItems
	}
	if c.LenientMax <= 0 {
		c.LenientMax = defaultLenientMax
	}
	return c
}

// Segmenter 三層退回的段落切分器
type Segmenter struct {
	vocab *Vocabulary
	cfg   SegmenterConfig
}

// NewSegmenter 建立切分器
func NewSegmenter(vocab *Vocabulary, cfg SegmenterConfig) *Segmenter {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Segmenter{vocab: vocab, cfg: cfg.withDefaults()}
}

// Segment 切出食材與步驟候選行。只有在前一層完全沒有候選行時才退到下一層
func (s *Segmenter) Segment(n Normalized) Segments {
	return Segments{
		Ingredients:  s.Ingredients(n),
		Instructions: s.Instructions(n),
	}
}

// Ingredients 食材候選行
func (s *Segmenter) Ingredients(n Normalized) TierResult {
	if c := s.robustIngredients(n); len(c) > 0 {
		return TierResult{Candidates: c, Tier: TierRobust}
	}
	if c := s.improvedIngredients(n); len(c) > 0 {
		return TierResult{Candidates: c, Tier: TierImproved}
	}
	if c := s.lenientIngredients(n); len(c) > 0 {
		return TierResult{Candidates: c, Tier: TierLenient}
	}
	return TierResult{Tier: TierNone}
}

// Instructions 步驟候選行
func (s *Segmenter) Instructions(n Normalized) TierResult {
	if c := s.robustInstructions(n); len(c) > 0 {
		return TierResult{Candidates: c, Tier: TierRobust}
	}
	if c := s.improvedInstructions(n); len(c) > 0 {
		return TierResult{Candidates: c, Tier: TierImproved}
	}
	if c := s.lenientInstructions(n); len(c) > 0 {
		return TierResult{Candidates: c, Tier: TierLenient}
	}
	return TierResult{Tier: TierNone}
}

// --- tier 1 ---

func (s *Segmenter) robustIngredients(n Normalized) []string {
	_, blockStart, ok := findAnchor(n.Text, ingredientLineAnchor, ingredientInlineAnchor, 0)
	if !ok {
		return nil
	}
	blockEnd := len(n.Text)
	if start, _, ok := findAnchor(n.Text, instructionLineAnchor, instructionInlineAnchor, blockStart); ok {
		blockEnd = start
	}

	var out []string
	for _, raw := range splitBlock(n.Text[blockStart:blockEnd]) {
		item := cleanListItem(raw)
		if runeLen(item) < 3 || s.vocab.IsSectionHeader(item) {
			continue
		}
		out = append(out, item)
		if len(out) >= s.cfg.MaxIngredients {
			break
		}
	}
	return out
}

func (s *Segmenter) robustInstructions(n Normalized) []string {
	from := 0
	if _, end, ok := findAnchor(n.Text, ingredientLineAnchor, ingredientInlineAnchor, 0); ok {
		from = end
	}
	_, blockStart, ok := findAnchor(n.Text, instructionLineAnchor, instructionInlineAnchor, from)
	if !ok {
		return nil
	}
	blockEnd := len(n.Text)
	if start, _, ok := findAnchor(n.Text, trailerLineAnchor, nil, blockStart); ok {
		blockEnd = start
	}

	var out []string
	for _, raw := range splitBlock(n.Text[blockStart:blockEnd]) {
		item := cleanListItem(raw)
		if runeLen(item) < 15 || s.vocab.IsSectionHeader(item) {
			continue
		}
		if strings.HasSuffix(item, ":") && runeLen(item) < 40 {
			continue
		}
		if strings.Contains(item, "**") && runeLen(strings.ReplaceAll(item, "*", "")) < 50 {
			continue
		}
		if hasAnyPrefix(strings.ToLower(item), videoPrefixes) {
			continue
		}
		item = strings.TrimSpace(strings.ReplaceAll(item, "**", ""))
		item = strings.TrimSpace(leadingParenPattern.ReplaceAllString(item, ""))
		if runeLen(item) < 15 {
			continue
		}
		out = append(out, item)
		if len(out) >= s.cfg.MaxInstructions {
			break
		}
	}
	return out
}

// --- tier 2 ---

func (s *Segmenter) improvedIngredients(n Normalized) []string {
	start, end := -1, len(n.Lines)
	for i, line := range n.Lines {
		clean := markerText(line)
		if start < 0 {
			if runeLen(clean) <= 80 && containsAny(clean, s.vocab.ingredientStart) {
				start = i
			}
			continue
		}
		if runeLen(clean) <= 50 && containsAny(clean, s.vocab.ingredientEnd) {
			end = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	var out []string
	for _, line := range n.Lines[start+1 : end] {
		if runeLen(line) < 3 || boldLinePattern.MatchString(line) {
			continue
		}
		item := cleanListItem(strings.ReplaceAll(line, "**", ""))
		if runeLen(item) < 3 || s.vocab.IsSectionHeader(item) {
			continue
		}
		out = append(out, item)
		if len(out) >= s.cfg.MaxIngredients {
			break
		}
	}
	return out
}

func (s *Segmenter) improvedInstructions(n Normalized) []string {
	start := -1
	for i, line := range n.Lines {
		clean := markerText(line)
		if runeLen(clean) <= 60 && containsAny(clean, s.vocab.instructionMark) {
			start = i
			break
		}
	}

	var out []string
	if start >= 0 {
		for _, line := range n.Lines[start+1:] {
			if runeLen(line) < 10 || boldLinePattern.MatchString(line) {
				continue
			}
			line = strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
			if runeLen(line) < 10 || !s.looksLikeInstruction(line) {
				continue
			}
			out = append(out, cleanListItem(line))
			if len(out) >= s.cfg.MaxInstructions {
				break
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	// 沒有段落標記時，退而收集全文中的編號步驟
	for _, line := range n.Lines {
		if numberedPattern.MatchString(line) && runeLen(line) > 15 {
			out = append(out, cleanListItem(strings.ReplaceAll(line, "**", "")))
			if len(out) >= s.cfg.MaxInstructions {
				break
			}
		}
	}
	return out
}

func (s *Segmenter) looksLikeInstruction(line string) bool {
	if runeLen(line) <= 15 {
		return false
	}
	return numberedPattern.MatchString(line) || s.vocab.instructionVerbs.Any(strings.ToLower(line))
}

// --- tier 3 ---

func (s *Segmenter) lenientIngredients(n Normalized) []string {
	var out []string
	for _, line := range n.Lines {
		item := cleanListItem(strings.ReplaceAll(line, "**", ""))
		if item == "" || hasAnyPrefix(strings.ToLower(item), lenientSkipPrefixes) {
			continue
		}
		if runeLen(item) >= 120 {
			continue
		}
		if digitPattern.MatchString(item) || lenientUnitPattern.MatchString(item) {
			out = append(out, item)
			if len(out) >= s.cfg.LenientMax {
				break
			}
		}
	}
	return out
}

func (s *Segmenter) lenientInstructions(n Normalized) []string {
	var out []string
	for _, line := range n.Lines {
		numbered := numberedPattern.MatchString(line)
		item := cleanListItem(strings.ReplaceAll(line, "**", ""))
		size := runeLen(item)
		if size < 15 || size >= 300 {
			continue
		}
		if numbered || s.vocab.lenientVerbs.Any(strings.ToLower(item)) {
			out = append(out, item)
			if len(out) >= s.cfg.LenientMax {
				break
			}
		}
	}
	return out
}

// --- helpers ---

// findAnchor 從 from 起找最早的錨點；行首錨點需帶冒號或獨占一行
func findAnchor(text string, line, inline *regexp.Regexp, from int) (start, end int, ok bool) {
	if from > len(text) {
		return 0, 0, false
	}
	sub := text[from:]
	start, end = -1, -1

	for _, m := range line.FindAllStringSubmatchIndex(sub, -1) {
		hasColon := m[4] >= 0
		rest := sub[m[1]:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		if hasColon || strings.TrimSpace(rest) == "" {
			start, end = m[0], m[1]
			break
		}
	}

	if inline != nil {
		if m := inline.FindStringIndex(sub); m != nil && (start < 0 || m[0] < start) {
			start, end = m[0], m[1]
		}
	}

	if start < 0 {
		return 0, 0, false
	}
	return from + start, from + end, true
}

// splitBlock 先依換行切；只有一行時改依編號或項目符號切，再拆開內嵌的次級符號
func splitBlock(block string) []string {
	parts := splitLines(block)
	if len(parts) <= 1 {
		parts = nil
		for _, p := range inlineSplitPattern.Split(block, -1) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
	}

	var out []string
	for _, p := range parts {
		for _, chunk := range strings.Split(p, "\n\n") {
			for _, piece := range secondaryBulletSplit.Split(chunk, -1) {
				if piece = strings.TrimSpace(piece); piece != "" {
					out = append(out, piece)
				}
			}
		}
	}
	return out
}

// cleanListItem 去掉行首的項目符號或編號
func cleanListItem(line string) string {
	line = strings.TrimSpace(line)
	for {
		stripped := strings.TrimSpace(listPrefixPattern.ReplaceAllString(line, ""))
		if stripped == line {
			return line
		}
		line = stripped
	}
}

// markerText 去掉強調符號後的小寫文字，用於段落標記偵測
func markerText(line string) string {
	return strings.TrimSpace(strings.ToLower(strings.ReplaceAll(line, "*", "")))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

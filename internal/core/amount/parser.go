// Package amount 將食材份量文字解析為數量、標準單位與單位類型
package amount

import (
	"regexp"
	"strconv"
	"strings"
)

// UnitType 單位類型
type UnitType string

const (
	UnitVolume UnitType = "volume"
	UnitWeight UnitType = "weight"
	UnitCount  UnitType = "count"
	UnitOther  UnitType = "other"
)

// ToTaste 「適量」類份量的標準單位
const ToTaste = "to taste"

// NormalizedAmount 解析後的份量
type NormalizedAmount struct {
	Quantity *float64  `json:"quantity"`
	Unit     *string   `json:"unit"`
	UnitType *UnitType `json:"unit_type"`
}

// Unit 標準單位定義
type Unit struct {
	Canonical    string
	Abbreviation string
	Type         UnitType
}

var (
	unitTable = buildUnitTable()

	// 數量開頭：帶分數（含 1-1/2 寫法）、分數、小數或範圍
	mixedPattern    = regexp.MustCompile(`^(\d+)(?:\s+|\s*-\s*)(\d+)\s*/\s*(\d+)`)
	fractionPattern = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)`)
	numberPattern   = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:\s*(?:-|–|to)\s*(\d+(?:\.\d+)?))?`)
	unitWordPattern = regexp.MustCompile(`^([a-z]+)\.?`)

	vulgarFractions = strings.NewReplacer(
		"½", " 1/2", "¼", " 1/4", "¾", " 3/4",
		"⅓", " 1/3", "⅔", " 2/3", "⅛", " 1/8",
	)

	toTasteTokens = map[string]bool{
		"to taste":  true,
		"as needed": true,
		"taste":     true,
		"needed":    true,
	}
)

func buildUnitTable() map[string]Unit {
	table := make(map[string]Unit)
	add := func(u Unit, tokens ...string) {
		for _, t := range tokens {
			table[t] = u
		}
	}

	// 容量
	add(Unit{"cup", "c", UnitVolume}, "cup", "cups", "c")
	add(Unit{"tablespoon", "tbsp", UnitVolume}, "tablespoon", "tablespoons", "tbsp", "tbs", "tbsps", "tbl")
	add(Unit{"teaspoon", "tsp", UnitVolume}, "teaspoon", "teaspoons", "tsp", "tsps")
	add(Unit{"liter", "L", UnitVolume}, "liter", "liters", "litre", "litres", "l")
	add(Unit{"milliliter", "mL", UnitVolume}, "milliliter", "milliliters", "millilitre", "millilitres", "ml")
	add(Unit{"pint", "pt", UnitVolume}, "pint", "pints", "pt")
	add(Unit{"quart", "qt", UnitVolume}, "quart", "quarts", "qt")
	add(Unit{"gallon", "gal", UnitVolume}, "gallon", "gallons", "gal")

	// 重量
	add(Unit{"pound", "lb", UnitWeight}, "pound", "pounds", "lb", "lbs")
	add(Unit{"ounce", "oz", UnitWeight}, "ounce", "ounces", "oz")
	add(Unit{"gram", "g", UnitWeight}, "gram", "grams", "g", "gr")
	add(Unit{"kilogram", "kg", UnitWeight}, "kilogram", "kilograms", "kg")

	// 計數
	add(Unit{"piece", "pc", UnitCount}, "piece", "pieces", "pc", "pcs")
	add(Unit{"whole", "", UnitCount}, "whole")
	add(Unit{"item", "", UnitCount}, "item", "items")
	add(Unit{"clove", "", UnitCount}, "clove", "cloves")
	add(Unit{"can", "", UnitCount}, "can", "cans")
	add(Unit{"package", "pkg", UnitCount}, "package", "packages", "pkg")
	add(Unit{"packet", "", UnitCount}, "packet", "packets")
	add(Unit{"envelope", "", UnitCount}, "envelope", "envelopes")
	add(Unit{"jar", "", UnitCount}, "jar", "jars")
	add(Unit{"bottle", "", UnitCount}, "bottle", "bottles")
	add(Unit{"bag", "", UnitCount}, "bag", "bags")
	add(Unit{"box", "", UnitCount}, "box", "boxes")
	add(Unit{"container", "", UnitCount}, "container", "containers")
	add(Unit{"stick", "", UnitCount}, "stick", "sticks")
	add(Unit{"slice", "", UnitCount}, "slice", "slices")
	add(Unit{"bunch", "", UnitCount}, "bunch", "bunches")
	add(Unit{"head", "", UnitCount}, "head", "heads")
	add(Unit{"sprig", "", UnitCount}, "sprig", "sprigs")
	add(Unit{"handful", "", UnitCount}, "handful", "handfuls")

	// 其他
	add(Unit{"pinch", "", UnitOther}, "pinch", "pinches")
	add(Unit{"dash", "", UnitOther}, "dash", "dashes")

	return table
}

// LookupUnit 查詢單位同義詞，不分大小寫
func LookupUnit(token string) (Unit, bool) {
	u, ok := unitTable[strings.TrimSuffix(strings.ToLower(strings.TrimSpace(token)), ".")]
	return u, ok
}

// IsUnit 判斷字詞是否為已知單位
func IsUnit(token string) bool {
	_, ok := LookupUnit(token)
	return ok
}

// Parse 解析份量文字
func Parse(raw string) NormalizedAmount {
	text := strings.ToLower(strings.TrimSpace(vulgarFractions.Replace(raw)))
	text = strings.TrimSpace(text)

	if text == "" {
		return NormalizedAmount{}
	}
	if toTasteTokens[text] {
		unit := ToTaste
		t := UnitOther
		return NormalizedAmount{Unit: &unit, UnitType: &t}
	}

	var result NormalizedAmount
	rest := text

	switch {
	case mixedPattern.MatchString(rest):
		m := mixedPattern.FindStringSubmatch(rest)
		whole, _ := strconv.ParseFloat(m[1], 64)
		if frac, ok := fraction(m[2], m[3]); ok {
			q := whole + frac
			result.Quantity = &q
		}
		rest = rest[len(m[0]):]
	case fractionPattern.MatchString(rest):
		m := fractionPattern.FindStringSubmatch(rest)
		if frac, ok := fraction(m[1], m[2]); ok {
			result.Quantity = &frac
		}
		rest = rest[len(m[0]):]
	case numberPattern.MatchString(rest):
		m := numberPattern.FindStringSubmatch(rest)
		q, _ := strconv.ParseFloat(m[1], 64)
		if m[2] != "" {
			upper, _ := strconv.ParseFloat(m[2], 64)
			q = (q + upper) / 2
		}
		result.Quantity = &q
		rest = rest[len(m[0]):]
	}

	rest = strings.TrimSpace(rest)
	if m := unitWordPattern.FindStringSubmatch(rest); m != nil {
		if u, ok := LookupUnit(m[1]); ok {
			unit := u.Canonical
			t := u.Type
			result.Unit = &unit
			result.UnitType = &t
		}
	}

	return result
}

func fraction(num, den string) (float64, bool) {
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

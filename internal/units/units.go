// Package units turns the free-form quantity, unit and name strings found on
// recipe pages into values the shopping list can group and sum.
package units

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNoQuantity means the quantity field was empty and carries no amount.
	ErrNoQuantity = errors.New("no quantity")
	// ErrUnparseable means text was present but does not start with a number.
	ErrUnparseable = errors.New("unparseable quantity")
)

type fraction struct {
	glyph string
	value float64
}

// fractions is scanned in order; the first glyph found in a string wins.
var fractions = []fraction{
	{glyph: "½", value: 0.5},
	{glyph: "¼", value: 0.25},
	{glyph: "¾", value: 0.75},
	{glyph: "⅓", value: 0.333},
	{glyph: "⅔", value: 0.667},
}

// ParseQuantity parses quantities such as "200", "0,5", "½" or "1½". Only the
// leading number counts: a range like "1-2" yields 1.
func ParseQuantity(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, ErrNoQuantity
	}

	for _, f := range fractions {
		if cleaned == f.glyph {
			return f.value, nil
		}
	}

	for _, f := range fractions {
		if !strings.Contains(cleaned, f.glyph) {
			continue
		}
		prefix := strings.TrimSpace(strings.Replace(cleaned, f.glyph, "", 1))
		if prefix == "" {
			return f.value, nil
		}
		base, err := parseDecimal(prefix)
		if err != nil {
			return 0, ErrUnparseable
		}
		return base + f.value, nil
	}

	value, err := parseDecimal(cleaned)
	if err != nil {
		return 0, ErrUnparseable
	}
	return value, nil
}

// parseDecimal reads the longest leading decimal number, so "1-2" is 1 and
// "200g" is 200. A Belgian/Dutch decimal comma ("0,5") is accepted.
func parseDecimal(s string) (float64, error) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	n := leadingNumberLen(s)
	if n == 0 {
		return 0, ErrUnparseable
	}
	value, err := strconv.ParseFloat(s[:n], 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrUnparseable
	}
	return value, nil
}

// leadingNumberLen returns the byte length of the decimal at the start of s,
// or 0 when s does not start with one.
func leadingNumberLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
			digits++
		}
		if digits > 0 {
			i = j
		}
	}
	if digits == 0 {
		return 0
	}
	// exponent only counts when digits follow it
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

var unitSynonyms = map[string]string{
	"el":           "eetlepel",
	"eetlepel":     "eetlepel",
	"eetlepels":    "eetlepel",
	"eetlepel(s)":  "eetlepel",
	"tl":           "theelepel",
	"theelepel":    "theelepel",
	"theelepels":   "theelepel",
	"theelepel(s)": "theelepel",
	"ml":           "ml",
	"l":            "l",
	"cl":           "cl",
	"dl":           "dl",
	"g":            "g",
	"gr":           "g",
	"gram":         "g",
	"kg":           "kg",
	"stuk":         "stuk",
	"stuks":        "stuk",
	"stuk(s)":      "stuk",
	"teen":         "teentje",
	"tenen":        "teentje",
	"teentje":      "teentje",
	"teentjes":     "teentje",
	"teentje(s)":   "teentje",
	"stengel":      "stengel",
	"stengels":     "stengel",
	"stengel(s)":   "stengel",
	"takje":        "takje",
	"takjes":       "takje",
	"takje(s)":     "takje",
	"bosje":        "bosje",
	"bosjes":       "bosje",
	"bosje(s)":     "bosje",
	"blik":         "blik",
	"blikje":       "blik",
	"blikjes":      "blik",
	"blikken":      "blik",
	"snufje":       "snufje",
	"snufjes":      "snufje",
	"snuifje(s)":   "snufje",
	"plakje":       "plakje",
	"plakjes":      "plakje",
	"plakje(s)":    "plakje",
	"zak":          "zak",
	"pak":          "pak",
	"bos":          "bos",
	"krop":         "krop",
	"kropjes":      "krop",
	"handvol":      "handvol",
}

// NormalizeUnit maps a unit spelling to its canonical form. Unknown units are
// returned lowercased and trimmed.
func NormalizeUnit(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := unitSynonyms[trimmed]; ok {
		return canonical
	}
	return trimmed
}

// NormalizeName lowercases an ingredient name and drops any qualifier after
// the first comma ("rode ui, gesneden" becomes "rode ui").
func NormalizeName(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(normalized, ","); idx > 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	return normalized
}

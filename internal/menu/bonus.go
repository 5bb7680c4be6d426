package menu

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"weekmenu/backend/internal/domain"
)

// minTokenLen drops short words such as "de" or "en" that would match nearly
// every product.
const minTokenLen = 4

type promoTokens struct {
	label  string
	tokens []string
}

// BonusMatch summarises how many of a recipe's ingredients are on promotion.
type BonusMatch struct {
	Matched    int
	FirstLabel string
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func tokenizeBonuses(bonuses []domain.Bonus) []promoTokens {
	promos := make([]promoTokens, 0, len(bonuses))
	for _, b := range bonuses {
		promos = append(promos, promoTokens{label: b.DiscountLabel, tokens: tokenize(b.ProductName)})
	}
	return promos
}

func tokensOverlap(ingredient []string, product []string) bool {
	for _, iw := range ingredient {
		for _, pw := range product {
			if pw == iw || strings.HasPrefix(pw, iw) || strings.HasPrefix(iw, pw) {
				return true
			}
		}
	}
	return false
}

func matchTokenized(ingredientNames []string, promos []promoTokens) BonusMatch {
	var match BonusMatch
	for _, name := range ingredientNames {
		words := tokenize(name)
		if len(words) == 0 {
			continue
		}
		for _, promo := range promos {
			if !tokensOverlap(words, promo.tokens) {
				continue
			}
			if match.Matched == 0 {
				match.FirstLabel = promo.label
			}
			match.Matched++
			break
		}
	}
	return match
}

// MatchBonuses counts the ingredients that share a word with any promoted
// product. Each ingredient counts at most once.
func MatchBonuses(ingredientNames []string, bonuses []domain.Bonus) BonusMatch {
	return matchTokenized(ingredientNames, tokenizeBonuses(bonuses))
}

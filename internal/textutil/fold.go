// Package textutil provides pure text normalization for marketplace data:
// Persian/Arabic digit folding, price and currency extraction, and seller
// name canonicalization. Every function is deterministic and idempotent.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// digitFold maps Persian (U+06F0..U+06F9) and Arabic-Indic (U+0660..U+0669)
// decimal digits to their Latin equivalents.
var digitFold = map[rune]rune{
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

// foldTransformer folds compatibility forms (Arabic presentation letters,
// full-width digits) and strips invisible format runes such as the
// zero-width non-joiner that Persian text uses between words.
var foldTransformer = transform.Chain(
	norm.NFKC,
	runes.Remove(runes.In(unicode.Cf)),
)

// NormalizeDigits converts Persian and Arabic decimal digits to Latin.
func NormalizeDigits(text string) string {
	if text == "" {
		return text
	}
	return strings.Map(func(r rune) rune {
		if latin, ok := digitFold[r]; ok {
			return latin
		}
		return r
	}, text)
}

// CollapseWhitespace trims the text and replaces runs of whitespace with a
// single space.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeText lowercases, folds digits and compatibility forms, and
// collapses whitespace. It is the shared normalization applied before any
// token comparison.
func NormalizeText(text string) string {
	if text == "" {
		return text
	}
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return CollapseWhitespace(NormalizeDigits(strings.ToLower(folded)))
}

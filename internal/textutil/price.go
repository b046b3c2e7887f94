package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

// Recognized 3-letter currency codes.
const (
	CurrencyToman = "IRT"
	CurrencyRial  = "IRR"
	CurrencyUSD   = "USD"
	CurrencyEUR   = "EUR"
)

// currencyTokens maps marketplace currency words and symbols to codes.
// Keys are matched against NormalizeText output, so presentation forms
// (e.g. ﺗﻮﻣﺎﻥ) are already folded.
var currencyTokens = []struct {
	token string
	code  string
}{
	{"تومان", CurrencyToman},
	{"تومن", CurrencyToman},
	{"toman", CurrencyToman},
	{"ریال", CurrencyRial},
	{"ریل", CurrencyRial},
	{"rial", CurrencyRial},
	{"$", CurrencyUSD},
	{"usd", CurrencyUSD},
	{"دلار", CurrencyUSD},
	{"€", CurrencyEUR},
	{"eur", CurrencyEUR},
	{"یورو", CurrencyEUR},
}

// numberRun matches digit runs with optional thousand separators
// (Latin comma, Persian comma, dot, or space between triplets).
var numberRun = regexp.MustCompile(`\d{1,3}(?:[,،.\x{00a0} ]\d{3})+|\d+`)

// separatorStripper removes thousand separators from a matched run.
var separatorStripper = strings.NewReplacer(",", "", "،", "", ".", "", " ", "", " ", "")

// DetectCurrency returns the 3-letter currency code detected in the text,
// or an empty string when no currency token is present.
func DetectCurrency(text string) string {
	normalized := NormalizeText(text)
	for _, entry := range currencyTokens {
		if strings.Contains(normalized, entry.token) {
			return entry.code
		}
	}
	return ""
}

// ExtractAmount extracts the price amount from raw text. When several
// numeric runs are present the largest one wins, which skips discount
// percentages and seller ratings embedded in the same string. Returns
// false when no positive amount is found.
func ExtractAmount(text string) (int64, bool) {
	if text == "" {
		return 0, false
	}

	normalized := NormalizeDigits(text)

	var best int64
	for _, match := range numberRun.FindAllString(normalized, -1) {
		cleaned := separatorStripper.Replace(match)
		amount, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			continue
		}
		if amount > best {
			best = amount
		}
	}

	if best <= 0 {
		return 0, false
	}
	return best, true
}

// RialToToman converts a rial amount to toman.
func RialToToman(rial int64) int64 {
	return rial / 10
}

// TomanToRial converts a toman amount to rial.
func TomanToRial(toman int64) int64 {
	return toman * 10
}

// FormatAmount renders an amount with thousand separators for display.
func FormatAmount(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrNoPrice is returned when a price string holds no digits.
var ErrNoPrice = errors.New("no price in text")

// CleanPrice parses a displayed price such as "1 234,50 руб." or
// "$1,234.50" into a decimal. Currency symbols, words and spaces are
// dropped. When both separators appear, the last one is the decimal point.
// A lone separator followed by exactly three digits groups thousands, so
// "1.234" and "1,234" both read as 1234. Otherwise a lone separator is the
// decimal point.
func CleanPrice(raw string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	s := strings.Trim(b.String(), ".,")
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNoPrice, raw)
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", raw, err)
	}

	return price, nil
}

// CeilPrice rounds a price up to a whole number, as the shop import expects.
func CeilPrice(price decimal.Decimal) int64 {
	return price.Ceil().IntPart()
}

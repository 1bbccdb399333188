package extraction

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ExtractNumber parses a loosely formatted money or quantity string.
// With both separators present the comma is a thousands separator; a single
// comma on its own is a decimal point. Malformed input reports false.
func ExtractNumber(s string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, false
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case strings.Count(cleaned, ",") == 1:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

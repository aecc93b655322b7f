// Package money converts pt-BR formatted currency text to decimal values.
// All tolerance arithmetic in the engine happens on decimals; raw amount text
// never crosses this boundary unparsed.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the absolute amount difference (in currency units) under which
// two values are considered equal for matching and duplicate detection.
var Tolerance = decimal.NewFromFloat(0.01)

// Parse converts locale-formatted amount text ("1.234,56", "R$ 100,00",
// "-45,10") to a decimal. Plain machine formats ("1234.56") also parse.
func Parse(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}

	// "1.234,56" uses dot as thousands separator and comma as decimal mark.
	// "1234.56" has no comma, so the dot is already the decimal mark.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// Format renders a decimal back to pt-BR text with two decimal places.
func Format(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// WithinTolerance reports whether two amounts differ by at most Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

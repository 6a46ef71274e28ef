package handlers

import (
	"strings"

	"github.com/shopspring/decimal"
)

// formatVND renders an amount rounded to whole đồng with "." thousands
// separators, the way Vietnamese reports print money.
func formatVND(v float64) string {
	return groupThousands(decimal.NewFromFloat(v).Round(0))
}

// formatQuantity keeps up to two decimals for fractional quantities.
func formatQuantity(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.Equal(d.Truncate(0)) {
		return groupThousands(d)
	}
	sign := ""
	if d.IsNegative() {
		sign, d = "-", d.Abs()
	}
	whole := d.Truncate(0)
	frac := d.Sub(whole).StringFixed(2)[1:]
	return sign + groupThousands(whole) + strings.Replace(frac, ".", ",", 1)
}

func formatPercent(v float64) string {
	return strings.Replace(decimal.NewFromFloat(v).Round(2).StringFixed(2), ".", ",", 1) + "%"
}

// formatDelta prefixes positive changes with "+".
func formatDelta(v float64) string {
	s := formatPercent(v)
	if v > 0 {
		return "+" + s
	}
	return s
}

func groupThousands(d decimal.Decimal) string {
	digits := d.Abs().Truncate(0).String()
	var b strings.Builder
	if d.IsNegative() && !d.Truncate(0).IsZero() {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

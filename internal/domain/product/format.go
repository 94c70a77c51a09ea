package product

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPrice renders a price with its integer digits grouped in threes and
// separated by spaces, e.g. 15490000 -> "15 490 000", 1234.5 -> "1 234.5".
func FormatPrice(d decimal.Decimal) string {
	s := d.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR formats an amount with the rupee sign and Indian digit grouping,
// e.g. 150000 -> "₹1,50,000" and 15000.5 -> "₹15,000.50".
func FormatINR(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	whole := amount.Truncate(0)
	frac := amount.Sub(whole)

	digits := whole.String()
	var b strings.Builder
	if len(digits) > 3 {
		head := digits[:len(digits)-3]
		tail := digits[len(digits)-3:]
		// Leading groups are two digits wide.
		first := len(head) % 2
		if first > 0 {
			b.WriteString(head[:first])
		}
		for i := first; i < len(head); i += 2 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(head[i : i+2])
		}
		b.WriteByte(',')
		b.WriteString(tail)
	} else {
		b.WriteString(digits)
	}

	out := sign + "₹" + b.String()
	if !frac.IsZero() {
		out += strings.TrimPrefix(frac.StringFixed(2), "0")
	}
	return out
}

// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount formats a USD amount with thousands separators and cents.
// e.g., 1234.5 -> "$1,234.50", -3 -> "-$3.00"
func FormatAmount(amount float64) string {
	if amount < 0 {
		return "-" + FormatAmount(-amount)
	}
	cents := int64(math.Round(amount * 100))
	return fmt.Sprintf("$%s.%02d", FormatNumber(cents/100), cents%100)
}

// FormatDecimal formats an exact amount the same way as FormatAmount.
func FormatDecimal(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + FormatDecimal(d.Neg())
	}
	whole := d.Truncate(0)
	frac := d.Sub(whole).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	w := whole.IntPart()
	if frac == 100 {
		w++
		frac = 0
	}
	return fmt.Sprintf("$%s.%02d", FormatNumber(w), frac)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatSignedPercent formats a value already in percent with an explicit sign.
// e.g., 12.34 -> "+12.3%", -5 -> "-5.0%"
func FormatSignedPercent(p float64) string {
	if p >= 0 {
		return fmt.Sprintf("+%.1f%%", p)
	}
	return fmt.Sprintf("%.1f%%", p)
}

// FormatConfidence formats a 0-1 confidence as a whole percentage.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.0f%%", c*100)
}

// FormatDelta formats an amount delta with sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatAmount(delta)
	}
	return "-" + FormatAmount(-delta)
}

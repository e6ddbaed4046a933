package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"finmodel/pkg/core/calc"
	"finmodel/pkg/core/projection"
)

// Currency is appended to every monetary display value.
const Currency = "₽"

// GroupThousands renders a whole number with spaces between digit groups:
// 1234567 -> "1 234 567".
func GroupThousands(v float64) string {
	rounded := calc.RoundWhole(v)
	if math.IsNaN(rounded) || math.IsInf(rounded, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	digits := strconv.FormatFloat(math.Abs(rounded), 'f', 0, 64)
	var sb strings.Builder
	if rounded < 0 {
		sb.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	sb.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		sb.WriteByte(' ')
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

// Money renders "1 000 000 ₽".
func Money(v float64) string {
	return GroupThousands(v) + " " + Currency
}

// Percent renders a fraction with one decimal: 0.12 -> "12.0 %".
func Percent(fraction float64) string {
	return fmt.Sprintf("%.1f %%", fraction*100)
}

// IRR renders the IRR metric (already a percent) or the sentinel.
func IRR(m projection.Metric) string {
	if !m.Computable {
		return projection.NotComputable
	}
	return fmt.Sprintf("%.2f %%", m.Value)
}

// Multiple renders a multiple with two decimals or the sentinel.
func Multiple(m projection.Metric) string {
	if !m.Computable {
		return projection.NotComputable
	}
	return fmt.Sprintf("%.2f", m.Value)
}

// Years renders a year count: "1 year", "3 years".
func Years(n int) string {
	if n == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%d years", n)
}

// PaybackPeriod renders the payback year or the sentinel.
func PaybackPeriod(p projection.Payback) string {
	if !p.WithinHorizon {
		return projection.BeyondHorizon
	}
	return Years(p.Year)
}

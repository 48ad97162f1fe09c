package shifts

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCurrency renders v as dollars with thousands separators and two
// decimals, e.g. $1,234.50.
func FormatCurrency(v float64) string {
	cents := int64(math.Round(math.Abs(v) * 100))
	sign := ""
	if v < 0 && cents != 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s.%02d", sign, addCommas(cents/100), cents%100)
}

func addCommas(n int64) string {
	s := strconv.FormatInt(n, 10)
	var parts []string
	for i := len(s); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		parts = append([]string{s[start:i]}, parts...)
	}
	return strings.Join(parts, ",")
}

package format

import (
	"fmt"
	"strconv"
)

// TruncateWithEllipsis truncates a string to maxWidth runes, appending "..."
// if the string exceeds the limit. If maxWidth is less than 4, the string
// is hard-truncated without an ellipsis suffix.
func TruncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxWidth {
		return s
	}

	if maxWidth < 4 {
		return string(runes[:maxWidth])
	}

	return string(runes[:maxWidth-3]) + "..."
}

// Percent renders a usage value with two decimals, e.g. "40.00%".
func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

// MB renders a whole-megabyte size with thousands separators, e.g. "476,837 MB".
func MB(v uint64) string {
	return groupThousands(v) + " MB"
}

func groupThousands(v uint64) string {
	s := strconv.FormatUint(v, 10)
	if len(s) <= 3 {
		return s
	}

	out := make([]byte, 0, len(s)+len(s)/3)
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

// Stats renders a min/avg/max caption, e.g. "min 1.00%  avg 2.50%  max 4.00%".
func Stats(minV, avg, maxV float64) string {
	return fmt.Sprintf("min %s  avg %s  max %s", Percent(minV), Percent(avg), Percent(maxV))
}

package converter

import (
	"fmt"
	"strconv"
	"strings"
)

// Clean strips currency and grouping decoration from raw and returns an
// int64 or float64 when the remaining digits parse. Empty input yields "".
// Anything that does not parse is returned unchanged.
//
// Only digits and '.' survive stripping, so a sign is dropped and a
// European "1.234.567" falls back to the original value.
func Clean(raw any) any {
	s := stringify(raw)
	if s == "" {
		return ""
	}

	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)

	if strings.Contains(digits, ".") {
		if f, err := strconv.ParseFloat(digits, 64); err == nil {
			return f
		}
		return raw
	}

	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return n
	}

	return raw
}

// stringify renders a cell value the way it would be read back as text.
func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

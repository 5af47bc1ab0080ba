package table

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeKey produces the stable string form used for join maps and
// dedupe sets.
//
// Rules:
//   - nil and empty strings normalize to "" (callers treat "" as "no key").
//   - Strings are trimmed of edge whitespace.
//   - Numeric types format without allocation-heavy fmt.Sprint on the hot path.
//   - Integral floats format without a trailing ".0" so "10", 10 and 10.0 all
//     join against the same key.
func NormalizeKey(v any) string {
	switch t := v.(type) {
	case nil:
		return ""

	case string:
		return strings.TrimSpace(t)

	case []byte:
		return strings.TrimSpace(string(t))

	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)

	case float32:
		return normalizeFloatKey(float64(t))
	case float64:
		return normalizeFloatKey(t)

	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func normalizeFloatKey(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

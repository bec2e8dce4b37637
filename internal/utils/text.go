package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var horizontalSpace = regexp.MustCompile(`[ \t]+`)

// missingMarkers are textual renderings of absent spreadsheet values
var missingMarkers = map[string]bool{
	"nan":  true,
	"NaN":  true,
	"NAN":  true,
	"<NA>": true,
}

// CleanText normalizes a raw cell value. Missing values become "", a single pair of
// wrapping double quotes is removed, line endings become "\n", runs of spaces/tabs collapse
// to one space and the result is trimmed. It never fails.
func CleanText(raw any) string {
	var value string
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		value = v
	case *string:
		if v == nil {
			return ""
		}
		value = *v
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		value = formatNumber(v)
	case float32:
		if math.IsNaN(float64(v)) {
			return ""
		}
		value = formatNumber(float64(v))
	case []byte:
		value = string(v)
	default:
		value = toString(v)
	}

	value = strings.TrimSpace(value)
	if missingMarkers[value] {
		return ""
	}
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")
	value = horizontalSpace.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// CollapseWhitespace joins all whitespace runs, newlines included, into single spaces
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CellAt returns row[idx] or "" when the row is shorter than idx
func CellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toString(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

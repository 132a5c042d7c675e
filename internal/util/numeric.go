package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reThousandsDot   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	reThousandsComma = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// ParseNumber coerces a raw cell to a float, tolerating thousands separators
// and decimal commas. A nil result means "absent": empty cells and
// ungrammatical text are absent, never an error.
func ParseNumber(input string) *float64 {
	token := normalizeNumericToken(input)
	if token == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil
	}
	return &parsed
}

// ParseInt coerces a raw cell to an integer identifier, absent on failure.
// Spreadsheets tend to render identifier columns as floats ("3.0").
func ParseInt(input string) *int {
	f := ParseNumber(input)
	if f == nil {
		return nil
	}
	n := int(math.Round(*f))
	if float64(n) != *f {
		return nil
	}
	return &n
}

// RenderNumber turns a float into its JSON/export representation:
// integer-valued floats become integers, fractional values stay floats.
func RenderNumber(v float64) any {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return int64(v)
	}
	return v
}

// FormatNumber is RenderNumber for CSV cells.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func normalizeNumericToken(input string) string {
	compact := strings.TrimSpace(strings.ReplaceAll(input, " ", " "))
	compact = strings.ReplaceAll(compact, " ", "")
	if compact == "" {
		return ""
	}
	if reThousandsDot.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if reThousandsComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}

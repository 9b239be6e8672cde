package database

import (
	"regexp"
	"strconv"
	"strings"
)

// Supported form: rate(N second|seconds|minute|minutes|hour|hours), N >= 1,
// case-insensitive, whitespace tolerant.
var rateExpressionPattern = regexp.MustCompile(`(?i)^\s*rate\(\s*(\d+)\s*(second|seconds|minute|minutes|hour|hours)\s*\)\s*$`)

// ParseRateExpression converts a rate(N unit) schedule expression into an
// interval in seconds.
func ParseRateExpression(expr string) (int64, error) {
	m := rateExpressionPattern.FindStringSubmatch(expr)
	if m == nil {
		return 0, NewError(KindInvalidScheduleExpression, "invalid schedule_expression %q (supported: rate(N seconds|minutes|hours))", expr)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n < 1 {
		return 0, NewError(KindInvalidScheduleExpression, "invalid schedule_expression %q: interval must be >= 1", expr)
	}

	switch unit := strings.ToLower(m[2]); {
	case strings.HasPrefix(unit, "second"):
		return n, nil
	case strings.HasPrefix(unit, "minute"):
		return n * 60, nil
	default:
		return n * 3600, nil
	}
}

package calendar

import (
	"regexp"
	"strconv"
	"strings"
)

var effortRe = regexp.MustCompile(`^([\d.]+)([dwm])$`)

// ParseEffort parses an effort shorthand ("5d", "2w", "1.5m", "L") into
// calendar days. Weeks and months are calendar-based (7 and 30 days), not
// business-day-based. Unrecognized forms default to one week (7 days).
func ParseEffort(effortStr string) float64 {
	s := strings.ToLower(strings.TrimSpace(effortStr))
	if s == "l" {
		return 60.0
	}

	m := effortRe.FindStringSubmatch(s)
	if m == nil {
		return 7.0
	}

	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 7.0
	}

	switch m[2] {
	case "d":
		return num
	case "w":
		return num * 7
	case "m":
		return num * 30
	default:
		return 7.0
	}
}

package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDayName is returned for day names that are not "Day<N>" with N >= 1.
var ErrInvalidDayName = errors.New("invalid day name")

const dayPrefix = "Day"

// DayName formats a day number, e.g. 7 -> "Day7".
func DayName(n int) string {
	return dayPrefix + strconv.Itoa(n)
}

// ParseDayName parses "Day7" (case-insensitive prefix) or a bare "7".
func ParseDayName(name string) (int, error) {
	s := strings.TrimSpace(name)
	if len(s) >= len(dayPrefix) && strings.EqualFold(s[:len(dayPrefix)], dayPrefix) {
		s = s[len(dayPrefix):]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDayName, name)
	}
	return n, nil
}

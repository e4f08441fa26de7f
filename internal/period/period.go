// Package period turns relative window tokens such as "7d" into absolute
// lower bounds on record creation time.
package period

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid period")

var tokenPattern = regexp.MustCompile(`^(\d+)d$`)

// Allowed lists the tokens accepted at the request boundary.
var Allowed = []string{"7d", "14d", "30d"}

// Parse returns the number of days in token. An empty token means no bound
// and yields 0.
func Parse(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, ErrInvalidPeriod
	}
	days, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, ErrInvalidPeriod
	}
	return days, nil
}

// Since returns the start of the day N days before now, evaluated in loc.
// ok is false when token carries no bound.
func Since(token string, now time.Time, loc *time.Location) (since time.Time, ok bool, err error) {
	if token == "" {
		return time.Time{}, false, nil
	}
	days, err := Parse(token)
	if err != nil {
		return time.Time{}, false, err
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc).AddDate(0, 0, -days)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc), true, nil
}

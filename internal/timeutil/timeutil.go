package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

// ParseSince accepts a calendar date (2026-03-01) or a relative age such as
// 36h or 7d and returns the earliest matching instant.
func ParseSince(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if day, err := time.ParseInLocation(dateLayout, value, now.Location()); err == nil {
		return StartOfDay(day), nil
	}
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil || days < 0 {
			return time.Time{}, fmt.Errorf("invalid day count %q", value)
		}
		return StartOfDay(now).AddDate(0, 0, -days), nil
	}
	age, err := time.ParseDuration(value)
	if err != nil || age < 0 {
		return time.Time{}, fmt.Errorf("invalid since value %q (expected YYYY-MM-DD, 7d or 36h)", value)
	}
	return now.Add(-age), nil
}

func FormatTimestamp(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04:05")
}

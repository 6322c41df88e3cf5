package notifications

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseClock converts an "HH:MM" wall-clock string into minutes past
// midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour*60 + minute, nil
}

// withinQuietHours reports whether now falls inside the [start, end) quiet
// window. A window that ends before it starts wraps past midnight, so
// 22:00-07:00 suppresses both 23:00 and 06:30. Missing or malformed bounds
// disable the window.
func withinQuietHours(start, end *string, now time.Time) bool {
	if start == nil || end == nil {
		return false
	}
	startMin, err := parseClock(*start)
	if err != nil {
		return false
	}
	endMin, err := parseClock(*end)
	if err != nil {
		return false
	}
	if startMin == endMin {
		return false
	}

	nowMin := now.Hour()*60 + now.Minute()
	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin
	}
	return nowMin >= startMin || nowMin < endMin
}

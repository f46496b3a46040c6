package feed

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClockTime converts a GTFS HH:MM:SS string to seconds-since-midnight.
// It accepts an optional leading space and hours beyond 24 (wraparound
// service past midnight).
func ParseClockTime(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock time %q: expected HH:MM:SS", s)
	}

	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid hours in clock time %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minutes in clock time %q", s)
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid seconds in clock time %q", s)
	}

	return hours*3600 + minutes*60 + seconds, nil
}

// FormatClockTime is the inverse of ParseClockTime, used when reconstructing
// human-readable itinerary steps.
func FormatClockTime(secs int) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

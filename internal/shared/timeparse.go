package shared

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp layouts accepted from clients, tried in order. The list covers
// 12h and 24h wall-clock forms plus the ISO-8601 variants emitted by
// browser datetime inputs.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 03:04:05 PM",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseTimestamp converts a client-supplied timestamp string to UTC.
// Layouts without an explicit offset are interpreted as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, trimmed, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", trimmed)
}

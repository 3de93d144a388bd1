package interfaces

import (
	"errors"
	"time"
)

// Local date-time forms carry no zone and are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

var errInvalidTimestamp = errors.New("invalid ISO-8601 timestamp")

// parseTimestamp returns nil for an empty value so the service can report
// the missing bound itself.
func parseTimestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, errInvalidTimestamp
}

package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowPtr returns a pointer to the current time in UTC
func UTCNowPtr() *time.Time {
	now := UTCNow()
	return &now
}

// OlderThan reports whether t lies more than d in the past. A nil t counts as older.
func OlderThan(t *time.Time, d time.Duration) bool {
	if t == nil {
		return true
	}
	return UTCNow().Sub(*t) > d
}

// FormatTime renders t as RFC3339 in UTC, or "" for nil
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// InLocation returns t in the named IANA zone, falling back to UTC
func InLocation(t time.Time, zone string) time.Time {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return t.UTC()
	}
	return t.In(loc)
}

package database

import "time"

// TimeLayout is the storage format for timestamps. The width is fixed so
// lexicographic ordering in SQL matches chronological ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders a timestamp for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored timestamp back.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

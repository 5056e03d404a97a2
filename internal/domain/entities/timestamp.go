package entities

import "time"

// Timestamps are stored as timezone-naive local wall clock strings. The
// format deliberately carries no zone suffix: the value means "the time on
// the user's clock", not an instant in UTC. Comparisons therefore parse the
// string in the local zone rather than reading it as UTC.
const (
	LocalTimestampLayout = "2006-01-02T15:04:05.000"
	DateLayout           = "2006-01-02"
)

// NowLocal returns the current time as a local timestamp string.
func NowLocal() string {
	return time.Now().Format(LocalTimestampLayout)
}

// Today returns the current local date as a YYYY-MM-DD string.
func Today() string {
	return time.Now().Format(DateLayout)
}

// ParseLocalTimestamp parses a local timestamp string in the local zone.
func ParseLocalTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(LocalTimestampLayout, s, time.Local)
}

// EpochMillis converts a local timestamp string to epoch milliseconds,
// returning 0 for an empty or unparseable value. Zero is the "never"
// sentinel used by the sync comparison.
func EpochMillis(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := ParseLocalTimestamp(s)
	if err != nil {
		// Older exporters wrote RFC3339; accept it as a fallback.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return 0
		}
	}
	return t.UnixMilli()
}

// IsDateString reports whether s is a well-formed YYYY-MM-DD date.
func IsDateString(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// YearOf returns the year component of a YYYY-MM-DD date string, or 0 when
// the date does not parse.
func YearOf(date string) int {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0
	}
	return t.Year()
}

package util

import "time"

const (
	// DateFormat is the standard date format for facility records.
	DateFormat = "2006-01-02"

	// DateTimeFormat is the display format for timestamps (minute precision).
	DateTimeFormat = "2006-01-02 15:04"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Useful in tests.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.T }

// FormatTimestamp renders an RFC 3339 timestamp in loc. Input that does not
// parse is returned unchanged so a stored value is always displayable.
func FormatTimestamp(iso string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return iso
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateTimeFormat)
}

package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Date is a day-precision timestamp. Visit dates arrive from sources with or
// without a time-of-day component; the canonical model keeps only the day.
type Date struct {
	time.Time
}

// NewDate builds a Date from a time.Time, truncating any time-of-day part.
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// dateFormats are the shapes sources are known to emit, most specific first.
var dateFormats = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate normalizes a raw source date string to day precision. The second
// return value is false when the input is empty or unparseable; callers treat
// that as a null date rather than an error.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return NewDate(t), true
		}
	}
	return Date{}, false
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// UnmarshalJSON accepts any known source date shape.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, ok := ParseDate(s)
	if !ok {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// String returns the date in YYYY-MM-DD format.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

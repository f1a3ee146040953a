// Package core provides the attendance record model, the canonical
// timestamp encoding and the shift rules.
//
// This file contains the single parse/format module for stored timestamps.
// Stored values use local wall-clock time with minute precision and no
// offset; every other package goes through these helpers.
package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	StampLayout = "2006-01-02 15:04"
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	legacyDayLayout = "Mon Jan 02 2006"
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseStamp parses a stored "2006-01-02 15:04" timestamp in loc.
func ParseStamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidInput
	}
	t, err := time.ParseInLocation(StampLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidInput, s)
	}
	return t, nil
}

// FormatStamp is the inverse of ParseStamp. The zero time encodes as "".
func FormatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(StampLayout)
}

// ParseDate parses a "2006-01-02" date as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidInput, s)
	}
	return t, nil
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidInput, s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ClockOf returns the time of day of t.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// WithClock keeps the date of day and replaces its time of day.
func WithClock(day time.Time, c Clock) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

// StartOfDay returns local midnight of t's date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TruncateMinute drops seconds so t round-trips through the stamp encoding.
func TruncateMinute(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, t.Location())
}

// FormatDateGB renders t as DD/MM/YYYY.
func FormatDateGB(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatClock12 renders the time of day on a 12-hour clock, e.g. "9:05 PM".
func FormatClock12(t time.Time) string {
	return t.Format("3:04 PM")
}

// FormatHours renders fractional hours as H:MM.
func FormatHours(h float64) string {
	if h < 0 {
		h = 0
	}
	mins := int64(math.Round(h * 60))
	return fmt.Sprintf("%d:%02d", mins/60, mins%60)
}

package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// DayKey identifies the calendar day a record belongs to ("2006-01-02").
	DayKey string

	// Record is a single attendance interval. Leave is the zero time while
	// the user is still clocked in.
	Record struct {
		ID     string
		Day    DayKey
		Attend time.Time
		Leave  time.Time
	}
)

var (
	ErrAlreadyClockedIn = errors.New("already clocked in today")
	ErrMissingFields    = errors.New("date, attend time and leave time are required")
	ErrDateOutOfRange   = errors.New("date out of range")
	ErrDuplicateDay     = errors.New("day already exists")
	ErrNotFound         = errors.New("record not found")
	ErrEmptyRange       = errors.New("no records in this range")
	ErrMissingBounds    = errors.New("start and end dates are required")
	ErrInvalidInput     = errors.New("invalid date or time")
	ErrInvalidName      = errors.New("name must be 3-20 letters and spaces")
)

// DayKeyOf returns the day bucket of t in t's own location.
func DayKeyOf(t time.Time) DayKey {
	return DayKey(t.Format(DateLayout))
}

// ParseDayKey accepts the canonical "2006-01-02" form and the legacy
// "Mon Jan 02 2006" form written by older versions of the app.
func ParseDayKey(s string) (DayKey, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DayKeyOf(t), nil
	}
	t, err := time.Parse(legacyDayLayout, s)
	if err != nil {
		return "", ErrInvalidInput
	}
	return DayKeyOf(t), nil
}

// Time returns local midnight of the day in loc.
func (k DayKey) Time(loc *time.Location) (time.Time, error) {
	return ParseDate(string(k), loc)
}

func (k DayKey) String() string {
	return string(k)
}

// HasLeave reports whether the record has been clocked out.
func (r Record) HasLeave() bool {
	return !r.Leave.IsZero()
}

// NeedsRepair reports whether leave is present but not after attend.
func (r Record) NeedsRepair() bool {
	return r.HasLeave() && !r.Leave.After(r.Attend)
}

// Hours returns the worked hours of the record.
func (r Record) Hours() float64 {
	return Duration(r.Attend, r.Leave)
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("record id cannot be empty")
	}
	if r.Day == "" {
		return errors.New("record day cannot be empty")
	}
	if r.Attend.IsZero() {
		return errors.New("record attend cannot be zero")
	}
	return nil
}

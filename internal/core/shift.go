package core

import "time"

// DefaultShiftHours is the regular shift length before overtime starts.
const DefaultShiftHours = 8

// ShiftRules classifies worked hours against a fixed shift length.
type ShiftRules struct {
	ShiftHours float64
}

func DefaultShiftRules() ShiftRules {
	return ShiftRules{ShiftHours: DefaultShiftHours}
}

// Duration returns the hours between attend and leave. A missing endpoint
// or a reversed pair yields 0.
func Duration(attend, leave time.Time) float64 {
	if attend.IsZero() || leave.IsZero() {
		return 0
	}
	h := leave.Sub(attend).Hours()
	if h < 0 {
		return 0
	}
	return h
}

func (s ShiftRules) IsOvertime(hours float64) bool {
	return hours > s.ShiftHours
}

func (s ShiftRules) OvertimeHours(hours float64) float64 {
	if hours <= s.ShiftHours {
		return 0
	}
	return hours - s.ShiftHours
}

// RollToNextDayIfNotAfter moves candidate forward by whole calendar days,
// keeping its wall-clock time, until it is strictly after base. A candidate
// already after base is returned unchanged. For a candidate on base's own
// date this is exactly one day.
func RollToNextDayIfNotAfter(base, candidate time.Time) time.Time {
	if candidate.IsZero() || candidate.After(base) {
		return candidate
	}
	if gap := int(base.Sub(candidate).Hours() / 24); gap > 1 {
		candidate = candidate.AddDate(0, 0, gap-1)
	}
	for !candidate.After(base) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

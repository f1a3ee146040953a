// Package report derives read-only views from a ledger snapshot: monthly
// totals, the calendar grid, bi-weekly export ranges and the row projection
// handed to export sinks. Nothing here mutates records.
package report

import (
	"time"

	"presenze/internal/core"
)

// Summary is the hours reduction over a set of records.
type Summary struct {
	Days        int     `json:"days"`
	HoursSum    float64 `json:"hours"`
	OvertimeSum float64 `json:"overtime"`
}

// Totals sums worked hours and overtime. It does not filter; pass the
// output of InMonth for a monthly figure.
func Totals(records []core.Record, rules core.ShiftRules) Summary {
	var s Summary
	for _, r := range records {
		h := r.Hours()
		s.Days++
		s.HoursSum += h
		s.OvertimeSum += rules.OvertimeHours(h)
	}
	return s
}

// InMonth keeps the records whose attend falls in year/month.
func InMonth(records []core.Record, year int, month time.Month) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if r.Attend.Year() == year && r.Attend.Month() == month {
			out = append(out, r)
		}
	}
	return out
}

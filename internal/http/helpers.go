package http

import (
	"strings"

	"presenze/internal/core"
	"presenze/internal/report"
)

// recordView is the JSON shape of a record, with the values the UI derives
// from it.
type recordView struct {
	ID          string  `json:"id"`
	Day         string  `json:"day"`
	Attend      string  `json:"attend"`
	Leave       string  `json:"leave"`
	Date        string  `json:"date"`
	AttendLabel string  `json:"attendLabel"`
	LeaveLabel  string  `json:"leaveLabel,omitempty"`
	Hours       float64 `json:"hours"`
	HoursLabel  string  `json:"hoursLabel"`
	Overtime    float64 `json:"overtime"`
	IsOvertime  bool    `json:"isOvertime"`
	NeedsRepair bool    `json:"needsRepair"`
}

func newRecordView(r core.Record, rules core.ShiftRules) recordView {
	hours := r.Hours()
	v := recordView{
		ID:          r.ID,
		Day:         r.Day.String(),
		Attend:      core.FormatStamp(r.Attend),
		Leave:       core.FormatStamp(r.Leave),
		Date:        core.FormatDateGB(r.Attend),
		AttendLabel: core.FormatClock12(r.Attend),
		Hours:       hours,
		HoursLabel:  core.FormatHours(hours),
		Overtime:    rules.OvertimeHours(hours),
		IsOvertime:  rules.IsOvertime(hours),
		NeedsRepair: r.NeedsRepair(),
	}
	if r.HasLeave() {
		v.LeaveLabel = core.FormatClock12(r.Leave)
	}
	return v
}

func recordViews(records []core.Record, rules core.ShiftRules) []recordView {
	out := make([]recordView, len(records))
	for i, r := range records {
		out[i] = newRecordView(r, rules)
	}
	return out
}

type cellView struct {
	Day     int              `json:"day"`
	Date    string           `json:"date"`
	Weekday string           `json:"weekday"`
	State   report.CellState `json:"state"`
	Record  *recordView      `json:"record,omitempty"`
}

func cellViews(cells []report.DayCell, rules core.ShiftRules) []cellView {
	out := make([]cellView, len(cells))
	for i, c := range cells {
		out[i] = cellView{Day: c.Day, Date: c.Date.String(), Weekday: c.Weekday.String(), State: c.State}
		if c.Record != nil {
			v := newRecordView(*c.Record, rules)
			out[i].Record = &v
		}
	}
	return out
}

// sanitizeInput trims s and strips control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

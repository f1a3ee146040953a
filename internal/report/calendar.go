package report

import (
	"fmt"
	"time"

	"presenze/internal/core"
)

type CellState int

const (
	StateNoData CellState = iota
	StateRecorded
	StateHoliday
)

func (s CellState) String() string {
	switch s {
	case StateRecorded:
		return "recorded"
	case StateHoliday:
		return "holiday"
	default:
		return "no-data"
	}
}

func (s CellState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DayCell is one day of a month grid.
type DayCell struct {
	Day     int          `json:"day"`
	Date    core.DayKey  `json:"date"`
	Weekday time.Weekday `json:"weekday"`
	Record  *core.Record `json:"-"`
	State   CellState    `json:"state"`
}

// BuildMonth returns one cell per day of year/month. A day without a record
// is a holiday when it lies before the latest attend anywhere in records;
// later days, and every day of an empty ledger, have no data.
func BuildMonth(year int, month time.Month, records []core.Record, loc *time.Location) []DayCell {
	if loc == nil {
		loc = time.Local
	}

	byDay := make(map[core.DayKey]core.Record, len(records))
	var latest time.Time
	for _, r := range records {
		byDay[r.Day] = r
		if r.Attend.After(latest) {
			latest = r.Attend
		}
	}

	n := daysIn(year, month)
	cells := make([]DayCell, 0, n)
	for d := 1; d <= n; d++ {
		midnight := time.Date(year, month, d, 0, 0, 0, 0, loc)
		cell := DayCell{
			Day:     d,
			Date:    core.DayKeyOf(midnight),
			Weekday: midnight.Weekday(),
		}
		if rec, ok := byDay[cell.Date]; ok {
			cell.Record = &rec
			cell.State = StateRecorded
		} else if !latest.IsZero() && midnight.Before(latest) {
			cell.State = StateHoliday
		}
		cells = append(cells, cell)
	}
	return cells
}

// MonthOption is an entry of the month picker.
type MonthOption struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Label string     `json:"label"`
}

// RecentMonths lists the n months ending with now's month, newest first.
func RecentMonths(now time.Time, n int) []MonthOption {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]MonthOption, 0, n)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, -i, 0)
		out = append(out, MonthOption{
			Year:  m.Year(),
			Month: m.Month(),
			Label: fmt.Sprintf("%s %d", m.Month(), m.Year()),
		})
	}
	return out
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

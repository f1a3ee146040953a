package report

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"presenze/internal/core"
)

// RangeKey identifies a half-month export range.
type RangeKey struct {
	Year     int
	Month    time.Month
	StartDay int
	EndDay   int
}

// String encodes the key as "2024-2-1-15".
func (k RangeKey) String() string {
	return fmt.Sprintf("%d-%d-%d-%d", k.Year, int(k.Month), k.StartDay, k.EndDay)
}

func (k RangeKey) Label() string {
	return fmt.Sprintf("%d/%d - %d/%d %d", k.StartDay, int(k.Month), k.EndDay, int(k.Month), k.Year)
}

func (k RangeKey) Filename() string {
	return fmt.Sprintf("Attendance_%d_%d_%d-%d", k.Year, int(k.Month), k.StartDay, k.EndDay)
}

// Contains reports whether t's date lies in the range.
func (k RangeKey) Contains(t time.Time) bool {
	d := t.Day()
	return t.Year() == k.Year && t.Month() == k.Month && d >= k.StartDay && d <= k.EndDay
}

func (k RangeKey) compare(o RangeKey) int {
	if k.Year != o.Year {
		return k.Year - o.Year
	}
	if k.Month != o.Month {
		return int(k.Month) - int(o.Month)
	}
	return k.StartDay - o.StartDay
}

// ParseRangeKey reverses RangeKey.String.
func ParseRangeKey(s string) (RangeKey, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 4 {
		return RangeKey{}, fmt.Errorf("%w: range key %q", core.ErrInvalidInput, s)
	}
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return RangeKey{}, fmt.Errorf("%w: range key %q", core.ErrInvalidInput, s)
		}
		n[i] = v
	}
	k := RangeKey{Year: n[0], Month: time.Month(n[1]), StartDay: n[2], EndDay: n[3]}
	if k.Month < time.January || k.Month > time.December ||
		k.StartDay < 1 || k.StartDay > k.EndDay || k.EndDay > daysIn(k.Year, k.Month) {
		return RangeKey{}, fmt.Errorf("%w: range key %q", core.ErrInvalidInput, s)
	}
	return k, nil
}

// halfOf returns the half-month range t falls in: days 1-15 or 16 to the
// end of the month.
func halfOf(t time.Time) RangeKey {
	k := RangeKey{Year: t.Year(), Month: t.Month(), StartDay: 1, EndDay: 15}
	if t.Day() > 15 {
		k.StartDay, k.EndDay = 16, daysIn(k.Year, k.Month)
	}
	return k
}

type RangeOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// BiweeklyOptions lists every half month holding at least one record, in
// chronological order.
func BiweeklyOptions(records []core.Record) []RangeOption {
	seen := make(map[RangeKey]struct{})
	keys := make([]RangeKey, 0)
	for _, r := range records {
		k := halfOf(r.Attend)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	slices.SortFunc(keys, RangeKey.compare)

	out := make([]RangeOption, len(keys))
	for i, k := range keys {
		out[i] = RangeOption{Key: k.String(), Label: k.Label()}
	}
	return out
}

// SelectHalfMonth returns the records of key, ascending by attend.
func SelectHalfMonth(records []core.Record, key RangeKey) ([]core.Record, error) {
	var out []core.Record
	for _, r := range records {
		if key.Contains(r.Attend) {
			out = append(out, r)
		}
	}
	return sortedOrEmpty(out)
}

// FilterRange returns the records attended between start 00:00 and end
// 23:59 inclusive, ascending by attend. Reversed bounds are swapped.
func FilterRange(records []core.Record, start, end string, loc *time.Location) ([]core.Record, error) {
	from, to, err := rangeBounds(start, end, loc)
	if err != nil {
		return nil, err
	}
	var out []core.Record
	for _, r := range records {
		if !r.Attend.Before(from) && !r.Attend.After(to) {
			out = append(out, r)
		}
	}
	return sortedOrEmpty(out)
}

// RangeFilename names an arbitrary range export.
func RangeFilename(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if end < start {
		start, end = end, start
	}
	return fmt.Sprintf("Attendance_%s_%s", start, end)
}

func rangeBounds(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return time.Time{}, time.Time{}, core.ErrMissingBounds
	}
	if loc == nil {
		loc = time.Local
	}
	from, err := core.ParseDate(start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := core.ParseDate(end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		from, to = to, from
	}
	return from, core.WithClock(to, core.Clock{Hour: 23, Minute: 59}), nil
}

func sortedOrEmpty(records []core.Record) ([]core.Record, error) {
	if len(records) == 0 {
		return nil, core.ErrEmptyRange
	}
	slices.SortStableFunc(records, func(a, b core.Record) int { return a.Attend.Compare(b.Attend) })
	return records, nil
}

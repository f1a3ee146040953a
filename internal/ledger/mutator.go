package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"presenze/internal/core"
	applog "presenze/internal/log"
)

// ClockIn opens today's record at now. A second clock-in on the same day
// fails with core.ErrAlreadyClockedIn.
func (l *Ledger) ClockIn(ctx context.Context, now time.Time) (core.Record, error) {
	now = core.TruncateMinute(now.In(l.opts.Location))

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.sync(ctx); err != nil {
		return core.Record{}, err
	}

	day := core.DayKeyOf(now)
	if existing, ok := l.dayTaken(day); ok && !existing.Attend.IsZero() {
		return core.Record{}, core.ErrAlreadyClockedIn
	}

	rec := core.Record{ID: l.opts.NewID(), Day: day, Attend: now}
	next := append(slices.Clone(l.records), rec)
	if err := l.commit(ctx, next); err != nil {
		return core.Record{}, err
	}

	logChange(ctx, applog.OpClockIn, rec)
	return rec, nil
}

// ClockOut sets leave to now. A leave that ends up not after attend (clock
// skew) is stored as is and left for Repair.
func (l *Ledger) ClockOut(ctx context.Context, id string, now time.Time) (core.Record, error) {
	now = core.TruncateMinute(now.In(l.opts.Location))

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.sync(ctx); err != nil {
		return core.Record{}, err
	}

	i := l.indexOf(id)
	if i < 0 {
		return core.Record{}, core.ErrNotFound
	}

	next := slices.Clone(l.records)
	next[i].Leave = now
	if err := l.commit(ctx, next); err != nil {
		return core.Record{}, err
	}

	rec := next[i]
	if rec.NeedsRepair() {
		slog.WarnContext(ctx, "Leave is not after attend, run repair", "id", rec.ID, "attend", core.FormatStamp(rec.Attend), "leave", core.FormatStamp(rec.Leave))
	}
	logChange(ctx, applog.OpClockOut, rec)
	return rec, nil
}

// Backfill adds a past day by hand. Inputs are a "2006-01-02" date and two
// "15:04" times; a leave time not after attend is an overnight shift and is
// stored on the following day.
func (l *Ledger) Backfill(ctx context.Context, date, attendTime, leaveTime string) (core.Record, error) {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(attendTime) == "" || strings.TrimSpace(leaveTime) == "" {
		return core.Record{}, core.ErrMissingFields
	}
	day, err := core.ParseDate(date, l.opts.Location)
	if err != nil {
		return core.Record{}, err
	}
	attendClock, err := core.ParseClock(attendTime)
	if err != nil {
		return core.Record{}, err
	}
	leaveClock, err := core.ParseClock(leaveTime)
	if err != nil {
		return core.Record{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.sync(ctx); err != nil {
		return core.Record{}, err
	}

	today := core.StartOfDay(l.Now())
	oldest := today.AddDate(0, 0, -l.opts.BackfillWindowDays)
	if !day.Before(today) || day.Before(oldest) {
		return core.Record{}, fmt.Errorf("%w: %s must be between %s and yesterday",
			core.ErrDateOutOfRange, core.DayKeyOf(day), core.DayKeyOf(oldest))
	}

	key := core.DayKeyOf(day)
	if _, ok := l.dayTaken(key); ok {
		return core.Record{}, core.ErrDuplicateDay
	}

	attend := core.WithClock(day, attendClock)
	leave := core.RollToNextDayIfNotAfter(attend, core.WithClock(day, leaveClock))
	rec := core.Record{ID: l.opts.NewID(), Day: key, Attend: attend, Leave: leave}

	next := append(slices.Clone(l.records), rec)
	if err := l.commit(ctx, next); err != nil {
		return core.Record{}, err
	}

	logChange(ctx, applog.OpBackfill, rec)
	return rec, nil
}

// EditTimes replaces the time of day of attend and/or leave; an empty
// string leaves that side alone. Dates never change: attend keeps its date
// and a new leave is anchored on attend's date, rolling to the next day when
// it would not be after attend. No other record is touched.
func (l *Ledger) EditTimes(ctx context.Context, id, attendTime, leaveTime string) (core.Record, error) {
	var attendClock, leaveClock *core.Clock
	if strings.TrimSpace(attendTime) != "" {
		c, err := core.ParseClock(attendTime)
		if err != nil {
			return core.Record{}, err
		}
		attendClock = &c
	}
	if strings.TrimSpace(leaveTime) != "" {
		c, err := core.ParseClock(leaveTime)
		if err != nil {
			return core.Record{}, err
		}
		leaveClock = &c
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.sync(ctx); err != nil {
		return core.Record{}, err
	}

	i := l.indexOf(id)
	if i < 0 {
		return core.Record{}, core.ErrNotFound
	}
	if attendClock == nil && leaveClock == nil {
		return l.records[i], nil
	}

	rec := l.records[i]
	if attendClock != nil {
		rec.Attend = core.WithClock(rec.Attend, *attendClock)
	}
	if leaveClock != nil {
		rec.Leave = core.RollToNextDayIfNotAfter(rec.Attend, core.WithClock(rec.Attend, *leaveClock))
	} else if rec.NeedsRepair() {
		// attend moved past the stored leave
		rec.Leave = core.RollToNextDayIfNotAfter(rec.Attend, rec.Leave)
	}

	next := slices.Clone(l.records)
	next[i] = rec
	if err := l.commit(ctx, next); err != nil {
		return core.Record{}, err
	}

	logChange(ctx, applog.OpEdit, rec)
	return rec, nil
}

// Delete removes a record. Asking the user for confirmation is the caller's
// job; once called the removal is unconditional.
func (l *Ledger) Delete(ctx context.Context, id string) (core.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.sync(ctx); err != nil {
		return core.Record{}, err
	}

	i := l.indexOf(id)
	if i < 0 {
		return core.Record{}, core.ErrNotFound
	}
	removed := l.records[i]

	next := slices.Delete(slices.Clone(l.records), i, i+1)
	if err := l.commit(ctx, next); err != nil {
		return core.Record{}, err
	}

	logChange(ctx, applog.OpDelete, removed)
	return removed, nil
}

// logChange logs through the request logger when ctx carries one.
func logChange(ctx context.Context, op string, rec core.Record) {
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogLedgerChange(ctx, op, rec.ID, rec.Day.String(), rec.Attend, rec.Leave)
}

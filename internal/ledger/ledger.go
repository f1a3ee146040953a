// Package ledger owns the attendance records of the single user.
//
// Every operation runs under one lock as reload, validate, mutate a copy,
// persist, swap. The store is the source of truth: the server and the CLI
// may share it, so checks always run against the list just read back from
// it and never against a copy loaded at startup. A failed validation or a
// failed write leaves the stored list untouched.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"presenze/internal/core"
)

// DefaultBackfillWindowDays bounds how far back a day can be added by hand.
const DefaultBackfillWindowDays = 30

type Options struct {
	Rules              core.ShiftRules
	BackfillWindowDays int
	Location           *time.Location
	Now                func() time.Time
	NewID              func() string
}

func (o Options) withDefaults() Options {
	if o.Rules.ShiftHours <= 0 {
		o.Rules = core.DefaultShiftRules()
	}
	if o.BackfillWindowDays <= 0 {
		o.BackfillWindowDays = DefaultBackfillWindowDays
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.NewString() }
	}
	return o
}

type Ledger struct {
	mu      sync.Mutex
	store   *RecordStore
	opts    Options
	records []core.Record
	user    string
}

// Open loads the ledger and the display name from store.
func Open(ctx context.Context, store *RecordStore, opts Options) (*Ledger, error) {
	records, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	user, err := store.LoadUser(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load display name", "error", err)
		user = ""
	}

	l := &Ledger{
		store:   store,
		opts:    opts.withDefaults(),
		records: records,
		user:    user,
	}
	slog.InfoContext(ctx, "Ledger loaded", "records", len(records))
	return l, nil
}

func (l *Ledger) Rules() core.ShiftRules { return l.opts.Rules }

func (l *Ledger) Location() *time.Location { return l.opts.Location }

func (l *Ledger) BackfillWindowDays() int { return l.opts.BackfillWindowDays }

// Now returns the ledger clock in the ledger location, truncated to minutes.
func (l *Ledger) Now() time.Time {
	return core.TruncateMinute(l.opts.Now().In(l.opts.Location))
}

// sync replaces the in-memory list with what the store holds now. Callers
// hold mu.
func (l *Ledger) sync(ctx context.Context) error {
	records, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	l.records = records
	return nil
}

// syncForRead is sync for the read paths, which have no error return; a
// failed reload serves the last list seen. Callers hold mu.
func (l *Ledger) syncForRead() {
	if err := l.sync(context.Background()); err != nil {
		slog.Warn("Serving last loaded ledger", "error", err)
	}
}

// commit persists next and makes it the current list. Callers hold mu.
func (l *Ledger) commit(ctx context.Context, next []core.Record) error {
	if err := l.store.Persist(ctx, next); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	l.records = next
	return nil
}

func (l *Ledger) indexOf(id string) int {
	return slices.IndexFunc(l.records, func(r core.Record) bool { return r.ID == id })
}

func (l *Ledger) dayTaken(day core.DayKey) (core.Record, bool) {
	i := slices.IndexFunc(l.records, func(r core.Record) bool { return r.Day == day })
	if i < 0 {
		return core.Record{}, false
	}
	return l.records[i], true
}

// Records returns a copy of the ledger ordered by attend, oldest first.
func (l *Ledger) Records() []core.Record {
	l.mu.Lock()
	l.syncForRead()
	out := slices.Clone(l.records)
	l.mu.Unlock()
	slices.SortStableFunc(out, func(a, b core.Record) int { return a.Attend.Compare(b.Attend) })
	return out
}

// ListNewestFirst returns a copy ordered by attend, newest first.
func (l *Ledger) ListNewestFirst() []core.Record {
	out := l.Records()
	slices.Reverse(out)
	return out
}

func (l *Ledger) Get(id string) (core.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.syncForRead()
	i := l.indexOf(id)
	if i < 0 {
		return core.Record{}, core.ErrNotFound
	}
	return l.records[i], nil
}

// DateBounds returns the earliest and latest recorded day. ok is false for
// an empty ledger.
func (l *Ledger) DateBounds() (first, last core.DayKey, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.syncForRead()
	for _, r := range l.records {
		if !ok || r.Day < first {
			first = r.Day
		}
		if !ok || r.Day > last {
			last = r.Day
		}
		ok = true
	}
	return first, last, ok
}

// User returns the stored display name, falling back to the last one seen
// when the store cannot be read.
func (l *Ledger) User() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if user, err := l.store.LoadUser(context.Background()); err == nil {
		l.user = user
	}
	return l.user
}

// SetUser validates and stores the display name; "" clears it.
func (l *Ledger) SetUser(ctx context.Context, name string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	saved, err := l.store.SaveUser(ctx, name)
	if err != nil {
		return "", err
	}
	l.user = saved
	return saved, nil
}

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"presenze/internal/core"
	"presenze/internal/storage"
)

const (
	KeyAttendance = "attendance"
	KeyUser       = "attendanceUser"
)

// RecordStore mirrors the ledger to a key-value collaborator as one JSON
// array. It holds no state of its own.
type RecordStore struct {
	kv  storage.KV
	loc *time.Location
}

func NewRecordStore(kv storage.KV, loc *time.Location) *RecordStore {
	if loc == nil {
		loc = time.Local
	}
	return &RecordStore{kv: kv, loc: loc}
}

type wireRecord struct {
	ID     wireID `json:"id"`
	Day    string `json:"day"`
	Attend string `json:"attend"`
	Leave  string `json:"leave"`
}

// wireID accepts both string ids and the numeric ids older versions wrote.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = wireID(n.String())
	return nil
}

// Load returns the stored ledger. A missing or unreadable value yields an
// empty ledger; entries that cannot be decoded are dropped.
func (s *RecordStore) Load(ctx context.Context) ([]core.Record, error) {
	raw, ok, err := s.kv.Get(ctx, KeyAttendance)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyAttendance, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []core.Record{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.WarnContext(ctx, "Stored ledger is not a JSON array, starting empty", "error", err)
		return []core.Record{}, nil
	}

	records := make([]core.Record, 0, len(items))
	seen := make(map[core.DayKey]struct{}, len(items))
	for i, item := range items {
		rec, err := s.decode(item)
		if err != nil {
			slog.WarnContext(ctx, "Dropping malformed ledger entry", "index", i, "error", err)
			continue
		}
		if _, dup := seen[rec.Day]; dup {
			slog.WarnContext(ctx, "Dropping duplicate ledger day", "index", i, "day", rec.Day, "id", rec.ID)
			continue
		}
		seen[rec.Day] = struct{}{}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RecordStore) decode(item json.RawMessage) (core.Record, error) {
	var w wireRecord
	if err := json.Unmarshal(item, &w); err != nil {
		return core.Record{}, err
	}

	attend, err := core.ParseStamp(w.Attend, s.loc)
	if err != nil {
		return core.Record{}, fmt.Errorf("attend: %w", err)
	}
	rec := core.Record{ID: strings.TrimSpace(string(w.ID)), Attend: attend}

	if strings.TrimSpace(w.Leave) != "" {
		if rec.Leave, err = core.ParseStamp(w.Leave, s.loc); err != nil {
			return core.Record{}, fmt.Errorf("leave: %w", err)
		}
	}

	if strings.TrimSpace(w.Day) == "" {
		rec.Day = core.DayKeyOf(attend)
	} else if rec.Day, err = core.ParseDayKey(w.Day); err != nil {
		return core.Record{}, fmt.Errorf("day: %w", err)
	}

	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}

// Persist writes the full ledger back under the attendance key.
func (s *RecordStore) Persist(ctx context.Context, records []core.Record) error {
	out := make([]wireRecord, len(records))
	for i, r := range records {
		out[i] = wireRecord{
			ID:     wireID(r.ID),
			Day:    r.Day.String(),
			Attend: core.FormatStamp(r.Attend),
			Leave:  core.FormatStamp(r.Leave),
		}
	}
	body, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.kv.Set(ctx, KeyAttendance, string(body)); err != nil {
		return fmt.Errorf("write %s: %w", KeyAttendance, err)
	}
	return nil
}

// LoadUser returns the stored display name, or "" when none is set.
func (s *RecordStore) LoadUser(ctx context.Context) (string, error) {
	v, ok, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", KeyUser, err)
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(v), nil
}

// SaveUser validates and stores the display name. An empty name clears it.
func (s *RecordStore) SaveUser(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if err := s.kv.Delete(ctx, KeyUser); err != nil {
			return "", fmt.Errorf("clear %s: %w", KeyUser, err)
		}
		return "", nil
	}
	if err := ValidateDisplayName(name); err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, KeyUser, name); err != nil {
		return "", fmt.Errorf("write %s: %w", KeyUser, err)
	}
	return name, nil
}

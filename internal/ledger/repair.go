package ledger

import (
	"context"
	"log/slog"
	"slices"

	"presenze/internal/core"
)

// RepairResult lists the records whose leave was moved.
type RepairResult struct {
	Changed int
	IDs     []string
}

func (r RepairResult) NothingToFix() bool {
	return r.Changed == 0
}

// Repair moves every leave that is not after its attend forward by whole
// days until it is. Nothing is written when no record needs fixing, so a
// second run is a no-op.
func (l *Ledger) Repair(ctx context.Context) (RepairResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.sync(ctx); err != nil {
		return RepairResult{}, err
	}

	var res RepairResult
	next := slices.Clone(l.records)
	for i, r := range next {
		if !r.NeedsRepair() {
			continue
		}
		next[i].Leave = core.RollToNextDayIfNotAfter(r.Attend, r.Leave)
		res.Changed++
		res.IDs = append(res.IDs, r.ID)
	}
	if res.NothingToFix() {
		slog.InfoContext(ctx, "Repair found nothing to fix", "records", len(next))
		return res, nil
	}

	if err := l.commit(ctx, next); err != nil {
		return RepairResult{}, err
	}
	slog.InfoContext(ctx, "Repair completed", "changed", res.Changed)
	return res, nil
}

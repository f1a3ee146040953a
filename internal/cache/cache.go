// Package cache holds the small in-process caches used by the export sinks
// and the HTTP views.
package cache

import (
	"context"
	"log/slog"
	"time"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Purge()
	Size() int
}

// Cleaner is implemented by caches with expiring entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically drops expired entries from the registered caches.
type Janitor struct {
	caches []Cleaner
}

func NewJanitor(caches ...Cleaner) *Janitor {
	return &Janitor{caches: caches}
}

func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

// Sweep runs one cleanup pass and returns the number of dropped entries.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps every interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				slog.DebugContext(ctx, "Expired cache entries dropped", "count", n)
			}
		}
	}
}

package storage

import "context"

// KV is the string key-value collaborator the ledger is mirrored to.
// Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

package tx

import (
	"context"
	"sync"
	"time"

	dErrors "heirloom/pkg/domain-errors"
)

// Runner provides a transactional boundary for store mutations. The key
// names the entity the transaction serializes on (member ID for vote
// batches, record ID for payload and unlock mutations); the postgres
// implementation ignores it and relies on row locks, while the in-memory
// implementation maps it onto a mutex shard.
type Runner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// numShards spreads in-memory transactions across mutexes so unrelated
// entities don't contend on a single global lock.
const numShards = 128

// defaultTxTimeout bounds a transaction that arrives without a deadline.
const defaultTxTimeout = 5 * time.Second

// MemoryRunner is the in-memory Runner used by unit tests and local
// development. Two transactions with the same key serialize; different keys
// usually proceed in parallel.
type MemoryRunner struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := hashString(key) % numShards
	r.shards[shard].Lock()
	defer r.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// hashString uses FNV-1a for even shard distribution.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

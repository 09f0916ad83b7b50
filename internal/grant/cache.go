package grant

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "heirloom/pkg/domain"
	"heirloom/pkg/platform/tx"
)

var hasAccessDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "heirloom_grant_has_access_duration_ms",
	Help:    "Latency of access grant checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const (
	accessKeyPrefix = "grant:access:"
	accessKeyTTL    = 15 * time.Minute
)

// CachedStore fronts a GrantStore with Redis. Grants are append-only, so a
// cached positive can never go stale; negative results are never cached and
// always hit the backing store.
type CachedStore struct {
	store  GrantStore
	client *redis.Client
}

func NewCached(store GrantStore, client *redis.Client) *CachedStore {
	return &CachedStore{store: store, client: client}
}

func accessKey(recordID id.RecordID, userID id.UserID) string {
	return accessKeyPrefix + recordID.String() + ":" + userID.String()
}

func (s *CachedStore) Create(ctx context.Context, g *UnlockAccessGrant) (bool, error) {
	created, err := s.store.Create(ctx, g)
	if err != nil {
		return false, err
	}
	// Best effort warm; a miss just falls back to the store. Never warm
	// inside a transaction, the insert may still roll back. A repeat create
	// still warms: the pair provably holds a grant either way.
	if _, inTx := tx.From(ctx); !inTx {
		s.client.Set(ctx, accessKey(g.RecordID, g.UserID), "1", accessKeyTTL)
	}
	return created, nil
}

func (s *CachedStore) HasAccess(ctx context.Context, recordID id.RecordID, userID id.UserID) (bool, error) {
	start := time.Now()
	defer func() {
		hasAccessDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := accessKey(recordID, userID)
	_, err := s.client.Get(ctx, key).Result()
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Redis being down must not lock users out of their grants.
		return s.store.HasAccess(ctx, recordID, userID)
	}

	ok, err := s.store.HasAccess(ctx, recordID, userID)
	if err != nil {
		return false, err
	}
	if ok {
		s.client.Set(ctx, key, "1", accessKeyTTL)
	}
	return ok, nil
}

func (s *CachedStore) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*UnlockAccessGrant, error) {
	return s.store.ListByRecord(ctx, recordID)
}

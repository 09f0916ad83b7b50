//go:build integration

package grant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"heirloom/internal/grant"
	id "heirloom/pkg/domain"
	"heirloom/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backing *grant.InMemoryStore
	cached  *grant.CachedStore
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backing = grant.NewInMemory()
	s.cached = grant.NewCached(s.backing, s.redis.Client)
}

func newGrant(recordID id.RecordID, userID id.UserID) *grant.UnlockAccessGrant {
	return &grant.UnlockAccessGrant{
		ID:         id.NewGrantID(),
		RecordID:   recordID,
		UserID:     userID,
		UnlockedAt: time.Now(),
		Via:        grant.UnlockViaManual,
	}
}

func (s *CachedStoreSuite) TestCreateWarmsTheCache() {
	ctx := context.Background()
	recordID := id.NewRecordID()
	userID := id.NewUserID()

	created, err := s.cached.Create(ctx, newGrant(recordID, userID))
	s.Require().NoError(err)
	s.True(created)

	keys, err := s.redis.Client.Keys(ctx, "grant:access:*").Result()
	s.Require().NoError(err)
	s.Len(keys, 1)

	has, err := s.cached.HasAccess(ctx, recordID, userID)
	s.Require().NoError(err)
	s.True(has)
}

func (s *CachedStoreSuite) TestMissPopulatesOnPositive() {
	ctx := context.Background()
	recordID := id.NewRecordID()
	userID := id.NewUserID()

	// Write through the backing store directly so Redis starts cold.
	_, err := s.backing.Create(ctx, newGrant(recordID, userID))
	s.Require().NoError(err)

	keys, err := s.redis.Client.Keys(ctx, "grant:access:*").Result()
	s.Require().NoError(err)
	s.Empty(keys)

	has, err := s.cached.HasAccess(ctx, recordID, userID)
	s.Require().NoError(err)
	s.True(has)

	keys, err = s.redis.Client.Keys(ctx, "grant:access:*").Result()
	s.Require().NoError(err)
	s.Len(keys, 1)
}

func (s *CachedStoreSuite) TestNegativesAreNotCached() {
	ctx := context.Background()
	recordID := id.NewRecordID()
	userID := id.NewUserID()

	has, err := s.cached.HasAccess(ctx, recordID, userID)
	s.Require().NoError(err)
	s.False(has)

	keys, err := s.redis.Client.Keys(ctx, "grant:access:*").Result()
	s.Require().NoError(err)
	s.Empty(keys)

	// The grant lands later; the next check must see it immediately.
	_, err = s.backing.Create(ctx, newGrant(recordID, userID))
	s.Require().NoError(err)
	has, err = s.cached.HasAccess(ctx, recordID, userID)
	s.Require().NoError(err)
	s.True(has)
}

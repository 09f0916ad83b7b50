package grant

import (
	"context"
	"sync"

	id "heirloom/pkg/domain"
)

// InMemoryStore keeps grants in a map keyed by (record, user). Suitable for
// unit tests and single-node development.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[pairKey]*UnlockAccessGrant
}

type pairKey struct {
	record id.RecordID
	user   id.UserID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{grants: make(map[pairKey]*UnlockAccessGrant)}
}

func (s *InMemoryStore) Create(_ context.Context, g *UnlockAccessGrant) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{record: g.RecordID, user: g.UserID}
	if _, ok := s.grants[key]; ok {
		return false, nil
	}
	clone := *g
	s.grants[key] = &clone
	return true, nil
}

func (s *InMemoryStore) HasAccess(_ context.Context, recordID id.RecordID, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[pairKey{record: recordID, user: userID}]
	return ok, nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, recordID id.RecordID) ([]*UnlockAccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*UnlockAccessGrant
	for key, g := range s.grants {
		if key.record == recordID {
			clone := *g
			out = append(out, &clone)
		}
	}
	return out, nil
}

package unlock

import (
	"context"
	"sort"
	"sync"

	id "heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
)

// InMemoryStore keeps unlock requests in maps. Callers serialize mutations
// through the tx runner; the mutex only guards map access.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.RequestID]*UnlockRequest
	byPair map[pairKey]id.RequestID
}

type pairKey struct {
	record    id.RecordID
	requester id.UserID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.RequestID]*UnlockRequest),
		byPair: make(map[pairKey]id.RequestID),
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, requestID id.RequestID) (*UnlockRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.byID[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, requestID id.RequestID) (*UnlockRequest, error) {
	return s.FindByID(ctx, requestID)
}

func (s *InMemoryStore) FindForRequesterForUpdate(_ context.Context, recordID id.RecordID, requesterID id.UserID) (*UnlockRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	requestID, ok := s.byPair[pairKey{record: recordID, requester: requesterID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[requestID]
	return &clone, nil
}

func (s *InMemoryStore) Create(_ context.Context, req *UnlockRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{record: req.RecordID, requester: req.RequesterUserID}
	if _, ok := s.byPair[key]; ok {
		return sentinel.ErrConflict
	}
	clone := *req
	s.byID[req.ID] = &clone
	s.byPair[key] = req.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, req *UnlockRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[req.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *req
	s.byID[req.ID] = &clone
	return nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, recordID id.RecordID) ([]*UnlockRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*UnlockRequest
	for _, req := range s.byID {
		if req.RecordID == recordID {
			clone := *req
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

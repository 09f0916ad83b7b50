package records

import (
	"context"
	"sync"

	id "heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]*SecureRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.RecordID]*SecureRecord)}
}

func (s *InMemoryStore) FindByID(_ context.Context, recordID id.RecordID) (*SecureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(r), nil
}

func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, recordID id.RecordID) (*SecureRecord, error) {
	return s.FindByID(ctx, recordID)
}

func (s *InMemoryStore) Update(_ context.Context, record *SecureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *InMemoryStore) Create(_ context.Context, record *SecureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return sentinel.ErrConflict
	}
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func cloneRecord(r *SecureRecord) *SecureRecord {
	cp := *r
	if r.Ciphertext != nil {
		cp.Ciphertext = append([]byte(nil), r.Ciphertext...)
	}
	if r.PINHash != nil {
		h := *r.PINHash
		cp.PINHash = &h
	}
	if r.Plaintext != nil {
		p := *r.Plaintext
		cp.Plaintext = &p
	}
	if r.MemberID != nil {
		m := *r.MemberID
		cp.MemberID = &m
	}
	return &cp
}

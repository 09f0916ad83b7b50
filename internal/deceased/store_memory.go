package deceased

import (
	"context"
	"sync"

	"github.com/google/uuid"

	id "heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
)

type InMemoryVoteStore struct {
	mu    sync.RWMutex
	votes map[uuid.UUID]*Vote
}

func NewInMemoryVoteStore() *InMemoryVoteStore {
	return &InMemoryVoteStore{votes: make(map[uuid.UUID]*Vote)}
}

func (s *InMemoryVoteStore) CreateBatch(_ context.Context, votes []*Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range votes {
		for _, existing := range s.votes {
			if existing.MemberID == v.MemberID && existing.VoterUserID == v.VoterUserID && existing.Status == VoteStatusPending {
				return sentinel.ErrConflict
			}
		}
	}
	for _, v := range votes {
		cp := *v
		s.votes[v.ID] = &cp
	}
	return nil
}

func (s *InMemoryVoteStore) HasOpenBallots(_ context.Context, memberID id.MemberID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.votes {
		if v.MemberID == memberID && v.Status == VoteStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryVoteStore) FindPendingVote(_ context.Context, memberID id.MemberID, voterID id.UserID) (*Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.votes {
		if v.MemberID == memberID && v.VoterUserID == voterID && v.Status == VoteStatusPending {
			cp := *v
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryVoteStore) Update(_ context.Context, vote *Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.votes[vote.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *vote
	s.votes[vote.ID] = &cp
	return nil
}

func (s *InMemoryVoteStore) ListBatch(_ context.Context, batchID uuid.UUID) ([]*Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var votes []*Vote
	for _, v := range s.votes {
		if v.BatchID == batchID {
			cp := *v
			votes = append(votes, &cp)
		}
	}
	return votes, nil
}

func (s *InMemoryVoteStore) SupersedePending(_ context.Context, batchID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.votes {
		if v.BatchID == batchID && v.Status == VoteStatusPending {
			v.Status = VoteStatusSuperseded
		}
	}
	return nil
}

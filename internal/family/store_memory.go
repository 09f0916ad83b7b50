package family

import (
	"context"
	"sync"

	id "heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
)

// InMemoryStore implements MemberStore and RoleDirectory for unit tests and
// local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	members map[id.MemberID]*Member
	roles   map[id.FamilyID]map[id.UserID]Role
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		members: make(map[id.MemberID]*Member),
		roles:   make(map[id.FamilyID]map[id.UserID]Role),
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, memberID id.MemberID) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

// FindByIDForUpdate behaves like FindByID; serialization is provided by the
// in-memory StoreTx, which holds a per-member lock for the whole callback.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, memberID id.MemberID) (*Member, error) {
	return s.FindByID(ctx, memberID)
}

func (s *InMemoryStore) FindByUser(_ context.Context, familyID id.FamilyID, userID id.UserID) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if m.FamilyID == familyID && m.LinkedTo(userID) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, member *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[member.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *member
	s.members[member.ID] = &cp
	return nil
}

func (s *InMemoryStore) Create(_ context.Context, member *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[member.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *member
	s.members[member.ID] = &cp
	return nil
}

func (s *InMemoryStore) RoleOf(_ context.Context, userID id.UserID, familyID id.FamilyID) (Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles[familyID][userID], nil
}

func (s *InMemoryStore) Administrators(_ context.Context, familyID id.FamilyID) ([]id.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var admins []id.UserID
	for userID, role := range s.roles[familyID] {
		if role.IsAdministrator() {
			admins = append(admins, userID)
		}
	}
	return admins, nil
}

func (s *InMemoryStore) AssignRole(_ context.Context, familyID id.FamilyID, userID id.UserID, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles[familyID] == nil {
		s.roles[familyID] = make(map[id.UserID]Role)
	}
	s.roles[familyID][userID] = role
	return nil
}

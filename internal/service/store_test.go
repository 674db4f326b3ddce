package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/splitkar/splitkar/internal/model"
	"github.com/splitkar/splitkar/internal/repository"
)

// memStore is an in-memory GroupStore and ProfileStore.
type memStore struct {
	mu       sync.Mutex
	groups   map[string]*model.Group
	members  []*model.GroupMember
	profiles map[string]*model.Profile

	// hideMembers makes GetGroupMember miss, simulating a concurrent
	// joiner that read before this one inserted.
	hideMembers bool
	failWith    error
	profileCall int
}

func newMemStore() *memStore {
	return &memStore{
		groups:   make(map[string]*model.Group),
		profiles: make(map[string]*model.Profile),
	}
}

func (m *memStore) CreateGroup(ctx context.Context, group *model.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	g := *group
	m.groups[g.ID] = &g
	return nil
}

func (m *memStore) GetGroupByID(ctx context.Context, id string) (*model.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	g, ok := m.groups[id]
	if !ok {
		return nil, repository.ErrGroupNotFound
	}
	copied := *g
	return &copied, nil
}

func (m *memStore) ListGroupMembers(ctx context.Context, groupID string) ([]*model.GroupMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.GroupMember
	for _, member := range m.members {
		if member.GroupID == groupID {
			copied := *member
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memStore) GetGroupMember(ctx context.Context, groupID, userID string) (*model.GroupMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideMembers {
		return nil, repository.ErrMemberNotFound
	}
	for _, member := range m.members {
		if member.GroupID == groupID && member.UserID == userID {
			copied := *member
			return &copied, nil
		}
	}
	return nil, repository.ErrMemberNotFound
}

func (m *memStore) AddGroupMember(ctx context.Context, member *model.GroupMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.members {
		if existing.GroupID == member.GroupID && existing.UserID == member.UserID {
			return repository.ErrMemberExists
		}
	}
	copied := *member
	m.members = append(m.members, &copied)
	return nil
}

func (m *memStore) ListGroupsForUser(ctx context.Context, userID string) ([]*model.GroupSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.GroupSummary
	for _, g := range m.groups {
		member := false
		for _, mem := range m.members {
			if mem.GroupID == g.ID && mem.UserID == userID {
				member = true
			}
		}
		if g.CreatedBy == userID || member {
			out = append(out, &model.GroupSummary{Group: *g, IsCreator: g.CreatedBy == userID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) GetProfilesByIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileCall++
	out := make(map[string]*model.Profile)
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			copied := *p
			out[id] = &copied
		}
	}
	return out, nil
}

func (m *memStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memStore) UpsertProfile(ctx context.Context, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	copied := *profile
	m.profiles[profile.ID] = &copied
	return nil
}

var errBackend = errors.New("connection refused")

// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/splitkar/splitkar/internal/metrics"
	"github.com/splitkar/splitkar/internal/model"
	"github.com/splitkar/splitkar/internal/repository"
)

// GroupStore is the persistence the group lifecycle needs.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *model.Group) error
	GetGroupByID(ctx context.Context, id string) (*model.Group, error)
	ListGroupMembers(ctx context.Context, groupID string) ([]*model.GroupMember, error)
	GetGroupMember(ctx context.Context, groupID, userID string) (*model.GroupMember, error)
	AddGroupMember(ctx context.Context, member *model.GroupMember) error
	ListGroupsForUser(ctx context.Context, userID string) ([]*model.GroupSummary, error)
	GetProfilesByIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error)
}

// GroupService handles group creation, lookup and joining.
type GroupService struct {
	store   GroupStore
	baseURL string
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewGroupService creates a new GroupService.
func NewGroupService(store GroupStore, baseURL string, recorder metrics.Recorder, logger *slog.Logger) *GroupService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{
		store:   store,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateGroupInput defines input for creating a group.
// Duration is the textual number of days, as sent by a form or a JSON
// number or string.
type CreateGroupInput struct {
	Name      string
	Duration  string
	CreatorID string
}

// CreateGroupResult is a newly created group and its shareable join link.
type CreateGroupResult struct {
	Group   *model.Group
	JoinURL string
}

// CreateGroup validates input and creates a group owned by the caller.
// The creator is not added as a member.
func (s *GroupService) CreateGroup(ctx context.Context, input CreateGroupInput) (*CreateGroupResult, error) {
	if input.CreatorID == "" {
		return nil, ErrUnauthorized
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}

	days, err := ParseDurationDays(input.Duration)
	if err != nil {
		return nil, err
	}

	group := &model.Group{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: input.CreatorID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, storeError("create group", err)
	}

	s.metrics.IncGroupCreated()
	s.logger.Info("group_created",
		slog.String("group_id", group.ID),
		slog.String("user_id", group.CreatedBy),
	)

	return &CreateGroupResult{
		Group:   group,
		JoinURL: model.JoinURL(s.baseURL, group.ID, group.Name, days),
	}, nil
}

// ParseDurationDays parses a positive, finite number of days.
// Durations are display hints only and are never persisted.
func ParseDurationDays(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, NewValidationError("duration", "duration is required")
	}
	// Decimal notation only. Hex, underscores and Inf/NaN spellings are rejected.
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, NewValidationError("duration", "duration must be a number")
	}
	days := d.InexactFloat64()
	if math.IsInf(days, 0) {
		return 0, NewValidationError("duration", "duration must be a number")
	}
	if !d.IsPositive() || days <= 0 {
		return 0, NewValidationError("duration", "duration must be greater than zero")
	}
	return days, nil
}

// GetGroupWithMembers returns a group, its creator's profile and its members
// in the order they joined. No session is required.
func (s *GroupService) GetGroupWithMembers(ctx context.Context, token string) (*model.GroupWithMembers, error) {
	groupID, ok := parseGroupToken(token)
	if !ok {
		return nil, ErrGroupNotFound
	}

	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListGroupMembers(ctx, group.ID)
	if err != nil {
		return nil, storeError("list group members", err)
	}

	ids := make([]string, 0, len(members)+1)
	seen := make(map[string]bool, len(members)+1)
	for _, id := range append([]string{group.CreatedBy}, memberUserIDs(members)...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	profiles, err := s.store.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("get profiles", err)
	}

	result := &model.GroupWithMembers{
		Group:   group,
		Creator: profiles[group.CreatedBy],
		Members: make([]model.MemberWithProfile, 0, len(members)),
	}
	for _, m := range members {
		result.Members = append(result.Members, model.MemberWithProfile{
			UserID:   m.UserID,
			JoinedAt: m.JoinedAt,
			Profile:  profiles[m.UserID],
		})
	}

	return result, nil
}

// JoinResult reports the outcome of a join.
type JoinResult struct {
	AlreadyMember bool
}

// JoinGroup adds the caller to the group behind token. Joining twice is not
// an error: the second call reports AlreadyMember and writes nothing.
func (s *GroupService) JoinGroup(ctx context.Context, token, userID string) (*JoinResult, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	groupID, ok := parseGroupToken(token)
	if !ok {
		return nil, ErrGroupNotFound
	}

	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	_, err = s.store.GetGroupMember(ctx, group.ID, userID)
	switch {
	case err == nil:
		s.metrics.IncGroupJoin(metrics.JoinAlreadyMember)
		return &JoinResult{AlreadyMember: true}, nil
	case !errors.Is(err, repository.ErrMemberNotFound):
		return nil, storeError("get group member", err)
	}

	member := &model.GroupMember{
		ID:       ulid.Make().String(),
		GroupID:  group.ID,
		UserID:   userID,
		JoinedAt: s.now().UTC(),
	}
	if err := s.store.AddGroupMember(ctx, member); err != nil {
		if errors.Is(err, repository.ErrMemberExists) {
			// A concurrent join for the same user won the insert.
			s.metrics.IncGroupJoin(metrics.JoinRace)
			return &JoinResult{AlreadyMember: true}, nil
		}
		return nil, storeError("add group member", err)
	}

	s.metrics.IncGroupJoin(metrics.JoinJoined)
	s.logger.Info("group_joined",
		slog.String("group_id", group.ID),
		slog.String("user_id", userID),
	)
	return &JoinResult{AlreadyMember: false}, nil
}

// ListGroupsForUser returns the groups the caller created or joined.
func (s *GroupService) ListGroupsForUser(ctx context.Context, userID string) ([]*model.GroupSummary, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, storeError("list groups", err)
	}
	if groups == nil {
		groups = []*model.GroupSummary{}
	}
	return groups, nil
}

// JoinURL returns the shareable join link of a group.
func (s *GroupService) JoinURL(group *model.Group, durationDays float64) string {
	return model.JoinURL(s.baseURL, group.ID, group.Name, durationDays)
}

func (s *GroupService) getGroup(ctx context.Context, id string) (*model.Group, error) {
	group, err := s.store.GetGroupByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, storeError("get group", err)
	}
	return group, nil
}

// parseGroupToken returns the canonical form of a group token.
// Tokens that are not UUIDs cannot name a group.
func parseGroupToken(token string) (string, bool) {
	if len(token) != 36 {
		return "", false
	}
	id, err := uuid.Parse(token)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func memberUserIDs(members []*model.GroupMember) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids
}

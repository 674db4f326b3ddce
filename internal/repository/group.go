package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/splitkar/splitkar/internal/model"
)

// Common errors for group repository operations.
var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberNotFound = errors.New("group member not found")
	ErrMemberExists   = errors.New("user is already a member of the group")
)

// CreateGroup inserts a new group. The caller assigns the ID.
func (r *Repository) CreateGroup(ctx context.Context, group *model.Group) error {
	query := `
		INSERT INTO groups (id, name, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		group.ID,
		group.Name,
		group.CreatedBy,
		group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	return nil
}

// GetGroupByID retrieves a group by its ID.
func (r *Repository) GetGroupByID(ctx context.Context, id string) (*model.Group, error) {
	query := `
		SELECT id::text, name, created_by, created_at
		FROM groups
		WHERE id = $1
	`

	var group model.Group
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.CreatedBy,
		&group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return &group, nil
}

// ListGroupMembers returns the members of a group in the order they joined.
func (r *Repository) ListGroupMembers(ctx context.Context, groupID string) ([]*model.GroupMember, error) {
	query := `
		SELECT id, group_id::text, user_id, joined_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at, id
	`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var members []*model.GroupMember
	for rows.Next() {
		member, err := scanGroupMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group members: %w", err)
	}

	return members, nil
}

// GetGroupMember retrieves the membership of a user in a group.
func (r *Repository) GetGroupMember(ctx context.Context, groupID, userID string) (*model.GroupMember, error) {
	query := `
		SELECT id, group_id::text, user_id, joined_at
		FROM group_members
		WHERE group_id = $1 AND user_id = $2
	`

	member, err := scanGroupMember(r.pool.QueryRow(ctx, query, groupID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get group member: %w", err)
	}

	return member, nil
}

// AddGroupMember inserts a membership row.
// Returns ErrMemberExists if the user already belongs to the group.
func (r *Repository) AddGroupMember(ctx context.Context, member *model.GroupMember) error {
	query := `
		INSERT INTO group_members (id, group_id, user_id, joined_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		member.ID,
		member.GroupID,
		member.UserID,
		member.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrMemberExists
		}
		return fmt.Errorf("failed to add group member: %w", err)
	}

	return nil
}

// ListGroupsForUser returns the groups a user created or joined, newest first.
func (r *Repository) ListGroupsForUser(ctx context.Context, userID string) ([]*model.GroupSummary, error) {
	query := `
		SELECT g.id::text, g.name, g.created_by, g.created_at
		FROM groups g
		WHERE g.created_by = $1
		   OR EXISTS (
		       SELECT 1 FROM group_members m
		       WHERE m.group_id = g.id AND m.user_id = $1
		   )
		ORDER BY g.created_at DESC, g.id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*model.GroupSummary
	for rows.Next() {
		var summary model.GroupSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.CreatedBy,
			&summary.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		summary.IsCreator = summary.CreatedBy == userID
		groups = append(groups, &summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	return groups, nil
}

// scanGroupMember scans a single row into a GroupMember model.
func scanGroupMember(row pgx.Row) (*model.GroupMember, error) {
	var member model.GroupMember
	err := row.Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.JoinedAt,
	)
	return &member, err
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/splitkar/splitkar/internal/model"
)

// ErrProfileNotFound is returned when a user has not created a profile yet.
var ErrProfileNotFound = errors.New("profile not found")

// GetProfile retrieves the profile of a user.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := `
		SELECT id, full_name, upi_id, avatar_url, updated_at
		FROM profiles
		WHERE id = $1
	`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// GetProfilesByIDs retrieves the profiles of several users in one query.
// Users without a profile are simply absent from the returned map.
func (r *Repository) GetProfilesByIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error) {
	profiles := make(map[string]*model.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	query := `
		SELECT id, full_name, upi_id, avatar_url, updated_at
		FROM profiles
		WHERE id = ANY($1::text[])
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles[profile.ID] = profile
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}

// UpsertProfile creates the profile of a user or replaces its fields.
func (r *Repository) UpsertProfile(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (id, full_name, upi_id, avatar_url, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    upi_id = EXCLUDED.upi_id,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.FullName,
		profile.UpiID,
		profile.AvatarURL,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// scanProfile scans a single row into a Profile model.
func scanProfile(row pgx.Row) (*model.Profile, error) {
	var profile model.Profile
	err := row.Scan(
		&profile.ID,
		&profile.FullName,
		&profile.UpiID,
		&profile.AvatarURL,
		&profile.UpdatedAt,
	)
	return &profile, err
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/splitkar/splitkar/internal/model"
	"github.com/splitkar/splitkar/internal/repository"
)

// ProfileStore is the persistence profiles need.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, profile *model.Profile) error
}

// ProfileService reads and updates the caller's profile.
type ProfileService struct {
	store  ProfileStore
	logger *slog.Logger
	now    func() time.Time
}

// NewProfileService creates a new ProfileService.
func NewProfileService(store ProfileStore, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{store: store, logger: logger, now: time.Now}
}

// UpdateProfileInput holds the editable profile fields.
// Nil or blank fields are cleared.
type UpdateProfileInput struct {
	FullName  *string
	UpiID     *string
	AvatarURL *string
}

// Get returns the caller's profile, or nil if they have not created one.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, nil
		}
		return nil, storeError("get profile", err)
	}
	return profile, nil
}

// Update replaces the caller's profile fields, creating the profile if needed.
func (s *ProfileService) Update(ctx context.Context, userID string, input UpdateProfileInput) (*model.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	profile := &model.Profile{
		ID:        userID,
		FullName:  normalizeField(input.FullName),
		UpiID:     normalizeField(input.UpiID),
		AvatarURL: normalizeField(input.AvatarURL),
		UpdatedAt: s.now().UTC(),
	}

	// Avatars are rendered as <img src>, so only web URLs are stored.
	if profile.AvatarURL != nil && !isHTTPURL(*profile.AvatarURL) {
		return nil, NewValidationError("avatar_url", "must be an http or https URL")
	}

	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		return nil, storeError("upsert profile", err)
	}

	s.logger.Info("profile_updated", slog.String("user_id", userID))
	return profile, nil
}

// normalizeField trims value and maps blanks to nil.
func normalizeField(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

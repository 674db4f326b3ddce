package handler

import (
	"log/slog"
	"net/http"

	"github.com/splitkar/splitkar/internal/auth"
	"github.com/splitkar/splitkar/internal/handler/dto"
	"github.com/splitkar/splitkar/internal/service"
)

// ProfileHandler handles HTTP requests for the caller's profile.
type ProfileHandler struct {
	svc    ProfileService
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		handleServiceError(h.logger, w, r, service.ErrUnauthorized)
		return
	}

	profile, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(profile))
}

// Update handles PUT /api/profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		handleServiceError(h.logger, w, r, service.ErrUnauthorized)
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid request body")
		return
	}

	profile, err := h.svc.Update(r.Context(), userID, service.UpdateProfileInput{
		FullName:  req.FullName,
		UpiID:     req.UpiID,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(profile))
}

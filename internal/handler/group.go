package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/splitkar/splitkar/internal/auth"
	"github.com/splitkar/splitkar/internal/handler/dto"
	"github.com/splitkar/splitkar/internal/service"
)

// GroupHandler handles HTTP requests for group operations.
type GroupHandler struct {
	svc    GroupService
	logger *slog.Logger
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(svc GroupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/groups.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		handleServiceError(h.logger, w, r, service.ErrUnauthorized)
		return
	}

	var req dto.CreateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid request body")
		return
	}

	result, err := h.svc.CreateGroup(r.Context(), service.CreateGroupInput{
		Name:      req.Name,
		Duration:  req.DurationText(),
		CreatorID: userID,
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CreateGroupResponse{
		ID:      result.Group.ID,
		JoinURL: result.JoinURL,
	})
}

// List handles GET /api/groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListGroupsForUser(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToGroupListResponse(groups))
}

// Get handles GET /api/groups/{token}.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.svc.GetGroupWithMembers(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToGroupDetailResponse(group))
}

// Join handles POST /api/groups/{token}.
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.JoinGroup(r.Context(), chi.URLParam(r, "token"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToJoinGroupResponse(result.AlreadyMember))
}

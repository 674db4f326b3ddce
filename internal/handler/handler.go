// Package handler provides HTTP request handlers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitkar/splitkar/internal/handler/dto"
	"github.com/splitkar/splitkar/internal/middleware"
	"github.com/splitkar/splitkar/internal/model"
	"github.com/splitkar/splitkar/internal/service"
)

// Error codes returned in dto.ErrorResponse.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeGroupNotFound = "GROUP_NOT_FOUND"
	CodeStore         = "STORE_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
	CodeInvalidJSON   = "INVALID_JSON"
	CodeNotFound      = "NOT_FOUND"
	CodeMethod        = "METHOD_NOT_ALLOWED"
)

// GroupService is the group lifecycle used by the handlers.
type GroupService interface {
	CreateGroup(ctx context.Context, input service.CreateGroupInput) (*service.CreateGroupResult, error)
	GetGroupWithMembers(ctx context.Context, token string) (*model.GroupWithMembers, error)
	JoinGroup(ctx context.Context, token, userID string) (*service.JoinResult, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*model.GroupSummary, error)
}

// ProfileService is the profile record used by the handlers.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, userID string, input service.UpdateProfileInput) (*model.Profile, error)
}

// Handler serves router fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, CodeNotFound, "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, CodeMethod, "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// decodeJSON decodes the request body into v, rejecting trailing data.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// handleServiceError maps service errors to HTTP responses.
// Store and unexpected failures are logged and answered with a generic message.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: verr.Message,
			Code:  CodeValidation,
			Field: verr.Field,
		})
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Not authenticated")
	case errors.Is(err, service.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, CodeGroupNotFound, "Group not found")
	case errors.Is(err, service.ErrStore):
		logger.Error("store error",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("path", r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, CodeStore, "Internal server error")
	default:
		logger.Error("unexpected error",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("path", r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}

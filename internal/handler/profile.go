package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/profilehub/backend/internal/httputil"
	"github.com/profilehub/backend/internal/model"
	"github.com/profilehub/backend/internal/service"
	"github.com/profilehub/backend/internal/transport/http/middleware"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetMe handles GET /me/profile
// Returns the caller's profile, creating an empty one on first sign-in.
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.profileService.GetOrCreate(r.Context(), userID, middleware.GetUserEmail(r.Context()))
	if err != nil {
		httputil.WriteInternalError(w, "Failed to load profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PUT /me/profile
// Applies a profile edit, running the username reservation swap when the
// edit includes a username change.
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB is plenty for JSON
	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	profile, err := h.profileService.Update(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidFormat):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidFormat, "3-20 characters, letters, digits and underscore only")
		case errors.Is(err, model.ErrUsernameTaken):
			httputil.WriteConflict(w, model.CodeUsernameTaken, "Username already taken")
		case errors.Is(err, model.ErrWriteFailed):
			httputil.WriteError(w, http.StatusInternalServerError, model.CodeWriteFailed, "Could not save profile, please retry")
		default:
			httputil.WriteInternalError(w, "Failed to update profile")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// GetPublic handles GET /users/{username}
// Returns the public view of the profile holding a username.
func (h *ProfileHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		httputil.WriteBadRequest(w, "username is required")
		return
	}

	profile, err := h.profileService.GetPublic(r.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			httputil.WriteNotFound(w, "Profile not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to load profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

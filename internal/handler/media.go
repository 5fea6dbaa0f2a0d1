package handler

import (
	"errors"
	"net/http"

	"github.com/profilehub/backend/internal/httputil"
	"github.com/profilehub/backend/internal/model"
	"github.com/profilehub/backend/internal/service"
	"github.com/profilehub/backend/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService   *service.MediaService
	profileService *service.ProfileService
}

func NewMediaHandler(mediaService *service.MediaService, profileService *service.ProfileService) *MediaHandler {
	return &MediaHandler{
		mediaService:   mediaService,
		profileService: profileService,
	}
}

// UploadAvatar handles POST /me/avatar
// Accepts a multipart upload in the "avatar" field, normalizes it to a
// 200x200 JPEG, stores it, and records it on the caller's profile.
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if h.mediaService == nil {
		httputil.WriteServiceUnavailable(w, httputil.ErrCodeInternal, "Media storage not configured")
		return
	}

	// Cap the whole request body; multipart framing needs a little headroom
	// beyond the avatar cap itself.
	r.Body = http.MaxBytesReader(w, r.Body, model.MaxAvatarSizeBytes+512*1024)

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "avatar file is required")
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 200KB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			httputil.WriteInternalError(w, "Failed to upload avatar")
		}
		return
	}

	profile, err := h.profileService.SetAvatar(r.Context(), userID, upload)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, model.CodeWriteFailed, "Avatar uploaded but profile not updated, please retry")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

package handler

import (
	"context"
	"net/http"

	"github.com/profilehub/backend/internal/httputil"
	"github.com/profilehub/backend/internal/livecheck"
	"github.com/profilehub/backend/internal/model"
	"github.com/profilehub/backend/internal/service"
	"github.com/profilehub/backend/internal/transport/http/middleware"
)

type UsernameHandler struct {
	usernameService *service.UsernameService
	profileService  *service.ProfileService
	registry        *livecheck.Registry
}

func NewUsernameHandler(usernameService *service.UsernameService, profileService *service.ProfileService, registry *livecheck.Registry) *UsernameHandler {
	return &UsernameHandler{
		usernameService: usernameService,
		profileService:  profileService,
		registry:        registry,
	}
}

// Check handles GET /me/username/check?candidate=...
//
// Each request is one keystroke observation. The response reflects the
// debounced state: "checking" until the input goes quiet, then the cached
// verdict once the lookup lands. The client polls or re-requests on the
// next keystroke; either way the latest state comes back.
//
// The "you already have this name" shortcut compares against the caller's
// stored username, never against anything client-supplied.
func (h *UsernameHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	candidate := r.URL.Query().Get("candidate")

	profile, err := h.profileService.GetOrCreate(r.Context(), userID, middleware.GetUserEmail(r.Context()))
	if err != nil {
		httputil.WriteInternalError(w, "Failed to load profile")
		return
	}

	check := func(ctx context.Context, c string) (model.Availability, error) {
		return h.usernameService.CheckAvailability(ctx, c, userID, "")
	}

	checker := h.registry.Get(userID, check)
	status := checker.Observe(candidate, profile.Username)

	httputil.WriteJSON(w, http.StatusOK, status)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/profilehub/backend/internal/httputil"
	"github.com/profilehub/backend/internal/service"
	"github.com/profilehub/backend/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /me/notifications?limit=...
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, _ = strconv.Atoi(s)
	}

	resp, err := h.notificationService.List(r.Context(), userID, limit)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to load notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// MarkAllRead handles POST /me/notifications/read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), userID); err != nil {
		httputil.WriteInternalError(w, "Failed to mark notifications read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

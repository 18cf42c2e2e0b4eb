package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/garnizeh/shiftstaff/pkg/models"
	"github.com/garnizeh/shiftstaff/pkg/repository"
)

const maxNotifications = 200

type NotificationsHandler struct {
	repo repository.NotificationRepo
}

func NewNotificationsHandler(repo repository.NotificationRepo) *NotificationsHandler {
	return &NotificationsHandler{repo: repo}
}

// List returns the caller's newest notifications; ?limit= caps the page (default 50).
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, errBadRequest("invalid limit"))
			return
		}
		limit = min(n, maxNotifications)
	}

	items, err := h.repo.ListNotifications(r.Context(), actor.UserID, limit)
	if err != nil {
		writeError(w, r, fmt.Errorf("list notifications: %w", err))
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	writeJSON(w, items, http.StatusOK)
}

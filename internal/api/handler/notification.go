package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/goviral/goviral/internal/api/middleware"
	"github.com/goviral/goviral/internal/api/request"
	"github.com/goviral/goviral/internal/api/response"
	"github.com/goviral/goviral/internal/core"
)

// Notification handles tenant notification endpoints.
type Notification struct {
	svc *core.NotificationService
}

// NewNotification creates a new Notification handler.
func NewNotification(svc *core.NotificationService) *Notification {
	return &Notification{svc: svc}
}

// List returns the caller's notifications, newest first.
func (h *Notification) List(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())
	pg := request.ParsePagination(r)

	notifications, hasMore, err := h.svc.ListByTenant(r.Context(), tenant.ID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(notifications) > 0 {
		nextCursor = notifications[len(notifications)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, notifications, nextCursor, hasMore)
}

// MarkRead marks a notification as read.
func (h *Notification) MarkRead(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		response.WriteError(w, http.StatusBadRequest, "missing notification id")
		return
	}

	if err := h.svc.MarkRead(r.Context(), tenant.ID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

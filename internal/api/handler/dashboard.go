package handler

import (
	"net/http"

	mw "github.com/goviral/goviral/internal/api/middleware"
	"github.com/goviral/goviral/internal/api/response"
	"github.com/goviral/goviral/internal/core"
)

// Dashboard handles aggregate stats endpoints.
type Dashboard struct {
	svc *core.DashboardService
}

// NewDashboard creates a new Dashboard handler.
func NewDashboard(svc *core.DashboardService) *Dashboard {
	return &Dashboard{svc: svc}
}

// Stats returns aggregate counts for the caller.
func (h *Dashboard) Stats(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())

	stats, err := h.svc.Stats(r.Context(), tenant.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, stats)
}

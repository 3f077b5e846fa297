package handler

import (
	"net/http"

	"github.com/goviral/goviral/internal/api/response"
	"github.com/goviral/goviral/internal/core"
)

// Plan handles public pricing endpoints.
type Plan struct {
	svc *core.PlanService
}

// NewPlan creates a new Plan handler.
func NewPlan(svc *core.PlanService) *Plan {
	return &Plan{svc: svc}
}

// List returns all available plans.
func (h *Plan) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, plans)
}

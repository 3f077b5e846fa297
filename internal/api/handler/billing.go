package handler

import (
	"context"
	"net/http"

	mw "github.com/goviral/goviral/internal/api/middleware"
	"github.com/goviral/goviral/internal/api/request"
	"github.com/goviral/goviral/internal/api/response"
	"github.com/goviral/goviral/internal/core"
	"github.com/goviral/goviral/internal/model"
)

type billingService interface {
	StartTrial(ctx context.Context, tenant *model.Tenant, planName, countryCode string) (*core.TrialCheckout, error)
	Upgrade(ctx context.Context, tenant *model.Tenant, newPlanName, countryCode string) (*core.UpgradeResult, error)
	PreviewUpgrade(ctx context.Context, tenantID, newPlanName string) (*core.UpgradeQuote, error)
	VerifyPayment(ctx context.Context, reference string) (*core.VerificationResult, error)
}

type subscriptionGetter interface {
	GetByTenant(ctx context.Context, tenantID string) (*model.Subscription, error)
}

type paymentLister interface {
	ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Payment, bool, error)
}

// Billing handles subscription lifecycle endpoints.
type Billing struct {
	svc      billingService
	subs     subscriptionGetter
	payments paymentLister
}

// NewBilling creates a new Billing handler.
func NewBilling(svc billingService, subs subscriptionGetter, payments paymentLister) *Billing {
	return &Billing{svc: svc, subs: subs, payments: payments}
}

// Subscription returns the caller's current subscription.
func (h *Billing) Subscription(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())

	sub, err := h.subs.GetByTenant(r.Context(), tenant.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sub)
}

// StartTrial begins a trial and returns the provider-hosted checkout page.
func (h *Billing) StartTrial(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())

	var req request.StartTrial
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	checkout, err := h.svc.StartTrial(r.Context(), tenant, req.PlanName, req.CountryCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, checkout)
}

// Upgrade moves the caller to a more expensive plan.
func (h *Billing) Upgrade(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())

	var req request.Upgrade
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Upgrade(r.Context(), tenant, req.NewPlanName, req.CountryCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Upgraded {
		// Commit happens later via webhook or verify.
		status = http.StatusAccepted
	}
	response.WriteJSON(w, status, result)
}

// PreviewUpgrade prices an upgrade without committing anything.
func (h *Billing) PreviewUpgrade(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())

	planName := r.URL.Query().Get("plan")
	if planName == "" {
		response.WriteError(w, http.StatusBadRequest, "missing plan query parameter")
		return
	}

	quote, err := h.svc.PreviewUpgrade(r.Context(), tenant.ID, planName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, quote)
}

// Verify resolves a payment reference synchronously after a hosted flow
// redirect, for clients that do not want to poll for the webhook's effect.
func (h *Billing) Verify(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyPayment
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.VerifyPayment(r.Context(), req.Reference)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}

// Payments returns the caller's payment history.
func (h *Billing) Payments(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())
	pg := request.ParsePagination(r)

	payments, hasMore, err := h.payments.ListByTenant(r.Context(), tenant.ID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(payments) > 0 {
		nextCursor = payments[len(payments)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, payments, nextCursor, hasMore)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/goviral/goviral/internal/api/middleware"
	"github.com/goviral/goviral/internal/core"
	"github.com/goviral/goviral/internal/model"
)

type fakeBillingService struct {
	startTrialErr error
	upgradeErr    error
	previewErr    error
	verifyErr     error
	checkout      *core.TrialCheckout
	upgrade       *core.UpgradeResult
	quote         *core.UpgradeQuote
	verification  *core.VerificationResult
}

func (f *fakeBillingService) StartTrial(_ context.Context, _ *model.Tenant, _, _ string) (*core.TrialCheckout, error) {
	return f.checkout, f.startTrialErr
}

func (f *fakeBillingService) Upgrade(_ context.Context, _ *model.Tenant, _, _ string) (*core.UpgradeResult, error) {
	return f.upgrade, f.upgradeErr
}

func (f *fakeBillingService) PreviewUpgrade(_ context.Context, _, _ string) (*core.UpgradeQuote, error) {
	return f.quote, f.previewErr
}

func (f *fakeBillingService) VerifyPayment(_ context.Context, _ string) (*core.VerificationResult, error) {
	return f.verification, f.verifyErr
}

type fakeSubGetter struct {
	sub *model.Subscription
	err error
}

func (f *fakeSubGetter) GetByTenant(_ context.Context, _ string) (*model.Subscription, error) {
	return f.sub, f.err
}

type fakePaymentLister struct {
	payments []model.Payment
	hasMore  bool
}

func (f *fakePaymentLister) ListByTenant(_ context.Context, _ string, _ int, _ string) ([]model.Payment, bool, error) {
	return f.payments, f.hasMore, nil
}

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	tenant := &model.Tenant{ID: "t1", Email: "owner@example.com", Name: "Acme Social", CountryCode: "US"}
	return r.WithContext(context.WithValue(r.Context(), mw.TenantKey, tenant))
}

func TestBillingStartTrial(t *testing.T) {
	svc := &fakeBillingService{checkout: &core.TrialCheckout{
		AuthorizationURL: "https://checkout.test/abc",
		Reference:        "gv-t1-1",
		Provider:         model.ProviderStripe,
		Plan:             "Pro",
	}}
	h := NewBilling(svc, &fakeSubGetter{}, &fakePaymentLister{})

	w := httptest.NewRecorder()
	h.StartTrial(w, authedRequest(http.MethodPost, "/api/v1/billing/trial", `{"plan_name":"Pro"}`))

	require.Equal(t, http.StatusCreated, w.Code)
	var got core.TrialCheckout
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "gv-t1-1", got.Reference)
}

func TestBillingStartTrial_ValidationRejectsBadPlanName(t *testing.T) {
	h := NewBilling(&fakeBillingService{}, &fakeSubGetter{}, &fakePaymentLister{})

	w := httptest.NewRecorder()
	h.StartTrial(w, authedRequest(http.MethodPost, "/api/v1/billing/trial", `{"plan_name":"../../etc"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.StartTrial(w, authedRequest(http.MethodPost, "/api/v1/billing/trial", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBillingStartTrial_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{core.ErrAlreadySubscribed, http.StatusConflict},
		{core.ErrInvalidPlan, http.StatusUnprocessableEntity},
		{core.ErrPaymentUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewBilling(&fakeBillingService{startTrialErr: tt.err}, &fakeSubGetter{}, &fakePaymentLister{})
			w := httptest.NewRecorder()
			h.StartTrial(w, authedRequest(http.MethodPost, "/api/v1/billing/trial", `{"plan_name":"Pro"}`))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestBillingUpgrade_StatusReflectsCommit(t *testing.T) {
	committed := &fakeBillingService{upgrade: &core.UpgradeResult{Upgraded: true}}
	h := NewBilling(committed, &fakeSubGetter{}, &fakePaymentLister{})
	w := httptest.NewRecorder()
	h.Upgrade(w, authedRequest(http.MethodPost, "/api/v1/billing/upgrade", `{"new_plan_name":"Pro"}`))
	assert.Equal(t, http.StatusOK, w.Code)

	deferred := &fakeBillingService{upgrade: &core.UpgradeResult{Upgraded: false, AuthorizationURL: "https://checkout.test/abc"}}
	h = NewBilling(deferred, &fakeSubGetter{}, &fakePaymentLister{})
	w = httptest.NewRecorder()
	h.Upgrade(w, authedRequest(http.MethodPost, "/api/v1/billing/upgrade", `{"new_plan_name":"Pro"}`))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestBillingUpgrade_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{core.ErrNoActiveSubscription, http.StatusConflict},
		{core.ErrDowngradeNotAllowed, http.StatusUnprocessableEntity},
		{core.ErrPaymentFailed, http.StatusPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewBilling(&fakeBillingService{upgradeErr: tt.err}, &fakeSubGetter{}, &fakePaymentLister{})
			w := httptest.NewRecorder()
			h.Upgrade(w, authedRequest(http.MethodPost, "/api/v1/billing/upgrade", `{"new_plan_name":"Pro"}`))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestBillingPreviewUpgrade(t *testing.T) {
	svc := &fakeBillingService{quote: &core.UpgradeQuote{
		CurrentPlan:         "Starter",
		NewPlan:             "Pro",
		DaysRemaining:       15,
		PeriodDays:          30,
		ProratedAmountCents: 1000,
		Currency:            "USD",
	}}
	h := NewBilling(svc, &fakeSubGetter{}, &fakePaymentLister{})

	w := httptest.NewRecorder()
	h.PreviewUpgrade(w, authedRequest(http.MethodGet, "/api/v1/billing/upgrade/preview?plan=Pro", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var got core.UpgradeQuote
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, 1000, got.ProratedAmountCents)
}

func TestBillingPreviewUpgrade_MissingPlan(t *testing.T) {
	h := NewBilling(&fakeBillingService{}, &fakeSubGetter{}, &fakePaymentLister{})

	w := httptest.NewRecorder()
	h.PreviewUpgrade(w, authedRequest(http.MethodGet, "/api/v1/billing/upgrade/preview", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBillingSubscription_NotFound(t *testing.T) {
	h := NewBilling(&fakeBillingService{}, &fakeSubGetter{err: core.ErrNotFound}, &fakePaymentLister{})

	w := httptest.NewRecorder()
	h.Subscription(w, authedRequest(http.MethodGet, "/api/v1/billing/subscription", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBillingPayments_Pagination(t *testing.T) {
	h := NewBilling(&fakeBillingService{}, &fakeSubGetter{}, &fakePaymentLister{
		payments: []model.Payment{{ID: "p1"}, {ID: "p2"}},
		hasMore:  true,
	})

	w := httptest.NewRecorder()
	h.Payments(w, authedRequest(http.MethodGet, "/api/v1/billing/payments?limit=2", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		NextCursor string `json:"next_cursor"`
		HasMore    bool   `json:"has_more"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.True(t, got.HasMore)
	assert.Equal(t, "p2", got.NextCursor)
}

package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goviral/goviral/internal/core"
	"github.com/goviral/goviral/internal/payment/paystack"
	"github.com/goviral/goviral/internal/payment/stripeclient"
)

const (
	paystackSecret      = "sk_test_secret"
	stripeWebhookSecret = "whsec_test_secret"
)

// fakeApplier records the canonical transitions dispatched by the webhook
// adapters so tests can assert on event translation without a store.
type fakeApplier struct {
	err              error
	chargeSucceeded  []core.ChargeSucceeded
	activated        []core.SubscriptionActivated
	cancelled        []core.SubscriptionRef
	willNotRenew     []core.SubscriptionRef
	invoicePaid      []core.SubscriptionRef
	invoiceFailed    []core.SubscriptionRef
	checkoutComplete []core.CheckoutCompleted
}

func (f *fakeApplier) ApplyChargeSucceeded(_ context.Context, t core.ChargeSucceeded) error {
	f.chargeSucceeded = append(f.chargeSucceeded, t)
	return f.err
}

func (f *fakeApplier) ApplySubscriptionActivated(_ context.Context, t core.SubscriptionActivated) error {
	f.activated = append(f.activated, t)
	return f.err
}

func (f *fakeApplier) ApplySubscriptionCancelled(_ context.Context, ref core.SubscriptionRef) error {
	f.cancelled = append(f.cancelled, ref)
	return f.err
}

func (f *fakeApplier) ApplySubscriptionWillNotRenew(_ context.Context, ref core.SubscriptionRef) error {
	f.willNotRenew = append(f.willNotRenew, ref)
	return f.err
}

func (f *fakeApplier) ApplyInvoicePaid(_ context.Context, ref core.SubscriptionRef) error {
	f.invoicePaid = append(f.invoicePaid, ref)
	return f.err
}

func (f *fakeApplier) ApplyInvoicePaymentFailed(_ context.Context, ref core.SubscriptionRef) error {
	f.invoiceFailed = append(f.invoiceFailed, ref)
	return f.err
}

func (f *fakeApplier) ApplyCheckoutCompleted(_ context.Context, t core.CheckoutCompleted) error {
	f.checkoutComplete = append(f.checkoutComplete, t)
	return f.err
}

func (f *fakeApplier) total() int {
	return len(f.chargeSucceeded) + len(f.activated) + len(f.cancelled) +
		len(f.willNotRenew) + len(f.invoicePaid) + len(f.invoiceFailed) + len(f.checkoutComplete)
}

func newWebhookFixture() (*Webhook, *fakeApplier) {
	applier := &fakeApplier{}
	h := NewWebhook(
		paystack.NewClient(paystackSecret, ""),
		stripeclient.NewClient("", stripeWebhookSecret, "", ""),
		applier,
		zerolog.Nop(),
	)
	return h, applier
}

func paystackSign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(paystackSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postPaystack(h *Webhook, body []byte, signature string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	r.Header.Set("x-paystack-signature", signature)
	w := httptest.NewRecorder()
	h.Paystack(w, r)
	return w
}

// stripeSign builds a valid Stripe-Signature header: HMAC-SHA256 of
// "<timestamp>.<body>" keyed with the endpoint secret.
func stripeSign(body []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(stripeWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func postStripe(h *Webhook, body []byte, signature string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(body))
	r.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	h.Stripe(w, r)
	return w
}

func TestPaystackWebhook_RejectsBadSignature(t *testing.T) {
	h, applier := newWebhookFixture()
	body := []byte(`{"event":"charge.success","data":{"reference":"gv-t1-1"}}`)

	w := postPaystack(h, body, "deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, applier.total())

	// A valid digest over different bytes is just as invalid.
	w = postPaystack(h, append(body, '\n'), paystackSign(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, applier.total())
}

func TestPaystackWebhook_ChargeSuccess(t *testing.T) {
	h, applier := newWebhookFixture()
	body := []byte(`{
		"event": "charge.success",
		"data": {
			"reference": "gv-t1-1",
			"customer": {"customer_code": "CUS_xyz"},
			"authorization": {"authorization_code": "AUTH_abc", "brand": "visa", "last4": "4081"}
		}
	}`)

	w := postPaystack(h, body, paystackSign(body))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, applier.chargeSucceeded, 1)
	got := applier.chargeSucceeded[0]
	assert.Equal(t, "gv-t1-1", got.Reference)
	assert.Equal(t, "CUS_xyz", got.CustomerCode)
	assert.Equal(t, "AUTH_abc", got.Authorization.AuthorizationCode)
}

func TestPaystackWebhook_SubscriptionEvents(t *testing.T) {
	tests := []struct {
		event string
		check func(t *testing.T, applier *fakeApplier)
	}{
		{"subscription.create", func(t *testing.T, a *fakeApplier) {
			require.Len(t, a.activated, 1)
			assert.Equal(t, "AUTH_abc", a.activated[0].PaystackAuthorizationCode)
			assert.Equal(t, "SUB_1", a.activated[0].PaystackSubscriptionCode)
		}},
		{"subscription.disable", func(t *testing.T, a *fakeApplier) {
			require.Len(t, a.cancelled, 1)
			assert.Equal(t, "AUTH_abc", a.cancelled[0].PaystackAuthorizationCode)
		}},
		{"subscription.not_renew", func(t *testing.T, a *fakeApplier) {
			require.Len(t, a.willNotRenew, 1)
			assert.Equal(t, "AUTH_abc", a.willNotRenew[0].PaystackAuthorizationCode)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			h, applier := newWebhookFixture()
			body := []byte(`{"event":"` + tt.event + `","data":{"subscription_code":"SUB_1","authorization":{"authorization_code":"AUTH_abc"}}}`)

			w := postPaystack(h, body, paystackSign(body))
			require.Equal(t, http.StatusOK, w.Code)
			tt.check(t, applier)
		})
	}
}

func TestPaystackWebhook_InvoiceUpdate(t *testing.T) {
	h, applier := newWebhookFixture()

	paid := []byte(`{"event":"invoice.update","data":{"paid":true,"authorization":{"authorization_code":"AUTH_abc"}}}`)
	w := postPaystack(h, paid, paystackSign(paid))
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, applier.invoicePaid, 1)

	// An unpaid invoice update carries no transition.
	unpaid := []byte(`{"event":"invoice.update","data":{"paid":false,"authorization":{"authorization_code":"AUTH_abc"}}}`)
	w = postPaystack(h, unpaid, paystackSign(unpaid))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, applier.invoicePaid, 1)

	failed := []byte(`{"event":"invoice.payment_failed","data":{"authorization":{"authorization_code":"AUTH_abc"}}}`)
	w = postPaystack(h, failed, paystackSign(failed))
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, applier.invoiceFailed, 1)
}

func TestPaystackWebhook_UnknownEventAcknowledged(t *testing.T) {
	h, applier := newWebhookFixture()
	body := []byte(`{"event":"transfer.success","data":{}}`)

	w := postPaystack(h, body, paystackSign(body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, applier.total())
}

func TestPaystackWebhook_StoreFailureReturns500(t *testing.T) {
	h, applier := newWebhookFixture()
	applier.err = assert.AnError
	body := []byte(`{"event":"charge.success","data":{"reference":"gv-t1-1"}}`)

	w := postPaystack(h, body, paystackSign(body))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStripeWebhook_RejectsBadSignature(t *testing.T) {
	h, applier := newWebhookFixture()
	body := []byte(`{"type":"checkout.session.completed","data":{"object":{}}}`)

	w := postStripe(h, body, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, applier.total())
}

func TestStripeWebhook_CheckoutSessionCompleted(t *testing.T) {
	h, applier := newWebhookFixture()
	body := []byte(`{
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"client_reference_id": "gv-t1-1",
				"customer": "cus_123",
				"subscription": "sub_456",
				"metadata": {"tenant_id": "t1", "plan_name": "Pro", "trial_days": "7"}
			}
		}
	}`)

	w := postStripe(h, body, stripeSign(body))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, applier.checkoutComplete, 1)
	got := applier.checkoutComplete[0]
	assert.Equal(t, "gv-t1-1", got.Reference)
	assert.Equal(t, "t1", got.TenantID)
	assert.Equal(t, "Pro", got.PlanName)
	assert.Equal(t, 7, got.TrialDays)
	assert.Equal(t, "cus_123", got.CustomerID)
	assert.Equal(t, "sub_456", got.SubscriptionID)
}

func TestStripeWebhook_InvoiceSubscriptionFallback(t *testing.T) {
	h, applier := newWebhookFixture()

	// Newer API versions nest the subscription id under parent.
	body := []byte(`{
		"type": "invoice.paid",
		"data": {
			"object": {
				"customer": "cus_123",
				"parent": {"subscription_details": {"subscription": "sub_456"}}
			}
		}
	}`)

	w := postStripe(h, body, stripeSign(body))
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, applier.invoicePaid, 1)
	assert.Equal(t, "sub_456", applier.invoicePaid[0].StripeSubscriptionID)
}

func TestStripeWebhook_SubscriptionUpdated(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, applier *fakeApplier)
	}{
		{
			name: "cancel at period end",
			body: `{"id":"sub_456","customer":"cus_123","status":"active","cancel_at_period_end":true}`,
			check: func(t *testing.T, a *fakeApplier) {
				require.Len(t, a.willNotRenew, 1)
				assert.Equal(t, "sub_456", a.willNotRenew[0].StripeSubscriptionID)
			},
		},
		{
			name: "active",
			body: `{"id":"sub_456","customer":"cus_123","status":"active"}`,
			check: func(t *testing.T, a *fakeApplier) {
				require.Len(t, a.activated, 1)
				assert.Equal(t, "cus_123", a.activated[0].CustomerID)
				assert.Equal(t, "sub_456", a.activated[0].SubscriptionID)
			},
		},
		{
			name: "past due",
			body: `{"id":"sub_456","customer":"cus_123","status":"past_due"}`,
			check: func(t *testing.T, a *fakeApplier) {
				require.Len(t, a.invoiceFailed, 1)
				assert.Equal(t, "sub_456", a.invoiceFailed[0].StripeSubscriptionID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, applier := newWebhookFixture()
			body := []byte(`{"type":"customer.subscription.updated","data":{"object":` + tt.body + `}}`)

			w := postStripe(h, body, stripeSign(body))
			require.Equal(t, http.StatusOK, w.Code)
			tt.check(t, applier)
		})
	}
}

func TestStripeWebhook_SubscriptionDeleted(t *testing.T) {
	h, applier := newWebhookFixture()
	body := []byte(`{"type":"customer.subscription.deleted","data":{"object":{"id":"sub_456","customer":"cus_123","status":"canceled"}}}`)

	w := postStripe(h, body, stripeSign(body))
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, applier.cancelled, 1)
	assert.Equal(t, "sub_456", applier.cancelled[0].StripeSubscriptionID)
}

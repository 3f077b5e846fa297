package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"github.com/goviral/goviral/internal/api/response"
	"github.com/goviral/goviral/internal/core"
	"github.com/goviral/goviral/internal/payment"
)

type paystackWebhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

type stripeWebhookVerifier interface {
	ConstructWebhookEvent(body []byte, signatureHeader string) (stripe.Event, error)
}

type transitionApplier interface {
	ApplyChargeSucceeded(ctx context.Context, t core.ChargeSucceeded) error
	ApplySubscriptionActivated(ctx context.Context, t core.SubscriptionActivated) error
	ApplySubscriptionCancelled(ctx context.Context, ref core.SubscriptionRef) error
	ApplySubscriptionWillNotRenew(ctx context.Context, ref core.SubscriptionRef) error
	ApplyInvoicePaid(ctx context.Context, ref core.SubscriptionRef) error
	ApplyInvoicePaymentFailed(ctx context.Context, ref core.SubscriptionRef) error
	ApplyCheckoutCompleted(ctx context.Context, t core.CheckoutCompleted) error
}

// Webhook translates provider event vocabularies into canonical subscription
// transitions. Each adapter verifies the request signature against the raw
// body before any of it is parsed; a store failure returns 500 so the
// provider redelivers, which is safe because every transition is idempotent.
type Webhook struct {
	paystack   paystackWebhookVerifier
	stripe     stripeWebhookVerifier
	reconciler transitionApplier
	logger     zerolog.Logger
}

// NewWebhook creates a new Webhook handler.
func NewWebhook(paystack paystackWebhookVerifier, stripe stripeWebhookVerifier, reconciler transitionApplier, logger zerolog.Logger) *Webhook {
	return &Webhook{paystack: paystack, stripe: stripe, reconciler: reconciler, logger: logger}
}

// paystackEvent is Paystack's webhook envelope.
type paystackEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type paystackChargeData struct {
	Reference string `json:"reference"`
	Customer  struct {
		CustomerCode string `json:"customer_code"`
	} `json:"customer"`
	Authorization payment.CardAuthorization `json:"authorization"`
}

type paystackSubscriptionData struct {
	SubscriptionCode string `json:"subscription_code"`
	Authorization    struct {
		AuthorizationCode string `json:"authorization_code"`
	} `json:"authorization"`
}

type paystackInvoiceData struct {
	Paid          bool `json:"paid"`
	Authorization struct {
		AuthorizationCode string `json:"authorization_code"`
	} `json:"authorization"`
}

// Paystack handles POST /webhooks/paystack.
func (h *Webhook) Paystack(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if !h.paystack.VerifyWebhookSignature(body, r.Header.Get("x-paystack-signature")) {
		response.WriteError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	var event paystackEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	h.logger.Info().Str("event", event.Event).Msg("paystack webhook")

	switch event.Event {
	case "charge.success":
		var data paystackChargeData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		err = h.reconciler.ApplyChargeSucceeded(r.Context(), core.ChargeSucceeded{
			Reference:     data.Reference,
			CustomerCode:  data.Customer.CustomerCode,
			Authorization: data.Authorization,
		})
	case "subscription.create":
		var data paystackSubscriptionData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		err = h.reconciler.ApplySubscriptionActivated(r.Context(), core.SubscriptionActivated{
			PaystackAuthorizationCode: data.Authorization.AuthorizationCode,
			PaystackSubscriptionCode:  data.SubscriptionCode,
		})
	case "subscription.disable":
		var data paystackSubscriptionData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		err = h.reconciler.ApplySubscriptionCancelled(r.Context(), core.SubscriptionRef{
			PaystackAuthorizationCode: data.Authorization.AuthorizationCode,
		})
	case "subscription.not_renew":
		var data paystackSubscriptionData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		err = h.reconciler.ApplySubscriptionWillNotRenew(r.Context(), core.SubscriptionRef{
			PaystackAuthorizationCode: data.Authorization.AuthorizationCode,
		})
	case "invoice.update":
		var data paystackInvoiceData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if data.Paid {
			err = h.reconciler.ApplyInvoicePaid(r.Context(), core.SubscriptionRef{
				PaystackAuthorizationCode: data.Authorization.AuthorizationCode,
			})
		}
	case "invoice.payment_failed":
		var data paystackInvoiceData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		err = h.reconciler.ApplyInvoicePaymentFailed(r.Context(), core.SubscriptionRef{
			PaystackAuthorizationCode: data.Authorization.AuthorizationCode,
		})
	default:
		// Unhandled events acknowledge so the provider stops retrying.
	}

	if err != nil {
		h.logger.Error().Err(err).Str("event", event.Event).Msg("paystack webhook failed")
		response.WriteError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// stripeCheckoutSession is the slice of the checkout.session.completed
// payload the reconciler needs. In webhook JSON customer and subscription
// arrive as plain ids.
type stripeCheckoutSession struct {
	ClientReferenceID string            `json:"client_reference_id"`
	Customer          string            `json:"customer"`
	Subscription      string            `json:"subscription"`
	Metadata          map[string]string `json:"metadata"`
}

type stripeInvoice struct {
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Parent       struct {
		SubscriptionDetails struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func (i stripeInvoice) subscriptionID() string {
	if i.Subscription != "" {
		return i.Subscription
	}
	return i.Parent.SubscriptionDetails.Subscription
}

type stripeSubscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

// Stripe handles POST /webhooks/stripe.
func (h *Webhook) Stripe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	event, err := h.stripe.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	h.logger.Info().Str("event", string(event.Type)).Msg("stripe webhook")

	switch event.Type {
	case "checkout.session.completed":
		var sess stripeCheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		trialDays, _ := strconv.Atoi(sess.Metadata["trial_days"])
		err = h.reconciler.ApplyCheckoutCompleted(r.Context(), core.CheckoutCompleted{
			Reference:      sess.ClientReferenceID,
			TenantID:       sess.Metadata["tenant_id"],
			PlanName:       sess.Metadata["plan_name"],
			TrialDays:      trialDays,
			CustomerID:     sess.Customer,
			SubscriptionID: sess.Subscription,
		})
	case "invoice.paid":
		var inv stripeInvoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		err = h.reconciler.ApplyInvoicePaid(r.Context(), core.SubscriptionRef{
			StripeSubscriptionID: inv.subscriptionID(),
		})
	case "invoice.payment_failed":
		var inv stripeInvoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		err = h.reconciler.ApplyInvoicePaymentFailed(r.Context(), core.SubscriptionRef{
			StripeSubscriptionID: inv.subscriptionID(),
		})
	case "customer.subscription.updated":
		var sub stripeSubscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		switch {
		case sub.CancelAtPeriodEnd:
			err = h.reconciler.ApplySubscriptionWillNotRenew(r.Context(), core.SubscriptionRef{
				StripeSubscriptionID: sub.ID,
			})
		case sub.Status == "active":
			err = h.reconciler.ApplySubscriptionActivated(r.Context(), core.SubscriptionActivated{
				CustomerID:     sub.Customer,
				SubscriptionID: sub.ID,
			})
		case sub.Status == "past_due":
			err = h.reconciler.ApplyInvoicePaymentFailed(r.Context(), core.SubscriptionRef{
				StripeSubscriptionID: sub.ID,
			})
		}
	case "customer.subscription.deleted":
		var sub stripeSubscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		err = h.reconciler.ApplySubscriptionCancelled(r.Context(), core.SubscriptionRef{
			StripeSubscriptionID: sub.ID,
		})
	default:
		// Unhandled events acknowledge so the provider stops retrying.
	}

	if err != nil {
		h.logger.Error().Err(err).Str("event", string(event.Type)).Msg("stripe webhook failed")
		response.WriteError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Package stripeclient wraps the Stripe SDK for hosted checkout sessions and
// webhook event verification. It is constructed and injected rather than
// configured through the SDK's package-level key so tests can substitute it.
package stripeclient

import (
	"context"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/goviral/goviral/internal/payment"
)

type Client struct {
	api           *client.API
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewClient(secretKey, webhookSecret, successURL, cancelURL string) *Client {
	c := &Client{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
	if secretKey != "" {
		c.api = &client.API{}
		c.api.Init(secretKey, nil)
	}
	return c
}

// Configured reports whether the client has credentials to call the API.
func (c *Client) Configured() bool {
	return c.secretKey != ""
}

// CreateCheckoutSession creates a subscription-mode hosted checkout. The
// payment reference travels as the session's client_reference_id so the
// webhook reconciler can match the resulting events to the pending payment.
func (c *Client) CreateCheckoutSession(ctx context.Context, p payment.CheckoutParams) (*payment.CheckoutSession, error) {
	if c.api == nil {
		return nil, fmt.Errorf("stripe client is not configured")
	}

	metadata := map[string]string{
		"tenant_id": p.Metadata.TenantID,
		"plan_id":   p.Metadata.PlanID,
		"plan_name": p.Metadata.PlanName,
		"intent":    p.Metadata.Intent,
	}
	if p.Metadata.TrialDays > 0 {
		metadata["trial_days"] = fmt.Sprintf("%d", p.Metadata.TrialDays)
	}

	params := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(p.Reference),
		CustomerEmail:     stripe.String(p.Email),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(p.Currency)),
				UnitAmount: stripe.Int64(int64(p.AmountCents)),
				Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
					Interval: stripe.String("month"),
				},
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(p.PlanName),
				},
			},
		}},
		Metadata: metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &payment.CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// ConstructWebhookEvent verifies the Stripe-Signature header against the raw
// body and returns the parsed event. Verification happens before any of the
// body is interpreted. API version mismatches are ignored: Stripe delivers
// events pinned to the account's version, which routinely differs from the
// version the SDK was generated against.
func (c *Client) ConstructWebhookEvent(body []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(body, signatureHeader, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

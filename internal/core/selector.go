package core

import (
	"fmt"

	"github.com/goviral/goviral/internal/model"
)

// ProviderAvailability reports which provider clients carry credentials.
type ProviderAvailability struct {
	Paystack bool
	Stripe   bool
}

// SelectProvider chooses the payment provider for an operation. The decision
// is pure in its inputs so the table is directly testable.
//
// Priority order:
//  1. Provider affinity. A subscription with a saved Paystack authorization
//     must keep charging through Paystack (the mandate lives there); an
//     attached Stripe subscription id symmetrically forces Stripe.
//  2. Country heuristic: the Nigerian market defaults to Paystack,
//     everywhere else defaults to Stripe.
//  3. Availability: an unconfigured choice falls back to the other provider
//     when that one is configured; neither configured is ErrPaymentUnavailable.
func SelectProvider(countryCode string, sub *model.Subscription, avail ProviderAvailability) (model.PaymentProvider, error) {
	preferred := model.ProviderStripe
	switch {
	case sub != nil && sub.HasPaystackMandate():
		preferred = model.ProviderPaystack
	case sub != nil && sub.HasStripeSubscription():
		preferred = model.ProviderStripe
	case countryCode == "NG":
		preferred = model.ProviderPaystack
	}

	if available(preferred, avail) {
		return preferred, nil
	}
	other := model.ProviderPaystack
	if preferred == model.ProviderPaystack {
		other = model.ProviderStripe
	}
	if available(other, avail) {
		return other, nil
	}
	return "", fmt.Errorf("select provider: %w", ErrPaymentUnavailable)
}

// currencyForCountry maps a checkout country to the currency plans are
// priced in for that market, for looking up regional price variants.
func currencyForCountry(countryCode string) string {
	if countryCode == "NG" {
		return "NGN"
	}
	return "USD"
}

func available(p model.PaymentProvider, avail ProviderAvailability) bool {
	if p == model.ProviderPaystack {
		return avail.Paystack
	}
	return avail.Stripe
}

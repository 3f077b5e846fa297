package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goviral/goviral/internal/model"
)

func TestSelectProvider(t *testing.T) {
	both := ProviderAvailability{Paystack: true, Stripe: true}
	paystackSub := &model.Subscription{PaystackAuthorizationCode: strPtr("AUTH_x")}
	stripeSub := &model.Subscription{StripeSubscriptionID: strPtr("sub_x")}

	tests := []struct {
		name    string
		country string
		sub     *model.Subscription
		avail   ProviderAvailability
		want    model.PaymentProvider
		wantErr bool
	}{
		{name: "nigeria routes to paystack", country: "NG", avail: both, want: model.ProviderPaystack},
		{name: "everywhere else routes to stripe", country: "US", avail: both, want: model.ProviderStripe},
		{name: "empty country routes to stripe", country: "", avail: both, want: model.ProviderStripe},
		{name: "paystack mandate overrides country", country: "US", sub: paystackSub, avail: both, want: model.ProviderPaystack},
		{name: "stripe subscription overrides country", country: "NG", sub: stripeSub, avail: both, want: model.ProviderStripe},
		{name: "falls back when preferred unconfigured", country: "NG", avail: ProviderAvailability{Stripe: true}, want: model.ProviderStripe},
		{name: "falls back the other way", country: "US", avail: ProviderAvailability{Paystack: true}, want: model.ProviderPaystack},
		{name: "neither configured", country: "US", avail: ProviderAvailability{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectProvider(tt.country, tt.sub, tt.avail)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPaymentUnavailable)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

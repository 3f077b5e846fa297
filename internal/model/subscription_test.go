package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatusHelpers(t *testing.T) {
	sub := &Subscription{Status: SubscriptionTrial}
	assert.True(t, sub.IsTrialing())
	assert.False(t, sub.IsActive())

	sub.Status = SubscriptionActive
	assert.False(t, sub.IsTrialing())
	assert.True(t, sub.IsActive())

	sub.Status = SubscriptionPastDue
	assert.False(t, sub.IsTrialing())
	assert.False(t, sub.IsActive())
}

func TestSubscriptionProviderAffinity(t *testing.T) {
	sub := &Subscription{}
	assert.False(t, sub.HasPaystackMandate())
	assert.False(t, sub.HasStripeSubscription())

	empty := ""
	sub.PaystackAuthorizationCode = &empty
	assert.False(t, sub.HasPaystackMandate())

	code := "AUTH_abc"
	sub.PaystackAuthorizationCode = &code
	assert.True(t, sub.HasPaystackMandate())

	subID := "sub_123"
	sub.StripeSubscriptionID = &subID
	assert.True(t, sub.HasStripeSubscription())
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	assert.False(t, PaymentPending.IsTerminal())
	assert.True(t, PaymentPaid.IsTerminal())
	assert.True(t, PaymentSuccess.IsTerminal())
	assert.True(t, PaymentFailed.IsTerminal())
}

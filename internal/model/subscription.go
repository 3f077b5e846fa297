package model

import "time"

// SubscriptionStatus is the canonical provider-agnostic status vocabulary.
// Provider event statuses are always mapped into this domain before storage.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// PaymentProvider identifies which payment processor holds a mandate.
type PaymentProvider string

const (
	ProviderPaystack PaymentProvider = "paystack"
	ProviderStripe   PaymentProvider = "stripe"
)

// Subscription is the canonical billing record. Each tenant has at most one
// row, enforced by a unique constraint on tenant_id and upsert-only writes.
type Subscription struct {
	ID                 string             `json:"id" db:"id"`
	TenantID           string             `json:"tenant_id" db:"tenant_id"`
	PlanID             string             `json:"plan_id" db:"plan_id"`
	PlanName           string             `json:"plan_name" db:"plan_name"`
	Status             SubscriptionStatus `json:"status" db:"status"`
	CurrentPeriodStart time.Time          `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end" db:"current_period_end"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at,omitempty" db:"trial_ends_at"`
	NextBillingDate    *time.Time         `json:"next_billing_date,omitempty" db:"next_billing_date"`
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end" db:"cancel_at_period_end"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty" db:"cancelled_at"`

	// Paystack saved-card mandate and recurring references.
	PaystackAuthorizationCode *string `json:"-" db:"paystack_authorization_code"`
	PaystackCustomerCode      *string `json:"-" db:"paystack_customer_code"`
	PaystackSubscriptionCode  *string `json:"-" db:"paystack_subscription_code"`
	CardBrand                 *string `json:"card_brand,omitempty" db:"card_brand"`
	CardLast4                 *string `json:"card_last4,omitempty" db:"card_last4"`
	CardExpMonth              *string `json:"card_exp_month,omitempty" db:"card_exp_month"`
	CardExpYear               *string `json:"card_exp_year,omitempty" db:"card_exp_year"`

	// Stripe recurring relationship.
	StripeCustomerID     *string `json:"-" db:"stripe_customer_id"`
	StripeSubscriptionID *string `json:"-" db:"stripe_subscription_id"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (s *Subscription) IsTrialing() bool {
	return s.Status == SubscriptionTrial
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

// HasPaystackMandate reports whether a reusable saved-card authorization
// exists, which forces recurring charges to stay with Paystack.
func (s *Subscription) HasPaystackMandate() bool {
	return s.PaystackAuthorizationCode != nil && *s.PaystackAuthorizationCode != ""
}

// HasStripeSubscription reports whether a recurring Stripe subscription is
// attached, which forces billing operations to stay with Stripe.
func (s *Subscription) HasStripeSubscription() bool {
	return s.StripeSubscriptionID != nil && *s.StripeSubscriptionID != ""
}

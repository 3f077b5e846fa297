package core

import (
	"context"

	"github.com/goviral/goviral/internal/model"
	"github.com/goviral/goviral/internal/payment"
)

// Narrow dependency interfaces for the billing orchestrator and the webhook
// reconciler. The SQL-backed services above satisfy them; tests substitute
// in-memory fakes to drive event sequences without a database.

type subscriptionStore interface {
	GetByTenant(ctx context.Context, tenantID string) (*model.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*model.Subscription, error)
	GetByPaystackAuthorization(ctx context.Context, authorizationCode string) (*model.Subscription, error)
	UpsertByTenant(ctx context.Context, sub *model.Subscription) error
}

type paymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByReference(ctx context.Context, reference string) (*model.Payment, error)
	MarkStatus(ctx context.Context, reference string, status model.PaymentStatus) (bool, error)
}

type planCatalog interface {
	Resolve(ctx context.Context, name string) (*model.Plan, error)
}

type notifier interface {
	Create(ctx context.Context, tenantID, message string) error
}

// CardProcessor is the saved-card charge provider boundary (Paystack).
type CardProcessor interface {
	Configured() bool
	InitializeTransaction(ctx context.Context, p payment.InitializeParams) (*payment.HostedTransaction, error)
	ChargeAuthorization(ctx context.Context, p payment.ChargeParams) (*payment.ChargeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*payment.VerifyResult, error)
}

// CheckoutProcessor is the hosted checkout-session provider boundary (Stripe).
type CheckoutProcessor interface {
	Configured() bool
	CreateCheckoutSession(ctx context.Context, p payment.CheckoutParams) (*payment.CheckoutSession, error)
}

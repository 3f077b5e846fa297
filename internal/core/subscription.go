package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/goviral/goviral/internal/model"
)

const subscriptionColumns = `id, tenant_id, plan_id, plan_name, status,
	 current_period_start, current_period_end, trial_ends_at, next_billing_date,
	 cancel_at_period_end, cancelled_at,
	 paystack_authorization_code, paystack_customer_code, paystack_subscription_code,
	 card_brand, card_last4, card_exp_month, card_exp_year,
	 stripe_customer_id, stripe_subscription_id, version, created_at, updated_at`

type SubscriptionService struct {
	db DB
}

func NewSubscriptionService(db DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

func (s *SubscriptionService) GetByTenant(ctx context.Context, tenantID string) (*model.Subscription, error) {
	return s.getWhere(ctx, "tenant_id = $1", tenantID)
}

func (s *SubscriptionService) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	return s.getWhere(ctx, "stripe_subscription_id = $1", subscriptionID)
}

func (s *SubscriptionService) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.Subscription, error) {
	return s.getWhere(ctx, "stripe_customer_id = $1", customerID)
}

func (s *SubscriptionService) GetByPaystackAuthorization(ctx context.Context, authorizationCode string) (*model.Subscription, error) {
	return s.getWhere(ctx, "paystack_authorization_code = $1", authorizationCode)
}

func (s *SubscriptionService) getWhere(ctx context.Context, where string, arg any) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE `+where, arg,
	).Scan(&sub.ID, &sub.TenantID, &sub.PlanID, &sub.PlanName, &sub.Status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.TrialEndsAt, &sub.NextBillingDate,
		&sub.CancelAtPeriodEnd, &sub.CancelledAt,
		&sub.PaystackAuthorizationCode, &sub.PaystackCustomerCode, &sub.PaystackSubscriptionCode,
		&sub.CardBrand, &sub.CardLast4, &sub.CardExpMonth, &sub.CardExpYear,
		&sub.StripeCustomerID, &sub.StripeSubscriptionID, &sub.Version, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subscription: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

// UpsertByTenant writes the subscription keyed on tenant_id. The unique
// constraint is the serialization point that keeps the one-subscription-per-
// tenant invariant under concurrent webhook deliveries; a blind second insert
// folds into an update instead of creating a duplicate row. The version
// counter is bumped on every write.
func (s *SubscriptionService) UpsertByTenant(ctx context.Context, sub *model.Subscription) error {
	now := time.Now().UTC()
	sub.UpdatedAt = now
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, 1, $21, $22)
		 ON CONFLICT (tenant_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			plan_name = EXCLUDED.plan_name,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			trial_ends_at = EXCLUDED.trial_ends_at,
			next_billing_date = EXCLUDED.next_billing_date,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			cancelled_at = EXCLUDED.cancelled_at,
			paystack_authorization_code = EXCLUDED.paystack_authorization_code,
			paystack_customer_code = EXCLUDED.paystack_customer_code,
			paystack_subscription_code = EXCLUDED.paystack_subscription_code,
			card_brand = EXCLUDED.card_brand,
			card_last4 = EXCLUDED.card_last4,
			card_exp_month = EXCLUDED.card_exp_month,
			card_exp_year = EXCLUDED.card_exp_year,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			version = subscriptions.version + 1,
			updated_at = EXCLUDED.updated_at`,
		sub.ID, sub.TenantID, sub.PlanID, sub.PlanName, sub.Status,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialEndsAt, sub.NextBillingDate,
		sub.CancelAtPeriodEnd, sub.CancelledAt,
		sub.PaystackAuthorizationCode, sub.PaystackCustomerCode, sub.PaystackSubscriptionCode,
		sub.CardBrand, sub.CardLast4, sub.CardExpMonth, sub.CardExpYear,
		sub.StripeCustomerID, sub.StripeSubscriptionID, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription for tenant %s: %w", sub.TenantID, err)
	}
	return nil
}

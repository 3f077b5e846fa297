package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/goviral/goviral/internal/model"
	"github.com/goviral/goviral/internal/payment"
	"github.com/goviral/goviral/internal/platform"
)

// billingPeriodDays is the length of a rolled billing period.
const billingPeriodDays = 30

// SubscriptionRef locates a subscription by the identifier a provider event
// carries: Stripe events name their subscription id, Paystack subscription
// events name the card authorization the mandate was created from.
type SubscriptionRef struct {
	StripeSubscriptionID      string
	PaystackAuthorizationCode string
}

// ChargeSucceeded is Paystack's charge.success mapped to canonical form. The
// same transition is applied by the synchronous verify endpoint, so a webhook
// that replays an already-verified reference lands on the terminal-payment
// guard and no-ops.
type ChargeSucceeded struct {
	Reference     string
	CustomerCode  string
	Authorization payment.CardAuthorization
}

// SubscriptionActivated attaches a provider's recurring subscription
// reference to an existing subscription. Stripe events name their customer
// id, Paystack events name the authorization the mandate was created from.
type SubscriptionActivated struct {
	CustomerID     string
	SubscriptionID string

	PaystackAuthorizationCode string
	PaystackSubscriptionCode  string
}

// CheckoutCompleted is a finished hosted checkout. Metadata must carry the
// tenant id; a recurring subscription id is present for subscription-mode
// sessions.
type CheckoutCompleted struct {
	Reference      string
	TenantID       string
	PlanName       string
	TrialDays      int
	CustomerID     string
	SubscriptionID string
}

// ReconcilerService owns every canonical subscription transition. Both
// webhook adapters and the synchronous verify endpoint funnel through it, so
// there is exactly one implementation of "activate a subscription".
//
// Every transition is safe to apply more than once: payment updates are
// guarded by the terminal-status check, subscription updates match by
// provider identifier or tenant upsert, and a missing subscription on
// cancel/fail transitions is a silent no-op (the row may have been removed
// administratively).
type ReconcilerService struct {
	subs          subscriptionStore
	payments      paymentStore
	plans         planCatalog
	notifications notifier
	logger        zerolog.Logger
}

func NewReconcilerService(subs subscriptionStore, payments paymentStore, plans planCatalog, notifications notifier, logger zerolog.Logger) *ReconcilerService {
	return &ReconcilerService{
		subs:          subs,
		payments:      payments,
		plans:         plans,
		notifications: notifications,
		logger:        logger,
	}
}

// ApplyChargeSucceeded settles the payment matched by reference and, on the
// first application only, activates the subscription it belongs to. Trial
// payments activate into trial status with the period pinned to the trial
// end; everything else activates into a fresh 30-day active period.
func (r *ReconcilerService) ApplyChargeSucceeded(ctx context.Context, t ChargeSucceeded) error {
	p, err := r.payments.GetByReference(ctx, t.Reference)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.logger.Debug().Str("reference", t.Reference).Msg("charge for unknown payment reference, ignoring")
			return nil
		}
		return err
	}

	settled, err := r.payments.MarkStatus(ctx, p.Reference, model.PaymentPaid)
	if err != nil {
		return err
	}

	sub, err := r.subscriptionForTenant(ctx, p.TenantID)
	if err != nil {
		return err
	}

	// A replay is a no-op only once the subscription reflects the payment.
	// The payment can be terminal with the activation still missing when a
	// prior attempt failed between the two writes; the retry must then
	// finish the transition rather than skip it.
	if !settled && paymentReflected(sub, p) {
		r.logger.Debug().Str("reference", t.Reference).Msg("charge already applied, skipping replay")
		return nil
	}

	now := time.Now().UTC()
	sub.PlanID = p.PlanID
	sub.PlanName = p.PlanName
	if t.CustomerCode != "" {
		code := t.CustomerCode
		sub.PaystackCustomerCode = &code
	}
	if t.Authorization.AuthorizationCode != "" {
		code := t.Authorization.AuthorizationCode
		sub.PaystackAuthorizationCode = &code
		setCardMetadata(sub, t.Authorization)
	}
	sub.CancelAtPeriodEnd = false
	sub.CancelledAt = nil

	if p.Intent == model.IntentTrial && p.TrialDays > 0 {
		trialEnd := now.AddDate(0, 0, p.TrialDays)
		sub.Status = model.SubscriptionTrial
		sub.TrialEndsAt = &trialEnd
		sub.CurrentPeriodStart = now
		sub.CurrentPeriodEnd = trialEnd
		sub.NextBillingDate = &trialEnd
	} else {
		end := now.AddDate(0, 0, billingPeriodDays)
		sub.Status = model.SubscriptionActive
		sub.CurrentPeriodStart = now
		sub.CurrentPeriodEnd = end
		sub.NextBillingDate = &end
	}

	if err := r.subs.UpsertByTenant(ctx, sub); err != nil {
		return err
	}
	r.notify(ctx, sub.TenantID, fmt.Sprintf("Your %s subscription is now active.", sub.PlanName))
	return nil
}

// ApplySubscriptionActivated handles a provider reporting the recurring
// relationship as live. Stripe activations match by customer id, Paystack
// activations by the mandate's authorization code; no match is a no-op.
func (r *ReconcilerService) ApplySubscriptionActivated(ctx context.Context, t SubscriptionActivated) error {
	var sub *model.Subscription
	var err error
	if t.PaystackAuthorizationCode != "" {
		sub, err = r.subs.GetByPaystackAuthorization(ctx, t.PaystackAuthorizationCode)
	} else {
		sub, err = r.subs.GetByStripeCustomerID(ctx, t.CustomerID)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.logger.Debug().Str("customer_id", t.CustomerID).Msg("activation for unknown subscription, ignoring")
			return nil
		}
		return err
	}

	sub.Status = model.SubscriptionActive
	if t.SubscriptionID != "" {
		id := t.SubscriptionID
		sub.StripeSubscriptionID = &id
	}
	if t.PaystackSubscriptionCode != "" {
		code := t.PaystackSubscriptionCode
		sub.PaystackSubscriptionCode = &code
	}
	return r.subs.UpsertByTenant(ctx, sub)
}

// ApplySubscriptionCancelled marks the subscription cancelled at period end.
func (r *ReconcilerService) ApplySubscriptionCancelled(ctx context.Context, ref SubscriptionRef) error {
	sub, err := r.findByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	sub.Status = model.SubscriptionCancelled
	sub.CancelAtPeriodEnd = true
	if sub.CancelledAt == nil {
		sub.CancelledAt = &now
	}
	if err := r.subs.UpsertByTenant(ctx, sub); err != nil {
		return err
	}
	r.notify(ctx, sub.TenantID, "Your subscription has been cancelled and will not renew.")
	return nil
}

// ApplySubscriptionWillNotRenew marks the subscription non-renewing.
func (r *ReconcilerService) ApplySubscriptionWillNotRenew(ctx context.Context, ref SubscriptionRef) error {
	sub, err := r.findByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	sub.Status = model.SubscriptionInactive
	sub.CancelAtPeriodEnd = true
	if err := r.subs.UpsertByTenant(ctx, sub); err != nil {
		return err
	}
	r.notify(ctx, sub.TenantID, "Your subscription will not renew at the end of the current period.")
	return nil
}

// ApplyInvoicePaid rolls the period forward on a successful renewal invoice.
// Charge and invoice events for the same cycle may arrive in either order;
// both set an active status with a fresh period, so they converge.
func (r *ReconcilerService) ApplyInvoicePaid(ctx context.Context, ref SubscriptionRef) error {
	sub, err := r.findByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	end := now.AddDate(0, 0, billingPeriodDays)
	sub.Status = model.SubscriptionActive
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = end
	sub.NextBillingDate = &end
	return r.subs.UpsertByTenant(ctx, sub)
}

// ApplyInvoicePaymentFailed moves the subscription to past_due.
func (r *ReconcilerService) ApplyInvoicePaymentFailed(ctx context.Context, ref SubscriptionRef) error {
	sub, err := r.findByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	sub.Status = model.SubscriptionPastDue
	if err := r.subs.UpsertByTenant(ctx, sub); err != nil {
		return err
	}
	r.notify(ctx, sub.TenantID, "We could not collect your subscription payment. Please update your payment method.")
	return nil
}

// ApplyCheckoutCompleted settles the linked payment and upserts the
// subscription for the tenant named in the session metadata, creating the
// plan row lazily when the store has never seen it.
func (r *ReconcilerService) ApplyCheckoutCompleted(ctx context.Context, t CheckoutCompleted) error {
	if t.TenantID == "" {
		r.logger.Warn().Str("reference", t.Reference).Msg("checkout completed without tenant metadata, ignoring")
		return nil
	}

	settled := true
	if t.Reference != "" {
		p, err := r.payments.GetByReference(ctx, t.Reference)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if p != nil {
			settled, err = r.payments.MarkStatus(ctx, p.Reference, model.PaymentSuccess)
			if err != nil {
				return err
			}
			if t.PlanName == "" {
				t.PlanName = p.PlanName
			}
			if t.TrialDays == 0 {
				t.TrialDays = p.TrialDays
			}
		}
	}

	plan, err := r.plans.Resolve(ctx, t.PlanName)
	if err != nil {
		return err
	}

	sub, err := r.subscriptionForTenant(ctx, t.TenantID)
	if err != nil {
		return err
	}

	// Same replay rule as ApplyChargeSucceeded: a settled payment alone does
	// not make the redelivery a no-op, the subscription write has to have
	// landed too.
	if !settled && sub.PlanID == plan.ID && sub.IsActive() {
		r.logger.Debug().Str("reference", t.Reference).Msg("checkout already applied, skipping replay")
		return nil
	}

	now := time.Now().UTC()
	end := now.AddDate(0, 0, billingPeriodDays)
	sub.PlanID = plan.ID
	sub.PlanName = plan.Name
	sub.Status = model.SubscriptionActive
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = end
	sub.NextBillingDate = &end
	sub.CancelAtPeriodEnd = false
	sub.CancelledAt = nil
	if t.TrialDays > 0 {
		trialEnd := now.AddDate(0, 0, t.TrialDays)
		sub.TrialEndsAt = &trialEnd
	}
	if t.CustomerID != "" {
		id := t.CustomerID
		sub.StripeCustomerID = &id
	}
	if t.SubscriptionID != "" {
		id := t.SubscriptionID
		sub.StripeSubscriptionID = &id
	}

	if err := r.subs.UpsertByTenant(ctx, sub); err != nil {
		return err
	}
	r.notify(ctx, sub.TenantID, fmt.Sprintf("Your %s subscription is now active.", sub.PlanName))
	return nil
}

// subscriptionForTenant loads the tenant's subscription or starts a fresh
// record for it. Writes go through UpsertByTenant either way, so two
// concurrent activations cannot produce a second row.
func (r *ReconcilerService) subscriptionForTenant(ctx context.Context, tenantID string) (*model.Subscription, error) {
	sub, err := r.subs.GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &model.Subscription{
				ID:       platform.NewID(),
				TenantID: tenantID,
			}, nil
		}
		return nil, err
	}
	return sub, nil
}

func (r *ReconcilerService) findByRef(ctx context.Context, ref SubscriptionRef) (*model.Subscription, error) {
	switch {
	case ref.StripeSubscriptionID != "":
		return r.subs.GetByStripeSubscriptionID(ctx, ref.StripeSubscriptionID)
	case ref.PaystackAuthorizationCode != "":
		return r.subs.GetByPaystackAuthorization(ctx, ref.PaystackAuthorizationCode)
	}
	return nil, fmt.Errorf("subscription ref is empty: %w", ErrNotFound)
}

// notify writes an informational side-effect row. Notification failures are
// logged, not propagated: a missed message must not make the provider replay
// an otherwise-applied transition.
func (r *ReconcilerService) notify(ctx context.Context, tenantID, message string) {
	if err := r.notifications.Create(ctx, tenantID, message); err != nil {
		r.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("failed to write notification")
	}
}

// paymentReflected reports whether the subscription already carries the plan
// this payment bought, in a status its settlement would have produced.
func paymentReflected(sub *model.Subscription, p *model.Payment) bool {
	return sub.PlanID == p.PlanID && (sub.IsTrialing() || sub.IsActive())
}

func setCardMetadata(sub *model.Subscription, auth payment.CardAuthorization) {
	brand, last4, expMonth, expYear := auth.Brand, auth.Last4, auth.ExpMonth, auth.ExpYear
	sub.CardBrand = &brand
	sub.CardLast4 = &last4
	sub.CardExpMonth = &expMonth
	sub.CardExpYear = &expYear
}

package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/goviral/goviral/internal/model"
	"github.com/goviral/goviral/internal/payment"
	"github.com/goviral/goviral/internal/platform"
)

// trialVerificationAmount is the nominal minor-unit charge used to verify a
// card when starting a Paystack trial. The real plan price travels in the
// transaction metadata for the reconciler's benefit.
const trialVerificationAmount = 10000

// TrialCheckout is the hosted flow a trialing tenant is redirected to.
type TrialCheckout struct {
	AuthorizationURL string                `json:"authorization_url"`
	Reference        string                `json:"reference"`
	Provider         model.PaymentProvider `json:"provider"`
	Plan             string                `json:"plan"`
}

// UpgradeQuote is the non-mutating cost breakdown for a plan change.
type UpgradeQuote struct {
	CurrentPlan         string `json:"current_plan"`
	NewPlan             string `json:"new_plan"`
	DaysRemaining       int    `json:"days_remaining"`
	PeriodDays          int    `json:"period_days"`
	ProratedAmountCents int    `json:"prorated_amount_cents"`
	Currency            string `json:"currency"`
}

// UpgradeResult is either an immediately committed upgrade (saved-card
// charge) or a redirect to a hosted flow that commits later via webhook.
type UpgradeResult struct {
	Upgraded         bool                `json:"upgraded"`
	AuthorizationURL string              `json:"authorization_url,omitempty"`
	Subscription     *model.Subscription `json:"subscription,omitempty"`
	Payment          *model.Payment      `json:"payment"`
}

// VerificationResult is the outcome of the synchronous verify flow.
type VerificationResult struct {
	Success      bool                `json:"success"`
	Subscription *model.Subscription `json:"subscription,omitempty"`
}

// BillingService orchestrates trials and upgrades. It writes pending payment
// rows and hands the user to a provider-hosted flow; actual activation is
// owned by the reconciler, which both webhooks and VerifyPayment call into.
type BillingService struct {
	subs          subscriptionStore
	payments      paymentStore
	plans         planCatalog
	notifications notifier
	reconciler    *ReconcilerService
	paystack      CardProcessor
	stripe        CheckoutProcessor
	logger        zerolog.Logger
}

func NewBillingService(
	subs subscriptionStore,
	payments paymentStore,
	plans planCatalog,
	notifications notifier,
	reconciler *ReconcilerService,
	paystack CardProcessor,
	stripe CheckoutProcessor,
	logger zerolog.Logger,
) *BillingService {
	return &BillingService{
		subs:          subs,
		payments:      payments,
		plans:         plans,
		notifications: notifications,
		reconciler:    reconciler,
		paystack:      paystack,
		stripe:        stripe,
		logger:        logger,
	}
}

func (s *BillingService) availability() ProviderAvailability {
	return ProviderAvailability{
		Paystack: s.paystack.Configured(),
		Stripe:   s.stripe.Configured(),
	}
}

// StartTrial begins a trial for a tenant with no subscription yet: it
// records a pending payment and returns the provider-hosted page. No
// subscription row is written here; activation belongs to the callback path.
func (s *BillingService) StartTrial(ctx context.Context, tenant *model.Tenant, planName, countryCode string) (*TrialCheckout, error) {
	if _, err := s.subs.GetByTenant(ctx, tenant.ID); err == nil {
		return nil, fmt.Errorf("start trial for tenant %s: %w", tenant.ID, ErrAlreadySubscribed)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	plan, err := s.plans.Resolve(ctx, planName)
	if err != nil {
		return nil, err
	}

	if countryCode == "" {
		countryCode = tenant.CountryCode
	}
	provider, err := SelectProvider(countryCode, nil, s.availability())
	if err != nil {
		return nil, err
	}

	reference := platform.NewPaymentReference(tenant.ID)
	meta := payment.Metadata{
		TenantID:       tenant.ID,
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		Intent:         string(model.IntentTrial),
		TrialDays:      plan.TrialDays,
		PlanPriceCents: plan.PriceCents,
	}

	var hostedURL string
	var row *model.Payment
	switch provider {
	case model.ProviderPaystack:
		// A nominal card-verification charge; the trial itself is free until
		// the trial period ends.
		row = s.pendingPayment(tenant.ID, plan, reference, provider, model.IntentTrial, trialVerificationAmount, "NGN")
		if err := s.payments.Create(ctx, row); err != nil {
			return nil, err
		}
		tx, err := s.paystack.InitializeTransaction(ctx, payment.InitializeParams{
			Reference:   reference,
			Email:       tenant.Email,
			AmountCents: trialVerificationAmount,
			Currency:    "NGN",
			Metadata:    meta,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("reference", reference).Msg("paystack initialize failed")
			return nil, fmt.Errorf("initialize trial transaction: %w", ErrPaymentUnavailable)
		}
		hostedURL = tx.AuthorizationURL
	case model.ProviderStripe:
		amount, currency := plan.PriceIn(currencyForCountry(countryCode))
		row = s.pendingPayment(tenant.ID, plan, reference, provider, model.IntentTrial, amount, currency)
		if err := s.payments.Create(ctx, row); err != nil {
			return nil, err
		}
		sess, err := s.stripe.CreateCheckoutSession(ctx, payment.CheckoutParams{
			Reference:   reference,
			Email:       tenant.Email,
			PlanName:    plan.Name,
			AmountCents: amount,
			Currency:    currency,
			TrialDays:   plan.TrialDays,
			Metadata:    meta,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("reference", reference).Msg("stripe checkout session failed")
			return nil, fmt.Errorf("create trial checkout: %w", ErrPaymentUnavailable)
		}
		hostedURL = sess.URL
	}

	return &TrialCheckout{
		AuthorizationURL: hostedURL,
		Reference:        reference,
		Provider:         provider,
		Plan:             plan.Name,
	}, nil
}

// PreviewUpgrade prices a plan change without mutating anything.
func (s *BillingService) PreviewUpgrade(ctx context.Context, tenantID, newPlanName string) (*UpgradeQuote, error) {
	_, current, target, daysRemaining, err := s.upgradeContext(ctx, tenantID, newPlanName)
	if err != nil {
		return nil, err
	}
	return &UpgradeQuote{
		CurrentPlan:         current.Name,
		NewPlan:             target.Name,
		DaysRemaining:       daysRemaining,
		PeriodDays:          billingPeriodDays,
		ProratedAmountCents: ProratedAmount(current, target, daysRemaining, billingPeriodDays),
		Currency:            target.Currency,
	}, nil
}

// Upgrade moves an existing subscription to a more expensive plan. With a
// saved Paystack authorization the prorated amount is charged off-session and
// the plan change commits synchronously; otherwise the tenant is redirected
// to a hosted flow and the commit happens on the webhook/verify path.
func (s *BillingService) Upgrade(ctx context.Context, tenant *model.Tenant, newPlanName, countryCode string) (*UpgradeResult, error) {
	sub, current, target, daysRemaining, err := s.upgradeContext(ctx, tenant.ID, newPlanName)
	if err != nil {
		return nil, err
	}

	amount := ProratedAmount(current, target, daysRemaining, billingPeriodDays)

	if countryCode == "" {
		countryCode = tenant.CountryCode
	}
	provider, err := SelectProvider(countryCode, sub, s.availability())
	if err != nil {
		return nil, err
	}

	reference := platform.NewPaymentReference(tenant.ID)
	meta := payment.Metadata{
		TenantID:       tenant.ID,
		PlanID:         target.ID,
		PlanName:       target.Name,
		Intent:         string(model.IntentUpgrade),
		PlanPriceCents: target.PriceCents,
	}

	if provider == model.ProviderPaystack && sub.HasPaystackMandate() {
		return s.upgradeWithSavedCard(ctx, tenant, sub, target, reference, amount, meta)
	}

	// Deferred path: pending payment plus a hosted flow; the reconciler or
	// the verify endpoint commits the plan change later.
	row := s.pendingPayment(tenant.ID, target, reference, provider, model.IntentUpgrade, amount, target.Currency)
	if err := s.payments.Create(ctx, row); err != nil {
		return nil, err
	}

	var hostedURL string
	if provider == model.ProviderPaystack {
		tx, err := s.paystack.InitializeTransaction(ctx, payment.InitializeParams{
			Reference:   reference,
			Email:       tenant.Email,
			AmountCents: amount,
			Currency:    target.Currency,
			Metadata:    meta,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("reference", reference).Msg("paystack initialize failed")
			return nil, fmt.Errorf("initialize upgrade transaction: %w", ErrPaymentUnavailable)
		}
		hostedURL = tx.AuthorizationURL
	} else {
		sess, err := s.stripe.CreateCheckoutSession(ctx, payment.CheckoutParams{
			Reference:   reference,
			Email:       tenant.Email,
			PlanName:    target.Name,
			AmountCents: amount,
			Currency:    target.Currency,
			Metadata:    meta,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("reference", reference).Msg("stripe checkout session failed")
			return nil, fmt.Errorf("create upgrade checkout: %w", ErrPaymentUnavailable)
		}
		hostedURL = sess.URL
	}

	return &UpgradeResult{
		Upgraded:         false,
		AuthorizationURL: hostedURL,
		Payment:          row,
	}, nil
}

// upgradeWithSavedCard charges the prorated amount off-session and commits
// the plan change synchronously. The committed subscription shape matches
// what the webhook path would produce for the same upgrade (plan id, plan
// name, active status) so the two paths cannot drift.
func (s *BillingService) upgradeWithSavedCard(ctx context.Context, tenant *model.Tenant, sub *model.Subscription, target *model.Plan, reference string, amount int, meta payment.Metadata) (*UpgradeResult, error) {
	res, err := s.paystack.ChargeAuthorization(ctx, payment.ChargeParams{
		AuthorizationCode: *sub.PaystackAuthorizationCode,
		Email:             tenant.Email,
		Reference:         reference,
		AmountCents:       amount,
		Currency:          target.Currency,
		Metadata:          meta,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("reference", reference).Msg("charge authorization failed")
		return nil, fmt.Errorf("upgrade charge: %w", ErrPaymentFailed)
	}
	if !res.Paid {
		return nil, fmt.Errorf("upgrade charge declined: %w", ErrPaymentFailed)
	}

	sub.PlanID = target.ID
	sub.PlanName = target.Name
	sub.Status = model.SubscriptionActive
	if err := s.subs.UpsertByTenant(ctx, sub); err != nil {
		return nil, err
	}

	row := &model.Payment{
		ID:          platform.NewID(),
		TenantID:    tenant.ID,
		PlanID:      target.ID,
		PlanName:    target.Name,
		Reference:   reference,
		Provider:    model.ProviderPaystack,
		Intent:      model.IntentUpgrade,
		AmountCents: amount,
		Currency:    target.Currency,
		Status:      model.PaymentPaid,
	}
	if err := s.payments.Create(ctx, row); err != nil {
		return nil, err
	}

	if err := s.notifications.Create(ctx, tenant.ID, fmt.Sprintf("Your plan has been upgraded to %s.", target.Name)); err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenant.ID).Msg("failed to write upgrade notification")
	}

	return &UpgradeResult{
		Upgraded:     true,
		Subscription: sub,
		Payment:      row,
	}, nil
}

// VerifyPayment resolves a Paystack reference synchronously, covering the
// redirect flow where the user returns before any webhook has landed. It
// applies the same ChargeSucceeded transition the webhook adapter does, so a
// later delivery of the matching event is a no-op.
func (s *BillingService) VerifyPayment(ctx context.Context, reference string) (*VerificationResult, error) {
	p, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	res, err := s.paystack.VerifyTransaction(ctx, reference)
	if err != nil {
		s.logger.Error().Err(err).Str("reference", reference).Msg("verify transaction failed")
		return nil, fmt.Errorf("verify payment: %w", ErrPaymentFailed)
	}
	if !res.Paid {
		return &VerificationResult{Success: false}, nil
	}

	if err := s.reconciler.ApplyChargeSucceeded(ctx, ChargeSucceeded{
		Reference:     reference,
		CustomerCode:  res.CustomerCode,
		Authorization: res.Authorization,
	}); err != nil {
		return nil, err
	}

	sub, err := s.subs.GetByTenant(ctx, p.TenantID)
	if err != nil {
		return nil, err
	}
	return &VerificationResult{Success: true, Subscription: sub}, nil
}

// upgradeContext loads and validates everything an upgrade needs: the
// subscription, both plans, and the ceiling-rounded days left in the period.
func (s *BillingService) upgradeContext(ctx context.Context, tenantID, newPlanName string) (*model.Subscription, *model.Plan, *model.Plan, int, error) {
	sub, err := s.subs.GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, nil, 0, fmt.Errorf("upgrade for tenant %s: %w", tenantID, ErrNoActiveSubscription)
		}
		return nil, nil, nil, 0, err
	}

	target, err := s.plans.Resolve(ctx, newPlanName)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	current, err := s.plans.Resolve(ctx, sub.PlanName)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	if target.PriceCents <= current.PriceCents {
		return nil, nil, nil, 0, fmt.Errorf("%s to %s: %w", current.Name, target.Name, ErrDowngradeNotAllowed)
	}

	daysRemaining := int(math.Ceil(time.Until(sub.CurrentPeriodEnd).Hours() / 24))
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	if daysRemaining > billingPeriodDays {
		daysRemaining = billingPeriodDays
	}
	return sub, current, target, daysRemaining, nil
}

func (s *BillingService) pendingPayment(tenantID string, plan *model.Plan, reference string, provider model.PaymentProvider, intent model.PaymentIntent, amount int, currency string) *model.Payment {
	trialDays := 0
	if intent == model.IntentTrial {
		trialDays = plan.TrialDays
	}
	return &model.Payment{
		ID:          platform.NewID(),
		TenantID:    tenantID,
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		Reference:   reference,
		Provider:    provider,
		Intent:      intent,
		TrialDays:   trialDays,
		AmountCents: amount,
		Currency:    currency,
		Status:      model.PaymentPending,
	}
}

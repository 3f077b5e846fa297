package core

import (
	"context"
	"fmt"
	"time"

	"github.com/goviral/goviral/internal/model"
	"github.com/goviral/goviral/internal/payment"
	"github.com/goviral/goviral/internal/platform"
)

// In-memory stores for exercising the billing and reconciliation logic
// without a database. They reproduce the store semantics the SQL layer
// relies on: upsert keyed by tenant, payment settlement guarded by
// terminal status, lookups by provider identifier.

type fakeSubscriptionStore struct {
	byTenant    map[string]*model.Subscription
	upserts     int
	failUpserts int
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{byTenant: map[string]*model.Subscription{}}
}

func (f *fakeSubscriptionStore) GetByTenant(_ context.Context, tenantID string) (*model.Subscription, error) {
	if sub, ok := f.byTenant[tenantID]; ok {
		clone := *sub
		return &clone, nil
	}
	return nil, ErrNotFound
}

func (f *fakeSubscriptionStore) GetByStripeSubscriptionID(_ context.Context, id string) (*model.Subscription, error) {
	return f.findBy(func(s *model.Subscription) bool {
		return s.StripeSubscriptionID != nil && *s.StripeSubscriptionID == id
	})
}

func (f *fakeSubscriptionStore) GetByStripeCustomerID(_ context.Context, id string) (*model.Subscription, error) {
	return f.findBy(func(s *model.Subscription) bool {
		return s.StripeCustomerID != nil && *s.StripeCustomerID == id
	})
}

func (f *fakeSubscriptionStore) GetByPaystackAuthorization(_ context.Context, code string) (*model.Subscription, error) {
	return f.findBy(func(s *model.Subscription) bool {
		return s.PaystackAuthorizationCode != nil && *s.PaystackAuthorizationCode == code
	})
}

func (f *fakeSubscriptionStore) findBy(match func(*model.Subscription) bool) (*model.Subscription, error) {
	for _, sub := range f.byTenant {
		if match(sub) {
			clone := *sub
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeSubscriptionStore) UpsertByTenant(_ context.Context, sub *model.Subscription) error {
	if f.failUpserts > 0 {
		f.failUpserts--
		return fmt.Errorf("upsert subscription: store unavailable")
	}
	f.upserts++
	clone := *sub
	if existing, ok := f.byTenant[sub.TenantID]; ok {
		clone.ID = existing.ID
		clone.Version = existing.Version + 1
	} else {
		clone.Version = 1
	}
	f.byTenant[sub.TenantID] = &clone
	return nil
}

func (f *fakeSubscriptionStore) count() int { return len(f.byTenant) }

type fakePaymentStore struct {
	byReference map[string]*model.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{byReference: map[string]*model.Payment{}}
}

func (f *fakePaymentStore) Create(_ context.Context, p *model.Payment) error {
	if _, ok := f.byReference[p.Reference]; ok {
		return fmt.Errorf("duplicate reference %s", p.Reference)
	}
	clone := *p
	f.byReference[p.Reference] = &clone
	return nil
}

func (f *fakePaymentStore) GetByReference(_ context.Context, reference string) (*model.Payment, error) {
	if p, ok := f.byReference[reference]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, ErrNotFound
}

func (f *fakePaymentStore) MarkStatus(_ context.Context, reference string, status model.PaymentStatus) (bool, error) {
	p, ok := f.byReference[reference]
	if !ok || p.Status.IsTerminal() {
		return false, nil
	}
	p.Status = status
	return true, nil
}

type fakePlanCatalog struct{}

func (fakePlanCatalog) Resolve(_ context.Context, name string) (*model.Plan, error) {
	plan := defaultPlanByName(name)
	if plan == nil {
		return nil, fmt.Errorf("resolve plan %q: %w", name, ErrInvalidPlan)
	}
	plan.ID = "plan-" + plan.Name
	return plan, nil
}

type fakeNotifier struct {
	messages map[string][]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{messages: map[string][]string{}}
}

func (f *fakeNotifier) Create(_ context.Context, tenantID, message string) error {
	f.messages[tenantID] = append(f.messages[tenantID], message)
	return nil
}

// ---------- Provider fakes ----------

type fakeCardProcessor struct {
	configured  bool
	initErr     error
	chargePaid  bool
	chargeErr   error
	verifyPaid  bool
	verifyErr   error
	charges     []payment.ChargeParams
	initialized []payment.InitializeParams
}

func (f *fakeCardProcessor) Configured() bool { return f.configured }

func (f *fakeCardProcessor) InitializeTransaction(_ context.Context, p payment.InitializeParams) (*payment.HostedTransaction, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	f.initialized = append(f.initialized, p)
	return &payment.HostedTransaction{
		AuthorizationURL: "https://checkout.paystack.test/" + p.Reference,
		Reference:        p.Reference,
	}, nil
}

func (f *fakeCardProcessor) ChargeAuthorization(_ context.Context, p payment.ChargeParams) (*payment.ChargeResult, error) {
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	f.charges = append(f.charges, p)
	return &payment.ChargeResult{
		Reference:   p.Reference,
		Paid:        f.chargePaid,
		AmountCents: p.AmountCents,
	}, nil
}

func (f *fakeCardProcessor) VerifyTransaction(_ context.Context, reference string) (*payment.VerifyResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &payment.VerifyResult{
		Reference:    reference,
		Paid:         f.verifyPaid,
		CustomerCode: "CUS_test",
		Authorization: payment.CardAuthorization{
			AuthorizationCode: "AUTH_test",
			Brand:             "visa",
			Last4:             "4081",
			ExpMonth:          "12",
			ExpYear:           "2030",
		},
	}, nil
}

type fakeCheckoutProcessor struct {
	configured bool
	createErr  error
	sessions   []payment.CheckoutParams
}

func (f *fakeCheckoutProcessor) Configured() bool { return f.configured }

func (f *fakeCheckoutProcessor) CreateCheckoutSession(_ context.Context, p payment.CheckoutParams) (*payment.CheckoutSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.sessions = append(f.sessions, p)
	return &payment.CheckoutSession{
		SessionID: "cs_" + p.Reference,
		URL:       "https://checkout.stripe.test/" + p.Reference,
	}, nil
}

// ---------- Fixtures ----------

func testTenant() *model.Tenant {
	return &model.Tenant{
		ID:          platform.NewID(),
		Email:       "owner@example.com",
		Name:        "Acme Social",
		CountryCode: "US",
	}
}

func activeSubscription(tenantID, planName string) *model.Subscription {
	now := time.Now().UTC()
	end := now.AddDate(0, 0, 15)
	return &model.Subscription{
		ID:                 platform.NewID(),
		TenantID:           tenantID,
		PlanID:             "plan-" + planName,
		PlanName:           planName,
		Status:             model.SubscriptionActive,
		CurrentPeriodStart: now.AddDate(0, 0, -15),
		CurrentPeriodEnd:   end,
		NextBillingDate:    &end,
		Version:            1,
	}
}

func strPtr(s string) *string { return &s }

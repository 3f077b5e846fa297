package core

import (
	"github.com/rs/zerolog"
)

type Services struct {
	Tenant       *TenantService
	Plan         *PlanService
	Subscription *SubscriptionService
	Payment      *PaymentService
	Notification *NotificationService
	Post         *PostService
	Dashboard    *DashboardService
	Reconciler   *ReconcilerService
	Billing      *BillingService
}

func NewServices(db DB, paystack CardProcessor, stripe CheckoutProcessor, logger zerolog.Logger) *Services {
	tenants := NewTenantService(db)
	plans := NewPlanService(db)
	subs := NewSubscriptionService(db)
	payments := NewPaymentService(db)
	notifications := NewNotificationService(db)

	reconciler := NewReconcilerService(subs, payments, plans, notifications, logger)
	billing := NewBillingService(subs, payments, plans, notifications, reconciler, paystack, stripe, logger)

	return &Services{
		Tenant:       tenants,
		Plan:         plans,
		Subscription: subs,
		Payment:      payments,
		Notification: notifications,
		Post:         NewPostService(db, subs, plans),
		Dashboard:    NewDashboardService(db, subs),
		Reconciler:   reconciler,
		Billing:      billing,
	}
}

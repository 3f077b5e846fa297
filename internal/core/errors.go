package core

import "errors"

// Billing error taxonomy. Handlers map these to HTTP statuses; provider
// errors are wrapped into ErrPaymentFailed/ErrPaymentUnavailable so raw
// provider responses never reach clients.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidPlan          = errors.New("invalid plan")
	ErrAlreadySubscribed    = errors.New("tenant already has a subscription")
	ErrNoActiveSubscription = errors.New("tenant has no active subscription")
	ErrDowngradeNotAllowed  = errors.New("downgrades are not allowed")
	ErrPaymentUnavailable   = errors.New("no payment provider available")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrQuotaExceeded        = errors.New("plan quota exceeded")
)

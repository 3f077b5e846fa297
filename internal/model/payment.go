package model

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// IsTerminal reports whether the status is final. Terminal payments are never
// mutated again, which is what makes webhook replays safe.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentPaid || s == PaymentSuccess || s == PaymentFailed
}

// PaymentIntent tags what a payment attempt is for, so the reconciler can
// branch on an explicit variant instead of probing provider metadata.
type PaymentIntent string

const (
	IntentTrial    PaymentIntent = "trial"
	IntentUpgrade  PaymentIntent = "upgrade"
	IntentCheckout PaymentIntent = "checkout"
)

// Payment is an append-only record of a monetary attempt, keyed by the
// provider-facing reference which is unique per attempt.
type Payment struct {
	ID          string          `json:"id" db:"id"`
	TenantID    string          `json:"tenant_id" db:"tenant_id"`
	PlanID      string          `json:"plan_id" db:"plan_id"`
	PlanName    string          `json:"plan_name" db:"plan_name"`
	Reference   string          `json:"reference" db:"reference"`
	Provider    PaymentProvider `json:"provider" db:"provider"`
	Intent      PaymentIntent   `json:"intent" db:"intent"`
	TrialDays   int             `json:"trial_days" db:"trial_days"`
	AmountCents int             `json:"amount_cents" db:"amount_cents"`
	Currency    string          `json:"currency" db:"currency"`
	Status      PaymentStatus   `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Package payment defines the request/response types shared by the payment
// provider clients and the billing core.
package payment

// Metadata is carried on every provider call and echoed back on webhooks and
// verification responses. The intent tag is authoritative locally (it is also
// stored on the payment row); the provider copy exists for reconciliation of
// events that arrive without a matching local record.
type Metadata struct {
	TenantID       string `json:"tenant_id"`
	PlanID         string `json:"plan_id"`
	PlanName       string `json:"plan_name"`
	Intent         string `json:"intent"`
	TrialDays      int    `json:"trial_days,omitempty"`
	PlanPriceCents int    `json:"plan_price_cents,omitempty"`
}

// InitializeParams describes a hosted authorization transaction.
type InitializeParams struct {
	Reference   string
	Email       string
	AmountCents int
	Currency    string
	CallbackURL string
	Metadata    Metadata
}

// HostedTransaction is the provider-hosted page the user is redirected to.
type HostedTransaction struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// ChargeParams describes an off-session charge against a saved authorization.
type ChargeParams struct {
	AuthorizationCode string
	Email             string
	Reference         string
	AmountCents       int
	Currency          string
	Metadata          Metadata
}

// CardAuthorization is the reusable mandate returned with a successful charge.
type CardAuthorization struct {
	AuthorizationCode string `json:"authorization_code"`
	Brand             string `json:"brand"`
	Last4             string `json:"last4"`
	ExpMonth          string `json:"exp_month"`
	ExpYear           string `json:"exp_year"`
	Reusable          bool   `json:"reusable"`
}

type ChargeResult struct {
	Reference     string
	Paid          bool
	AmountCents   int
	CustomerCode  string
	Authorization CardAuthorization
}

type VerifyResult struct {
	Reference     string
	Paid          bool
	AmountCents   int
	CustomerCode  string
	Authorization CardAuthorization
	Metadata      Metadata
}

// CheckoutParams describes a hosted checkout session in subscription mode.
type CheckoutParams struct {
	Reference   string
	Email       string
	PlanName    string
	AmountCents int
	Currency    string
	TrialDays   int
	Metadata    Metadata
}

type CheckoutSession struct {
	SessionID string
	URL       string
}

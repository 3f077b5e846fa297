package request

// StartTrial is the body for POST /billing/trial.
type StartTrial struct {
	PlanName    string `json:"plan_name" validate:"required,planname"`
	CountryCode string `json:"country_code" validate:"omitempty,len=2"`
}

// Upgrade is the body for POST /billing/upgrade.
type Upgrade struct {
	NewPlanName string `json:"new_plan_name" validate:"required,planname"`
	CountryCode string `json:"country_code" validate:"omitempty,len=2"`
}

// VerifyPayment is the body for POST /billing/verify.
type VerifyPayment struct {
	Reference string `json:"reference" validate:"required"`
}

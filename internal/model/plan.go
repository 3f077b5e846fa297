package model

import "time"

type Plan struct {
	ID               string         `json:"id" db:"id"`
	Name             string         `json:"name" db:"name"`
	PriceCents       int            `json:"price_cents" db:"price_cents"`
	Currency         string         `json:"currency" db:"currency"`
	RegionalPrices   map[string]int `json:"regional_prices,omitempty" db:"regional_prices"`
	TrialDays        int            `json:"trial_days" db:"trial_days"`
	Features         []string       `json:"features" db:"features"`
	MaxPostsPerMonth int            `json:"max_posts_per_month" db:"max_posts_per_month"`
	MaxPlatforms     int            `json:"max_platforms" db:"max_platforms"`
	MaxMessages      int            `json:"max_messages" db:"max_messages"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// PriceIn returns the plan price in the given currency, falling back to the
// base price when no regional variant is configured.
func (p *Plan) PriceIn(currency string) (int, string) {
	if price, ok := p.RegionalPrices[currency]; ok {
		return price, currency
	}
	return p.PriceCents, p.Currency
}

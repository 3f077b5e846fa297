package core

import (
	"strings"

	"github.com/goviral/goviral/internal/model"
)

// Fallback plan catalog. Plans referenced by name but missing from the store
// are created lazily from this table, so a fresh database can sell plans
// before any administrative seeding has happened. Prices are USD cents with
// an NGN minor-unit (kobo) regional variant for the Paystack market.
var defaultPlans = []model.Plan{
	{
		Name:             "Free",
		PriceCents:       0,
		Currency:         "USD",
		TrialDays:        0,
		Features:         []string{"basic-composer"},
		MaxPostsPerMonth: 10,
		MaxPlatforms:     1,
		MaxMessages:      50,
	},
	{
		Name:             "Starter",
		PriceCents:       900, // $9
		Currency:         "USD",
		RegionalPrices:   map[string]int{"NGN": 450000},
		TrialDays:        7,
		Features:         []string{"basic-composer", "scheduling", "link-shortener"},
		MaxPostsPerMonth: 100,
		MaxPlatforms:     3,
		MaxMessages:      500,
	},
	{
		Name:             "Pro",
		PriceCents:       2900, // $29
		Currency:         "USD",
		RegionalPrices:   map[string]int{"NGN": 1450000},
		TrialDays:        7,
		Features:         []string{"basic-composer", "scheduling", "link-shortener", "analytics", "campaigns"},
		MaxPostsPerMonth: 1000,
		MaxPlatforms:     10,
		MaxMessages:      5000,
	},
	{
		Name:             "Business",
		PriceCents:       7900, // $79
		Currency:         "USD",
		RegionalPrices:   map[string]int{"NGN": 3950000},
		TrialDays:        14,
		Features:         []string{"basic-composer", "scheduling", "link-shortener", "analytics", "campaigns", "team-seats", "priority-support"},
		MaxPostsPerMonth: 0, // unlimited
		MaxPlatforms:     0, // unlimited
		MaxMessages:      0, // unlimited
	},
}

func defaultPlanByName(name string) *model.Plan {
	for i := range defaultPlans {
		if strings.EqualFold(defaultPlans[i].Name, name) {
			p := defaultPlans[i]
			return &p
		}
	}
	return nil
}

package core

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goviral/goviral/internal/model"
)

func TestProratedAmount(t *testing.T) {
	starter := &model.Plan{Name: "Starter", PriceCents: 900}
	pro := &model.Plan{Name: "Pro", PriceCents: 2900}

	// Halfway through a 30-day period: (2900-900) * 15/30 = 1000.
	assert.Equal(t, 1000, ProratedAmount(starter, pro, 15, 30))

	// Full period remaining charges the full difference.
	assert.Equal(t, 2000, ProratedAmount(starter, pro, 30, 30))

	// Period already over charges nothing.
	assert.Equal(t, 0, ProratedAmount(starter, pro, 0, 30))

	// Inverted plans never produce a negative amount.
	assert.Equal(t, 0, ProratedAmount(pro, starter, 15, 30))

	// Degenerate period length.
	assert.Equal(t, 0, ProratedAmount(starter, pro, 15, 0))

	// Integer truncation, not rounding: 2000 * 10/30 = 666.
	assert.Equal(t, 666, ProratedAmount(starter, pro, 10, 30))
}

func TestPlanResolve_StoreHit(t *testing.T) {
	db := new(mockDB)
	svc := NewPlanService(db)

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			*dest[0].(*string) = "plan-1"
			*dest[1].(*string) = "Pro"
			*dest[2].(*int) = 2900
			*dest[3].(*string) = "USD"
			return nil
		},
	})

	plan, err := svc.Resolve(context.Background(), "pro")
	require.NoError(t, err)
	assert.Equal(t, "Pro", plan.Name)
	assert.Equal(t, 2900, plan.PriceCents)
	db.AssertNumberOfCalls(t, "Exec", 0)
}

func TestPlanResolve_FallbackPersistsStaticPlan(t *testing.T) {
	db := new(mockDB)
	svc := NewPlanService(db)

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(dest ...any) error { return pgx.ErrNoRows },
	})
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	plan, err := svc.Resolve(context.Background(), "Starter")
	require.NoError(t, err)
	assert.Equal(t, "Starter", plan.Name)
	assert.Equal(t, 900, plan.PriceCents)
	assert.Equal(t, 7, plan.TrialDays)
	assert.NotEmpty(t, plan.ID)
	db.AssertNumberOfCalls(t, "Exec", 1)
}

func TestPlanResolve_UnknownPlan(t *testing.T) {
	db := new(mockDB)
	svc := NewPlanService(db)

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(dest ...any) error { return pgx.ErrNoRows },
	})

	_, err := svc.Resolve(context.Background(), "Platinum")
	assert.ErrorIs(t, err, ErrInvalidPlan)
	db.AssertNumberOfCalls(t, "Exec", 0)
}

func TestPlanPriceIn_RegionalVariant(t *testing.T) {
	plan := defaultPlanByName("Pro")
	require.NotNil(t, plan)

	amount, currency := plan.PriceIn("NGN")
	assert.Equal(t, 1450000, amount)
	assert.Equal(t, "NGN", currency)

	amount, currency = plan.PriceIn("EUR")
	assert.Equal(t, 2900, amount)
	assert.Equal(t, "USD", currency)
}

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/goviral/goviral/internal/model"
	"github.com/goviral/goviral/internal/platform"
)

const planColumns = `id, name, price_cents, currency, regional_prices, trial_days, features,
	 max_posts_per_month, max_platforms, max_messages, created_at, updated_at`

type PlanService struct {
	db DB
}

func NewPlanService(db DB) *PlanService {
	return &PlanService{db: db}
}

// Resolve looks a plan up by case-insensitive name. A store miss falls back
// to the static catalog and lazily persists the plan (create-on-read), so
// subsequent lookups are store-backed. A miss in both sources is ErrInvalidPlan.
func (s *PlanService) Resolve(ctx context.Context, name string) (*model.Plan, error) {
	plan, err := s.getByName(ctx, name)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	fallback := defaultPlanByName(name)
	if fallback == nil {
		return nil, fmt.Errorf("resolve plan %q: %w", name, ErrInvalidPlan)
	}

	now := time.Now().UTC()
	fallback.ID = platform.NewID()
	fallback.CreatedAt = now
	fallback.UpdatedAt = now
	if err := s.create(ctx, fallback); err != nil {
		return nil, err
	}
	return fallback, nil
}

func (s *PlanService) getByName(ctx context.Context, name string) (*model.Plan, error) {
	var p model.Plan
	err := s.db.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE lower(name) = lower($1)`, name,
	).Scan(&p.ID, &p.Name, &p.PriceCents, &p.Currency, &p.RegionalPrices, &p.TrialDays,
		&p.Features, &p.MaxPostsPerMonth, &p.MaxPlatforms, &p.MaxMessages, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("plan %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get plan %q: %w", name, err)
	}
	return &p, nil
}

func (s *PlanService) create(ctx context.Context, plan *model.Plan) error {
	// ON CONFLICT keeps concurrent lazy creation of the same plan harmless.
	_, err := s.db.Exec(ctx,
		`INSERT INTO plans (`+planColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (name) DO NOTHING`,
		plan.ID, plan.Name, plan.PriceCents, plan.Currency, plan.RegionalPrices, plan.TrialDays,
		plan.Features, plan.MaxPostsPerMonth, plan.MaxPlatforms, plan.MaxMessages, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create plan %q: %w", plan.Name, err)
	}
	return nil
}

// List returns every plan in the store, falling back to the static catalog
// when the store is empty so the pricing page always has content.
func (s *PlanService) List(ctx context.Context) ([]model.Plan, error) {
	rows, err := s.db.Query(ctx, `SELECT `+planColumns+` FROM plans ORDER BY price_cents`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		var p model.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Currency, &p.RegionalPrices, &p.TrialDays,
			&p.Features, &p.MaxPostsPerMonth, &p.MaxPlatforms, &p.MaxMessages, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}

	if len(plans) == 0 {
		plans = append(plans, defaultPlans...)
	}
	return plans, nil
}

// ProratedAmount computes the linear mid-cycle upgrade cost in cents:
// the monthly price difference scaled by the fraction of the period left.
// Deterministic and side-effect-free.
func ProratedAmount(current, target *model.Plan, daysRemaining, periodDays int) int {
	if periodDays <= 0 {
		return 0
	}
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	if daysRemaining > periodDays {
		daysRemaining = periodDays
	}
	diff := target.PriceCents - current.PriceCents
	if diff <= 0 {
		return 0
	}
	return diff * daysRemaining / periodDays
}

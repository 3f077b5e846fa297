package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/goviral/goviral/internal/model"
)

const paymentColumns = `id, tenant_id, plan_id, plan_name, reference, provider, intent, trial_days,
	 amount_cents, currency, status, created_at, updated_at`

type PaymentService struct {
	db DB
}

func NewPaymentService(db DB) *PaymentService {
	return &PaymentService{db: db}
}

// Create inserts a payment row. The unique reference makes duplicate inserts
// for the same attempt fail loudly rather than double-record money movement.
func (s *PaymentService) Create(ctx context.Context, p *model.Payment) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.TenantID, p.PlanID, p.PlanName, p.Reference, p.Provider, p.Intent, p.TrialDays,
		p.AmountCents, p.Currency, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create payment %s: %w", p.Reference, err)
	}
	return nil
}

func (s *PaymentService) GetByReference(ctx context.Context, reference string) (*model.Payment, error) {
	var p model.Payment
	err := s.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE reference = $1`, reference,
	).Scan(&p.ID, &p.TenantID, &p.PlanID, &p.PlanName, &p.Reference, &p.Provider, &p.Intent, &p.TrialDays,
		&p.AmountCents, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", reference, ErrNotFound)
		}
		return nil, fmt.Errorf("get payment %s: %w", reference, err)
	}
	return &p, nil
}

// MarkStatus advances a payment to the given status by reference. Payments
// already in a terminal status are left untouched; the returned bool reports
// whether this call performed the transition, which is what webhook replays
// key their no-op behavior on.
func (s *PaymentService) MarkStatus(ctx context.Context, reference string, status model.PaymentStatus) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE payments SET status = $2, updated_at = now()
		 WHERE reference = $1 AND status NOT IN ('paid', 'success', 'failed')`,
		reference, status,
	)
	if err != nil {
		return false, fmt.Errorf("mark payment %s %s: %w", reference, status, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PaymentService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Payment, bool, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list payments for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.PlanID, &p.PlanName, &p.Reference, &p.Provider, &p.Intent, &p.TrialDays,
			&p.AmountCents, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate payments: %w", err)
	}

	hasMore := len(payments) > limit
	if hasMore {
		payments = payments[:limit]
	}
	return payments, hasMore, nil
}

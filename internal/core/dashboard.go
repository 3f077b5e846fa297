package core

import (
	"context"
	"errors"
	"fmt"
)

// DashboardStats holds per-tenant aggregate counts.
type DashboardStats struct {
	Plan                string        `json:"plan"`
	SubscriptionStatus  string        `json:"subscription_status"`
	PostsTotal          int           `json:"posts_total"`
	PostsThisMonth      int           `json:"posts_this_month"`
	PostsScheduled      int           `json:"posts_scheduled"`
	PostsPublished      int           `json:"posts_published"`
	PaymentsTotal       int           `json:"payments_total"`
	PaymentsPending     int           `json:"payments_pending"`
	NotificationsUnread int           `json:"notifications_unread"`
	PostsByStatus       []StatusCount `json:"posts_by_status"`
	PaymentsByStatus    []StatusCount `json:"payments_by_status"`
}

// StatusCount holds a count grouped by status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DashboardService queries aggregate stats for a tenant.
type DashboardService struct {
	db   DB
	subs subscriptionStore
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(db DB, subs subscriptionStore) *DashboardService {
	return &DashboardService{db: db, subs: subs}
}

// Stats returns aggregate counts for the tenant using a single query with
// CTEs for efficiency.
func (s *DashboardService) Stats(ctx context.Context, tenantID string) (*DashboardStats, error) {
	stats := &DashboardStats{}

	sub, err := s.subs.GetByTenant(ctx, tenantID)
	switch {
	case err == nil:
		stats.Plan = sub.PlanName
		stats.SubscriptionStatus = string(sub.Status)
	case errors.Is(err, ErrNotFound):
		// No subscription yet; counts still apply.
	default:
		return nil, err
	}

	const countsQuery = `
		WITH post_count AS (
			SELECT count(*) AS c FROM posts WHERE tenant_id = $1
		), post_month AS (
			SELECT count(*) AS c FROM posts WHERE tenant_id = $1 AND created_at >= date_trunc('month', now())
		), post_scheduled AS (
			SELECT count(*) AS c FROM posts WHERE tenant_id = $1 AND status = 'scheduled'
		), post_published AS (
			SELECT count(*) AS c FROM posts WHERE tenant_id = $1 AND status = 'published'
		), payment_count AS (
			SELECT count(*) AS c FROM payments WHERE tenant_id = $1
		), payment_pending AS (
			SELECT count(*) AS c FROM payments WHERE tenant_id = $1 AND status = 'pending'
		), notification_unread AS (
			SELECT count(*) AS c FROM notifications WHERE tenant_id = $1 AND read = false
		)
		SELECT
			(SELECT c FROM post_count),
			(SELECT c FROM post_month),
			(SELECT c FROM post_scheduled),
			(SELECT c FROM post_published),
			(SELECT c FROM payment_count),
			(SELECT c FROM payment_pending),
			(SELECT c FROM notification_unread)`

	err = s.db.QueryRow(ctx, countsQuery, tenantID).Scan(
		&stats.PostsTotal,
		&stats.PostsThisMonth,
		&stats.PostsScheduled,
		&stats.PostsPublished,
		&stats.PaymentsTotal,
		&stats.PaymentsPending,
		&stats.NotificationsUnread,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	stats.PostsByStatus, err = s.statusCounts(ctx, "posts", tenantID)
	if err != nil {
		return nil, err
	}
	stats.PaymentsByStatus, err = s.statusCounts(ctx, "payments", tenantID)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *DashboardService) statusCounts(ctx context.Context, table, tenantID string) ([]StatusCount, error) {
	rows, err := s.db.Query(ctx,
		`SELECT status, count(*) FROM `+table+` WHERE tenant_id = $1 GROUP BY status ORDER BY count(*) DESC`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("dashboard %s by status: %w", table, err)
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

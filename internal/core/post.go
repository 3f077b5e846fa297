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

// PostService manages scheduled posts. Creation is gated on the tenant's
// subscription plan quota.
type PostService struct {
	db    DB
	subs  subscriptionStore
	plans planCatalog
}

// NewPostService creates a new PostService.
func NewPostService(db DB, subs subscriptionStore, plans planCatalog) *PostService {
	return &PostService{db: db, subs: subs, plans: plans}
}

// Create stores a new post. Scheduling requires a trialing or active
// subscription, and the plan's monthly post quota is enforced on every
// create. A quota of zero means unlimited.
func (s *PostService) Create(ctx context.Context, tenantID, content string, platforms []string, scheduledAt *time.Time) (*model.Post, error) {
	sub, err := s.subs.GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("create post for tenant %s: %w", tenantID, ErrNoActiveSubscription)
		}
		return nil, err
	}
	if !sub.IsTrialing() && !sub.IsActive() {
		return nil, fmt.Errorf("create post for tenant %s: %w", tenantID, ErrNoActiveSubscription)
	}

	plan, err := s.plans.Resolve(ctx, sub.PlanName)
	if err != nil {
		return nil, err
	}
	if plan.MaxPostsPerMonth > 0 {
		var count int
		err := s.db.QueryRow(ctx,
			`SELECT count(*) FROM posts WHERE tenant_id = $1 AND created_at >= date_trunc('month', now())`,
			tenantID,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("count posts this month: %w", err)
		}
		if count >= plan.MaxPostsPerMonth {
			return nil, fmt.Errorf("plan %s allows %d posts per month: %w", plan.Name, plan.MaxPostsPerMonth, ErrQuotaExceeded)
		}
	}

	status := model.PostDraft
	if scheduledAt != nil {
		status = model.PostScheduled
	}

	p := &model.Post{
		ID:          platform.NewID(),
		TenantID:    tenantID,
		Content:     content,
		Platforms:   platforms,
		Status:      status,
		ScheduledAt: scheduledAt,
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO posts (id, tenant_id, content, platforms, status, scheduled_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())`,
		p.ID, p.TenantID, p.Content, p.Platforms, p.Status, p.ScheduledAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	err = s.db.QueryRow(ctx, `SELECT created_at, updated_at FROM posts WHERE id = $1`, p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get post timestamps: %w", err)
	}
	return p, nil
}

// GetByID retrieves a post scoped to a tenant.
func (s *PostService) GetByID(ctx context.Context, tenantID, id string) (*model.Post, error) {
	var p model.Post
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, content, platforms, status, scheduled_at, published_at, created_at, updated_at
		 FROM posts WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	).Scan(&p.ID, &p.TenantID, &p.Content, &p.Platforms, &p.Status, &p.ScheduledAt, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return &p, nil
}

// ListByTenant retrieves posts with cursor-based pagination.
func (s *PostService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Post, bool, error) {
	query := `SELECT id, tenant_id, content, platforms, status, scheduled_at, published_at, created_at, updated_at
		 FROM posts WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Content, &p.Platforms, &p.Status, &p.ScheduledAt, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate posts: %w", err)
	}

	hasMore := false
	if len(posts) > limit {
		hasMore = true
		posts = posts[:limit]
	}
	return posts, hasMore, nil
}

// Update rewrites a draft or scheduled post's content and schedule.
func (s *PostService) Update(ctx context.Context, tenantID, id, content string, platforms []string, scheduledAt *time.Time) (*model.Post, error) {
	status := model.PostDraft
	if scheduledAt != nil {
		status = model.PostScheduled
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE posts SET content = $1, platforms = $2, status = $3, scheduled_at = $4, updated_at = now()
		 WHERE id = $5 AND tenant_id = $6 AND status != 'published'`,
		content, platforms, status, scheduledAt, id, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("update post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, tenantID, id)
}

// Delete removes a post scoped to a tenant.
func (s *PostService) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

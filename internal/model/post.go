package model

import "time"

// Post status constants.
const (
	PostDraft     = "draft"
	PostScheduled = "scheduled"
	PostPublished = "published"
)

type Post struct {
	ID          string     `json:"id" db:"id"`
	TenantID    string     `json:"tenant_id" db:"tenant_id"`
	Content     string     `json:"content" db:"content"`
	Platforms   []string   `json:"platforms" db:"platforms"`
	Status      string     `json:"status" db:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

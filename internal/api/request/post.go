package request

import "time"

// CreatePost is the body for POST /posts.
type CreatePost struct {
	Content     string     `json:"content" validate:"required,max=5000"`
	Platforms   []string   `json:"platforms" validate:"required,min=1,dive,oneof=twitter instagram linkedin facebook tiktok"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// UpdatePost is the body for PUT /posts/{id}.
type UpdatePost struct {
	Content     string     `json:"content" validate:"required,max=5000"`
	Platforms   []string   `json:"platforms" validate:"required,min=1,dive,oneof=twitter instagram linkedin facebook tiktok"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

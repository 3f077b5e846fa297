package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/goviral/goviral/internal/api/middleware"
	"github.com/goviral/goviral/internal/api/request"
	"github.com/goviral/goviral/internal/api/response"
	"github.com/goviral/goviral/internal/core"
)

// Post handles scheduled post endpoints.
type Post struct {
	svc *core.PostService
}

// NewPost creates a new Post handler.
func NewPost(svc *core.PostService) *Post {
	return &Post{svc: svc}
}

// Create stores a new draft or scheduled post.
func (h *Post) Create(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())

	var req request.CreatePost
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.svc.Create(r.Context(), tenant.ID, req.Content, req.Platforms, req.ScheduledAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, post)
}

// List returns the caller's posts, newest first.
func (h *Post) List(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())
	pg := request.ParsePagination(r)

	posts, hasMore, err := h.svc.ListByTenant(r.Context(), tenant.ID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(posts) > 0 {
		nextCursor = posts[len(posts)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, posts, nextCursor, hasMore)
}

// Get returns a single post.
func (h *Post) Get(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())

	post, err := h.svc.GetByID(r.Context(), tenant.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, post)
}

// Update rewrites a draft or scheduled post.
func (h *Post) Update(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())

	var req request.UpdatePost
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.svc.Update(r.Context(), tenant.ID, chi.URLParam(r, "id"), req.Content, req.Platforms, req.ScheduledAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, post)
}

// Delete removes a post.
func (h *Post) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := mw.GetTenant(r.Context())

	if err := h.svc.Delete(r.Context(), tenant.ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/email-sorter/internal/pkg/httputil"
	"github.com/ignite/email-sorter/internal/store"
)

// urlUUID parses the {id} route parameter; a false return means a 400 was
// already written.
func urlUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r)
	if !ok {
		return
	}
	user, err := h.store.GetUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "user not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, user)
}

func (h *Handlers) ListGmailAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r)
	if !ok {
		return
	}
	accounts, err := h.store.ListGmailAccounts(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if accounts == nil {
		accounts = []store.GmailAccount{}
	}
	httputil.OK(w, accounts)
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r)
	if !ok {
		return
	}
	categories, err := h.store.ListCategoriesWithCounts(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if categories == nil {
		categories = []store.CategoryCount{}
	}
	httputil.OK(w, categories)
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r)
	if !ok {
		return
	}
	var req createCategoryRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	category, err := h.store.CreateCategory(r.Context(), id, req.Name, req.Description)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, category)
}

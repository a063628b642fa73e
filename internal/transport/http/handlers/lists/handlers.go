package listshandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hwportal/internal/domain/auth"
	"hwportal/internal/domain/listing"
	"hwportal/internal/transport/http/api"
	"hwportal/internal/transport/http/middleware"
	"hwportal/internal/transport/http/shared"
)

// Handler serves every registered list module under /lists/{module}.
type Handler struct {
	Perms   middleware.PermissionStore
	modules []listing.Module
	mounts  map[string]func(chi.Router)
}

func NewHandler(perms middleware.PermissionStore) *Handler {
	return &Handler{Perms: perms, mounts: map[string]func(chi.Router){}}
}

// Add exposes a module registry. Modules are listed in the order added.
func Add[T any](h *Handler, reg *listing.Registry[T]) {
	module := reg.Definition().Module
	m := &moduleHandler[T]{reg: reg, perms: h.Perms}
	h.modules = append(h.modules, module)
	h.mounts[module.Key] = m.routes
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/lists", func(r chi.Router) {
		r.With(middleware.RequirePermission(h.Perms, auth.PermListsRead)).Get("/", h.handleModules)
		for _, module := range h.modules {
			r.Route("/"+module.Key, h.mounts[module.Key])
		}
	})
}

func (h *Handler) handleModules(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.modules, middleware.GetRequestID(r.Context()))
}

type moduleHandler[T any] struct {
	reg   *listing.Registry[T]
	perms middleware.PermissionStore
}

func (m *moduleHandler[T]) routes(r chi.Router) {
	read := middleware.RequirePermission(m.perms, auth.PermListsRead)
	write := middleware.RequirePermission(m.perms, auth.PermListsWrite)
	r.With(read).Get("/", m.handleState)
	r.With(write).Patch("/filters", m.handleUpdateFilters)
	r.With(read).Post("/fetch", m.handleFetch)
	r.With(write).Post("/search", m.handleSearch)
	r.With(read).Get("/{id}", m.handleDetail)
}

type fetchRequest struct {
	Facilities *[]string `json:"facilities"`
}

type searchRequest struct {
	Term string `json:"term"`
}

func (m *moduleHandler[T]) store(r *http.Request) (*listing.Store[T], bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return nil, false
	}
	return m.reg.For(r.Context(), user.UserID), true
}

// handleState returns the caller's list state, loading the first page when
// the list has never been fetched.
func (m *moduleHandler[T]) handleState(w http.ResponseWriter, r *http.Request) {
	store, ok := m.store(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	state := store.State()
	if state.FetchedAt == nil && !state.Loading && state.LastError == "" {
		fetched, err := store.Fetch(r.Context(), nil)
		if err != nil && !errors.Is(err, listing.ErrSuperseded) {
			shared.FailError(w, err, middleware.GetRequestID(r.Context()))
			return
		}
		state = fetched
	}
	m.writeState(w, r, state)
}

func (m *moduleHandler[T]) handleUpdateFilters(w http.ResponseWriter, r *http.Request) {
	store, ok := m.store(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var patch listing.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid filter payload", middleware.GetRequestID(r.Context()))
		return
	}
	state, err := store.Update(r.Context(), patch)
	m.respond(w, r, state, err)
}

func (m *moduleHandler[T]) handleFetch(w http.ResponseWriter, r *http.Request) {
	store, ok := m.store(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid fetch payload", middleware.GetRequestID(r.Context()))
		return
	}
	var facilities []string
	if req.Facilities != nil {
		facilities = *req.Facilities
		if facilities == nil {
			facilities = []string{}
		}
	}
	state, err := store.Fetch(r.Context(), facilities)
	m.respond(w, r, state, err)
}

func (m *moduleHandler[T]) handleSearch(w http.ResponseWriter, r *http.Request) {
	store, ok := m.store(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid search payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := store.Search(r.Context(), strings.TrimSpace(req.Term)); err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Accepted(w, store.State(), middleware.GetRequestID(r.Context()))
}

func (m *moduleHandler[T]) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "record id is required", middleware.GetRequestID(r.Context()))
		return
	}
	item, err := m.reg.Detail(r.Context(), id)
	if err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, item, middleware.GetRequestID(r.Context()))
}

// respond treats a superseded fetch as success: the newer result is already
// in the returned state.
func (m *moduleHandler[T]) respond(w http.ResponseWriter, r *http.Request, state listing.State[T], err error) {
	if err != nil && !errors.Is(err, listing.ErrSuperseded) {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	m.writeState(w, r, state)
}

func (m *moduleHandler[T]) writeState(w http.ResponseWriter, r *http.Request, state listing.State[T]) {
	module := m.reg.Definition().Module
	api.SuccessWithMeta(w, state, map[string]any{
		"module":     module.Key,
		"title":      module.Title,
		"statuses":   module.Statuses,
		"totalPages": totalPages(state.TotalCount, state.Filters.PageSize),
	}, middleware.GetRequestID(r.Context()))
}

func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

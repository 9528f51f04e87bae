package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/reviewdb/internal/auth"
	"github.com/sakif/reviewdb/internal/service"
)

// SlugResourceHandler serves a slug-addressed catalog resource. One
// generic handler covers categories and genres; the server wires an
// instance of each. List is public, create and delete are admin only
// (enforced in the service).
type SlugResourceHandler[T any] struct {
	svc    *service.SlugResourceService[T]
	logger *slog.Logger
}

// NewSlugResourceHandler creates a handler over the given resource service.
func NewSlugResourceHandler[T any](svc *service.SlugResourceService[T], logger *slog.Logger) *SlugResourceHandler[T] {
	return &SlugResourceHandler[T]{svc: svc, logger: logger}
}

type slugResourceRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50"`
}

// HandleList returns all resources.
//
// HTTP: GET /api/v1/categories (or /genres)
func (h *SlugResourceHandler[T]) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleCreate adds a new resource.
//
// HTTP: POST /api/v1/categories (or /genres)
func (h *SlugResourceHandler[T]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req slugResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.svc.Create(r.Context(), auth.UserFromContext(r.Context()), req.Name, req.Slug)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// HandleDelete removes the resource addressed by slug.
//
// HTTP: DELETE /api/v1/categories/{slug} (or /genres/{slug})
func (h *SlugResourceHandler[T]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.svc.Delete(r.Context(), auth.UserFromContext(r.Context()), slug); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TitleHandler serves the works catalog. Reads are public, writes admin
// only.
type TitleHandler struct {
	titles *service.TitleService
	logger *slog.Logger
}

// NewTitleHandler creates a TitleHandler.
func NewTitleHandler(titles *service.TitleService, logger *slog.Logger) *TitleHandler {
	return &TitleHandler{titles: titles, logger: logger}
}

// titleRequest is shared by create (POST) and partial update (PATCH).
// Create-time required fields are checked in the service, because on
// PATCH every field is optional.
type titleRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=256"`
	Year        *int     `json:"year"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" validate:"omitempty,max=50"`
	Genres      []string `json:"genre" validate:"omitempty,dive,max=50"`
}

func (req *titleRequest) toInput() service.TitleInput {
	return service.TitleInput{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Description,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genres,
	}
}

// HandleList returns all titles with rating, category and genres resolved.
//
// HTTP: GET /api/v1/titles
func (h *TitleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	titles, err := h.titles.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, titles)
}

// HandleGet returns a single title.
//
// HTTP: GET /api/v1/titles/{titleID}
func (h *TitleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	title, err := h.titles.Get(r.Context(), chi.URLParam(r, "titleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, title)
}

// HandleCreate adds a title to the catalog.
//
// HTTP: POST /api/v1/titles
func (h *TitleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	title, err := h.titles.Create(r.Context(), auth.UserFromContext(r.Context()), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, title)
}

// HandleUpdate applies a partial update to a title.
//
// HTTP: PATCH /api/v1/titles/{titleID}
func (h *TitleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	title, err := h.titles.Update(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "titleID"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, title)
}

// HandleDelete removes a title together with its reviews.
//
// HTTP: DELETE /api/v1/titles/{titleID}
func (h *TitleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.titles.Delete(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "titleID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/reviewdb/internal/auth"
	"github.com/sakif/reviewdb/internal/model"
	"github.com/sakif/reviewdb/internal/service"
)

// UserHandler serves the admin-only user directory plus the /users/me
// self-service endpoints. The /users/me routes are registered before the
// /users/{username} routes so "me" is never treated as a username.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// userRequest is shared by directory create (POST), directory update
// (PATCH) and self-service update (PATCH /users/me). Required fields for
// create are checked in the service.
type userRequest struct {
	Username  *string `json:"username" validate:"omitempty,max=150"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

func (req *userRequest) toInput() service.UserInput {
	input := service.UserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		input.Role = &role
	}
	return input
}

// HandleList returns all users. Admin only.
//
// HTTP: GET /api/v1/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleCreate registers a user directly, bypassing the signup flow.
// Admin only.
//
// HTTP: POST /api/v1/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), auth.UserFromContext(r.Context()), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleGet returns one user by username. Admin only.
//
// HTTP: GET /api/v1/users/{username}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate applies a partial update to a user, including role
// changes. Admin only.
//
// HTTP: PATCH /api/v1/users/{username}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), auth.UserFromContext(r.Context()),
		chi.URLParam(r, "username"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes a user. Admin only.
//
// HTTP: DELETE /api/v1/users/{username}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.users.Delete(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the caller's own account.
//
// HTTP: GET /api/v1/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Me(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateMe applies profile changes to the caller's own account.
// A role field naming any role other than the caller's own fails the
// whole request.
//
// HTTP: PATCH /api/v1/users/me
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateMe(r.Context(), auth.UserFromContext(r.Context()), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

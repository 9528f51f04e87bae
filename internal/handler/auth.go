package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/reviewdb/internal/service"
)

// AuthHandler exposes the passwordless signup flow.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup → register a user (or re-request a code) and email a
//     confirmation code
//   - HandleToken  → exchange username + code for a JWT access token
//
// Both endpoints are public: they are how a client becomes authenticated
// in the first place.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type signupRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

// HandleSignup registers a user and sends them a confirmation code.
//
// HTTP: POST /api/v1/auth/signup
//
// Repeating the request with the same username and email is allowed and
// simply issues a fresh code. The response echoes the input rather than
// the code — the code only ever travels by email.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.Signup(r.Context(), req.Username, req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"username": req.Username,
		"email":    req.Email,
	})
}

type tokenRequest struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// HandleToken exchanges a confirmation code for an access token.
//
// HTTP: POST /api/v1/auth/token
//
// An unknown username is 404; a wrong or expired code is 400, with no
// way to tell the two apart from the response.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.IssueToken(r.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

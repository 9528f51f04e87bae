package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sakif/reviewdb/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string,
// ANY package that knows the string can read or shadow your value. Using a
// package-private type prevents collisions: only THIS package can create a
// key of type contextKey, so only this package can read or write the
// caller value in the context.
type contextKey string

const userKey contextKey = "user"

// errNoToken means the request carried no Authorization header at all.
var errNoToken = errors.New("auth: no bearer token")

// UserLoader resolves a validated token subject to a full user record.
// The request middleware needs the caller's role for permission checks,
// not just their ID, so it loads the record once per request.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth is a middleware that enforces authentication on protected
// routes (the /users directory and /users/me).
//
// It reads the JWT from the "Authorization: Bearer <token>" header,
// validates it, resolves the user record and stores it in the request
// context. If the token is missing, invalid, or points at a deleted user,
// it returns 401 Unauthorized and stops the request chain.
func RequireAuth(tokens *TokenService, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveCaller(r, tokens, users)
			if err != nil || user == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":"unauthenticated","message":"valid authentication required"}`)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth extracts the caller's identity if a valid token is present,
// but does NOT block the request otherwise.
//
// Most of the API uses this: reads are public (anonymous allowed), and the
// authorization engine — not the transport — decides whether a mutation by
// the resolved (or absent) caller is permitted. That keeps the 401-vs-403
// distinction in one place.
func OptionalAuth(tokens *TokenService, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := resolveCaller(r, tokens, users); err == nil && user != nil {
				r = r.WithContext(ContextWithUser(r.Context(), user))
			}
			// Always continue — no 401 even with no token
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithUser returns a context carrying the authenticated caller.
// Exported so handler tests can simulate an authenticated request without
// minting real tokens.
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated caller from the request
// context. Anonymous requests yield nil, which is exactly the caller
// value the permission package treats as unauthenticated, so handlers
// pass the result straight to the service layer.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// resolveCaller reads the bearer token, validates it, and loads the user.
// Shared by RequireAuth and OptionalAuth.
func resolveCaller(r *http.Request, tokens *TokenService, users UserLoader) (*model.User, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, errNoToken
	}

	userID, err := tokens.Validate(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return nil, err
	}

	// A valid token for a since-deleted user is treated as anonymous.
	return users.GetByID(r.Context(), userID)
}

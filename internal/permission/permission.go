// Package permission is the authorization engine: one decision function per
// resource family, evaluated against the acting identity (nil = anonymous)
// and, for object-level checks, the target resource's author.
//
// The functions here return nil when the operation is allowed, or an
// apperror sentinel describing WHY it is denied:
//
//	apperror.ErrUnauthenticated → the caller presented no identity (401)
//	apperror.ErrForbidden       → authenticated but not permitted (403)
//
// The engine never touches HTTP — the handler layer's writeError maps these
// to status codes. Services call these functions before every mutation, so
// a denied request never reaches the store.
//
// All role comparisons go through model.Role constants and the
// User.IsAdmin/IsModerator helpers. There are deliberately no string
// literals here: one canonical enumeration, consumed everywhere.
package permission

import (
	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"
)

// Authenticated allows any logged-in caller. Used for creating reviews and
// comments (ownership is irrelevant — the resource doesn't exist yet) and
// for the /users/me self-service endpoint.
func Authenticated(caller *model.User) error {
	if caller == nil {
		return apperror.Unauthenticated("authentication required")
	}
	return nil
}

// CatalogWrite guards mutations of categories, genres and titles.
// Reads are always allowed, including anonymous — callers simply don't
// consult the engine for them.
func CatalogWrite(caller *model.User) error {
	if caller == nil {
		return apperror.Unauthenticated("authentication required")
	}
	if caller.IsAdmin() {
		return nil
	}
	return apperror.Forbidden("only administrators may modify the catalog")
}

// ContentModify guards update/delete of a review or comment: the resource's
// author may always modify it, and so may moderators and admins (content
// moderation). The superuser flag is not consulted here — moderation power
// comes from the role, matching the user-directory split.
func ContentModify(caller *model.User, authorID string) error {
	if caller == nil {
		return apperror.Unauthenticated("authentication required")
	}
	if caller.ID == authorID || caller.Role == model.RoleAdmin || caller.Role == model.RoleModerator {
		return nil
	}
	return apperror.Forbidden("only the author or a moderator may modify this")
}

// UserDirectory guards every operation on the administrative /users
// resource. The self-service /users/me path does NOT go through this —
// it only requires Authenticated.
func UserDirectory(caller *model.User) error {
	if caller == nil {
		return apperror.Unauthenticated("authentication required")
	}
	if caller.IsAdmin() {
		return nil
	}
	return apperror.Forbidden("only administrators may manage users")
}

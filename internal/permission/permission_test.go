package permission

import (
	"errors"
	"testing"

	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"
)

func user(id string, role model.Role) *model.User {
	return &model.User{ID: id, Username: id, Role: role}
}

func superuser(id string) *model.User {
	return &model.User{ID: id, Username: id, Role: model.RoleUser, IsSuperuser: true}
}

// want values for the decision tables below.
var (
	allowed  error = nil
	deny401        = apperror.ErrUnauthenticated
	deny403        = apperror.ErrForbidden
)

func check(t *testing.T, got, want error) {
	t.Helper()
	if want == nil {
		if got != nil {
			t.Errorf("expected allow, got %v", got)
		}
		return
	}
	if !errors.Is(got, want) {
		t.Errorf("expected denial %v, got %v", want, got)
	}
}

func TestCatalogWrite(t *testing.T) {
	tests := []struct {
		name   string
		caller *model.User
		want   error
	}{
		{"anonymous", nil, deny401},
		{"plain user", user("u1", model.RoleUser), deny403},
		{"moderator", user("m1", model.RoleModerator), deny403},
		{"admin", user("a1", model.RoleAdmin), allowed},
		{"superuser with user role", superuser("s1"), allowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, CatalogWrite(tt.caller), tt.want)
		})
	}
}

func TestContentModify(t *testing.T) {
	const authorID = "author-1"

	tests := []struct {
		name   string
		caller *model.User
		want   error
	}{
		{"anonymous", nil, deny401},
		{"the author", user(authorID, model.RoleUser), allowed},
		{"unrelated user", user("stranger", model.RoleUser), deny403},
		{"moderator", user("mod", model.RoleModerator), allowed},
		{"admin", user("adm", model.RoleAdmin), allowed},
		// The moderation rule consults the role enumeration only: a superuser
		// whose role is "user" has no special power over others' content.
		{"superuser non-author", superuser("sup"), deny403},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, ContentModify(tt.caller, authorID), tt.want)
		})
	}
}

func TestUserDirectory(t *testing.T) {
	tests := []struct {
		name   string
		caller *model.User
		want   error
	}{
		{"anonymous", nil, deny401},
		{"plain user", user("u1", model.RoleUser), deny403},
		{"moderator", user("m1", model.RoleModerator), deny403},
		{"admin", user("a1", model.RoleAdmin), allowed},
		{"superuser", superuser("s1"), allowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, UserDirectory(tt.caller), tt.want)
		})
	}
}

func TestAuthenticated(t *testing.T) {
	check(t, Authenticated(nil), deny401)
	check(t, Authenticated(user("u1", model.RoleUser)), allowed)
}

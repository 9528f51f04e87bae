package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"
)

func strp(s string) *string { return &s }

func rolep(r model.Role) *model.Role { return &r }

func newUserFixture() (*UserService, *mockUserRepo, *model.User) {
	users := newMockUserRepo()
	admin := users.add(&model.User{Username: "admin", Email: "admin@example.com", Role: model.RoleAdmin})
	return NewUserService(users, testLogger()), users, admin
}

func TestUserCreate_AdminOnly(t *testing.T) {
	svc, users, admin := newUserFixture()
	plain := users.add(&model.User{Username: "plain", Email: "plain@example.com"})

	input := UserInput{Username: strp("natasha"), Email: strp("natasha@example.com")}

	_, err := svc.Create(context.Background(), plain, input)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	created, err := svc.Create(context.Background(), admin, input)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, created.Role)
}

func TestUserCreate_WithRole(t *testing.T) {
	svc, _, admin := newUserFixture()

	created, err := svc.Create(context.Background(), admin, UserInput{
		Username: strp("mod"),
		Email:    strp("mod@example.com"),
		Role:     rolep(model.RoleModerator),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, created.Role)

	_, err = svc.Create(context.Background(), admin, UserInput{
		Username: strp("x"),
		Email:    strp("x@example.com"),
		Role:     rolep(model.Role("owner")),
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUserUpdate_AdminChangesRole(t *testing.T) {
	svc, users, admin := newUserFixture()
	users.add(&model.User{Username: "natasha", Email: "natasha@example.com"})

	updated, err := svc.Update(context.Background(), admin, "natasha", UserInput{Role: rolep(model.RoleModerator)})
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, updated.Role)
	assert.Equal(t, "natasha", updated.Username)
}

func TestUserList_SuperuserWithoutAdminRole(t *testing.T) {
	svc, users, _ := newUserFixture()
	super := users.add(&model.User{Username: "root", Email: "root@example.com", Role: model.RoleUser, IsSuperuser: true})

	list, err := svc.List(context.Background(), super)
	require.NoError(t, err)
	assert.NotEmpty(t, list)
}

func TestUserDelete(t *testing.T) {
	svc, users, admin := newUserFixture()
	users.add(&model.User{Username: "natasha", Email: "natasha@example.com"})

	require.NoError(t, svc.Delete(context.Background(), admin, "natasha"))

	_, err := svc.Get(context.Background(), admin, "natasha")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = svc.Delete(context.Background(), admin, "natasha")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMe(t *testing.T) {
	svc, users, _ := newUserFixture()
	plain := users.add(&model.User{Username: "plain", Email: "plain@example.com", Bio: "hi"})

	me, err := svc.Me(context.Background(), plain)
	require.NoError(t, err)
	assert.Equal(t, "plain", me.Username)
	assert.Equal(t, "hi", me.Bio)

	_, err = svc.Me(context.Background(), nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestUpdateMe_ProfileFields(t *testing.T) {
	svc, users, _ := newUserFixture()
	plain := users.add(&model.User{Username: "plain", Email: "plain@example.com"})

	updated, err := svc.UpdateMe(context.Background(), plain, UserInput{
		FirstName: strp("Nat"),
		Bio:       strp("reader"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Nat", updated.FirstName)
	assert.Equal(t, "reader", updated.Bio)
	assert.Equal(t, model.RoleUser, updated.Role)
}

func TestUpdateMe_RoleChangeRejectsWholeUpdate(t *testing.T) {
	svc, users, _ := newUserFixture()
	plain := users.add(&model.User{Username: "plain", Email: "plain@example.com"})

	_, err := svc.UpdateMe(context.Background(), plain, UserInput{
		Bio:  strp("sneaky"),
		Role: rolep(model.RoleAdmin),
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// Nothing was applied, not even the harmless bio.
	me, err := svc.Me(context.Background(), plain)
	require.NoError(t, err)
	assert.Empty(t, me.Bio)
}

func TestUpdateMe_EchoingOwnRoleIsAllowed(t *testing.T) {
	svc, users, _ := newUserFixture()
	plain := users.add(&model.User{Username: "plain", Email: "plain@example.com"})

	updated, err := svc.UpdateMe(context.Background(), plain, UserInput{
		Bio:  strp("fine"),
		Role: rolep(model.RoleUser),
	})
	require.NoError(t, err)
	assert.Equal(t, "fine", updated.Bio)
}

package service

import (
	"context"
	"log/slog"

	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"
	"github.com/sakif/reviewdb/internal/permission"
	"github.com/sakif/reviewdb/internal/repository"
)

// UserInput carries the mutable fields of a user account. Nil pointers
// mean "leave unchanged" on update.
type UserInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *model.Role
}

// UserService covers the admin-only user directory plus the /users/me
// self-service endpoints available to any authenticated user.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService with all required dependencies.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Create registers a user directly, bypassing the confirmation-code
// flow. Admin only.
func (s *UserService) Create(ctx context.Context, caller *model.User, input UserInput) (*model.User, error) {
	if err := permission.UserDirectory(caller); err != nil {
		return nil, err
	}
	if input.Username == nil || *input.Username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if *input.Username == reservedUsername {
		return nil, apperror.ValidationFailed("username", `username "me" is reserved`)
	}
	if input.Email == nil || *input.Email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	user := &model.User{
		Username: *input.Username,
		Email:    *input.Email,
		Role:     model.RoleUser,
	}
	applyProfile(user, input)
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperror.ValidationFailed("role", "unknown role")
		}
		user.Role = *input.Role
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("by", caller.Username),
	)
	return user, nil
}

// Get returns one user by username. Admin only.
func (s *UserService) Get(ctx context.Context, caller *model.User, username string) (*model.User, error) {
	if err := permission.UserDirectory(caller); err != nil {
		return nil, err
	}
	return s.users.GetByUsername(ctx, username)
}

// List returns all users. Admin only.
func (s *UserService) List(ctx context.Context, caller *model.User) ([]model.User, error) {
	if err := permission.UserDirectory(caller); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// Update applies the provided fields to the user addressed by username,
// including role changes. Admin only.
func (s *UserService) Update(ctx context.Context, caller *model.User, username string, input UserInput) (*model.User, error) {
	if err := permission.UserDirectory(caller); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		if *input.Username == reservedUsername {
			return nil, apperror.ValidationFailed("username", `username "me" is reserved`)
		}
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	applyProfile(user, input)
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperror.ValidationFailed("role", "unknown role")
		}
		user.Role = *input.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user updated",
		slog.String("userID", user.ID),
		slog.String("by", caller.Username),
	)
	return user, nil
}

// Delete removes a user by username. Admin only.
func (s *UserService) Delete(ctx context.Context, caller *model.User, username string) error {
	if err := permission.UserDirectory(caller); err != nil {
		return err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		slog.String("userID", user.ID),
		slog.String("username", username),
		slog.String("by", caller.Username),
	)
	return nil
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, caller *model.User) (*model.User, error) {
	if err := permission.Authenticated(caller); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, caller.ID)
}

// UpdateMe applies profile changes to the caller's own account. A role
// change in the input fails the WHOLE update, profile fields included —
// privilege escalation must not be partially applied.
func (s *UserService) UpdateMe(ctx context.Context, caller *model.User, input UserInput) (*model.User, error) {
	if err := permission.Authenticated(caller); err != nil {
		return nil, err
	}
	if input.Role != nil && *input.Role != caller.Role {
		return nil, apperror.ValidationFailed("role", "you may not change your own role")
	}

	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		if *input.Username == reservedUsername {
			return nil, apperror.ValidationFailed("username", `username "me" is reserved`)
		}
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	applyProfile(user, input)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", user.ID))
	return user, nil
}

// applyProfile copies the free-form profile fields, which every update
// path treats identically.
func applyProfile(user *model.User, input UserInput) {
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
}

// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → permissions, validation, orchestration
//	Repository (data layer)  → reads/writes the database
//
// Services accept plain values plus the acting caller (nil = anonymous),
// consult the permission package before any mutation, and return domain
// errors from the apperror package. They know nothing about HTTP — the
// handler layer maps domain errors to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/auth"
	"github.com/sakif/reviewdb/internal/mail"
	"github.com/sakif/reviewdb/internal/model"
	"github.com/sakif/reviewdb/internal/repository"
)

// How long a confirmation code stays exchangeable.
const confirmationCodeTTL = 24 * time.Hour

// reservedUsername collides with the /users/me self-service route, so
// signup rejects it outright.
const reservedUsername = "me"

// TokenIssuer is the token-minting capability the auth flow needs. It is
// an interface (not *auth.TokenService directly) so tests can use a stub
// and the flow stays decoupled from the token format.
type TokenIssuer interface {
	Generate(userID string) (string, error)
}

// AuthService implements the passwordless signup + token-exchange flow.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users   repository.UserRepository → identity store
//   - tokens  TokenIssuer               → mints access tokens
//   - sender  mail.Sender               → delivers codes out-of-band
//   - logger  *slog.Logger              → structured logging
type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	sender mail.Sender
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens TokenIssuer,
	sender mail.Sender,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Signup registers (or re-registers) a user and issues a fresh
// confirmation code to their email address.
//
// IDEMPOTENCY:
// A repeat request with the exact same (username, email) pair skips user
// creation and simply issues a new code — the flow for "I lost my code".
// A mismatched pair (username taken with a different email, or email
// taken by a different username) fails validation, because each field is
// independently unique.
//
// DELIVERY FAILURE:
// The user record and the code are persisted before delivery is
// attempted. If sending fails the error is returned to the caller rather
// than swallowed or rolled back: signup is idempotent, so the caller
// retries and gets a fresh code.
func (s *AuthService) Signup(ctx context.Context, username, email string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == reservedUsername {
		return apperror.ValidationFailed("username", `username "me" is reserved`)
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if user.Email != email {
			return apperror.ValidationFailed("username", "username already in use")
		}
		// Exact pair match: idempotent re-request, keep the existing user.
	case errors.Is(err, apperror.ErrNotFound):
		// Username free — but the email must be free too.
		if _, emailErr := s.users.GetByEmail(ctx, email); emailErr == nil {
			return apperror.ValidationFailed("email", "email already in use")
		} else if !errors.Is(emailErr, apperror.ErrNotFound) {
			return fmt.Errorf("service/auth: checking email %s: %w", email, emailErr)
		}

		user = &model.User{Username: username, Email: email, Role: model.RoleUser}
		if createErr := s.users.Create(ctx, user); createErr != nil {
			return fmt.Errorf("service/auth: creating user %s: %w", username, createErr)
		}
		s.logger.Info("user signed up",
			slog.String("userID", user.ID),
			slog.String("username", username),
		)
	default:
		return fmt.Errorf("service/auth: looking up user %s: %w", username, err)
	}

	code, err := auth.NewConfirmationCode(username)
	if err != nil {
		return fmt.Errorf("service/auth: generating confirmation code: %w", err)
	}

	// Upsert: at most one live code per user, a new signup replaces it.
	record := &model.ConfirmationCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: s.now().Add(confirmationCodeTTL),
	}
	if err := s.users.UpsertConfirmationCode(ctx, record); err != nil {
		return fmt.Errorf("service/auth: storing confirmation code for %s: %w", username, err)
	}

	if err := s.sender.SendConfirmationCode(ctx, email, username, code); err != nil {
		s.logger.Error("confirmation code delivery failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("service/auth: delivering confirmation code: %w", err)
	}

	s.logger.Info("confirmation code issued", slog.String("username", username))
	return nil
}

// IssueToken exchanges a valid confirmation code for a signed access token.
//
// An unknown username is NotFound. A wrong code and an expired code
// produce the IDENTICAL validation error — the caller must not be able to
// tell which check failed.
func (s *AuthService) IssueToken(ctx context.Context, username, code string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	invalid := apperror.ValidationFailed("confirmation_code", "invalid or expired confirmation code")

	record, err := s.users.GetConfirmationCode(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", invalid
		}
		return "", fmt.Errorf("service/auth: loading confirmation code for %s: %w", username, err)
	}

	if !auth.CodesEqual(code, record.Code) || record.Expired(s.now()) {
		return "", invalid
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("access token issued",
		slog.String("userID", user.ID),
		slog.String("username", username),
	)

	return token, nil
}

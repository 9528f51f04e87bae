package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"
	"github.com/sakif/reviewdb/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore is the identity store: user rows plus the one-per-user
// confirmation-code record.
type UserStore struct {
	conn *sql.DB
}

const userColumns = `id, username, email, first_name, last_name, bio, role, is_superuser, created_at, updated_at`

// Create inserts a new user. A pre-set ID is kept (the CSV loader relies
// on that); otherwise an xid is generated. UNIQUE violations on username
// or email come back as Conflict.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
		user.IsSuperuser,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return conflict("username already in use")
		}
		if isUniqueViolation(err, "users.email") {
			return conflict("email already in use")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

func (s *UserStore) scanUser(row *sql.Row, lookup string) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Bio,
		&u.Role,
		&u.IsSuperuser,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", lookup)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", lookup, err)
	}
	return &u, nil
}

// GetByID retrieves a user by their internal ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id), id)
}

// GetByUsername retrieves a user by username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username), username)
}

// GetByEmail retrieves a user by email address.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email), email)
}

// List returns all users ordered by username (the admin directory).
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
			&u.Bio, &u.Role, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Update rewrites the mutable profile fields. The ID and created_at are
// immutable; updated_at is always bumped.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, email = ?, first_name = ?, last_name = ?, bio = ?,
		     role = ?, is_superuser = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
		user.IsSuperuser,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return conflict("username already in use")
		}
		if isUniqueViolation(err, "users.email") {
			return conflict("email already in use")
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes a user. Their reviews, comments and confirmation code
// cascade away with them.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// UpsertConfirmationCode stores the code for a user, replacing any prior
// record. The table is keyed by user_id, so "INSERT ... ON CONFLICT ...
// DO UPDATE" guarantees at most one live code per user; last writer wins
// is acceptable here.
func (s *UserStore) UpsertConfirmationCode(ctx context.Context, code *model.ConfirmationCode) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO confirmation_codes (user_id, code, expires_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at`,
		code.UserID,
		code.Code,
		code.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting confirmation code for user %s: %w", code.UserID, err)
	}
	return nil
}

// GetConfirmationCode returns the live code record for a user, or NotFound
// if none was ever issued.
func (s *UserStore) GetConfirmationCode(ctx context.Context, userID string) (*model.ConfirmationCode, error) {
	var c model.ConfirmationCode
	err := s.conn.QueryRowContext(ctx,
		`SELECT user_id, code, expires_at FROM confirmation_codes WHERE user_id = ?`,
		userID,
	).Scan(&c.UserID, &c.Code, &c.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("confirmation code", userID)
		}
		return nil, fmt.Errorf("sqlite: getting confirmation code for user %s: %w", userID, err)
	}
	return &c, nil
}

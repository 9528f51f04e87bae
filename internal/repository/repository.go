// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/reviewdb/internal/model"
)

// UserRepository is the identity store: user accounts plus the one-time
// confirmation-code record (one live code per user, upsert semantics).
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error

	// UpsertConfirmationCode replaces any prior code for the user.
	UpsertConfirmationCode(ctx context.Context, code *model.ConfirmationCode) error
	GetConfirmationCode(ctx context.Context, userID string) (*model.ConfirmationCode, error)
}

// SlugRepository is the shared create/list/delete surface of the two
// slug-identified catalog resources (categories and genres). One generic
// interface instead of two copies — the sqlite side likewise has a single
// generic implementation instantiated per table.
type SlugRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	List(ctx context.Context) ([]T, error)
	GetBySlug(ctx context.Context, slug string) (*T, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

// TitleRepository stores titles and their genre associations. Reads return
// the expanded representation (resolved category/genres, computed rating).
type TitleRepository interface {
	// Create inserts the title and its genre links. genreIDs may be empty.
	Create(ctx context.Context, title *model.Title, genreIDs []string) error
	Get(ctx context.Context, id string) (*model.TitleDetail, error)
	List(ctx context.Context) ([]model.TitleDetail, error)
	// Update rewrites the title row; a non-nil genreIDs replaces the genre
	// set, nil leaves it untouched.
	Update(ctx context.Context, title *model.Title, genreIDs []string) error
	Delete(ctx context.Context, id string) error
}

// ReviewRepository stores reviews and their comments.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id string) (*model.Review, error)
	// GetByTitleAndAuthor returns apperror.ErrNotFound when the author has
	// not reviewed the title — the review service's pre-insert check.
	GetByTitleAndAuthor(ctx context.Context, titleID, authorID string) (*model.Review, error)
	ListByTitle(ctx context.Context, titleID string) ([]model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id string) error

	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentByID(ctx context.Context, id string) (*model.Comment, error)
	ListCommentsByReview(ctx context.Context, reviewID string) ([]model.Comment, error)
	UpdateComment(ctx context.Context, comment *model.Comment) error
	DeleteComment(ctx context.Context, id string) error
}

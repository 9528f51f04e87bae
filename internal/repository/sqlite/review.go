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

// compile-time check that *ReviewStore implements repository.ReviewRepository
var _ repository.ReviewRepository = (*ReviewStore)(nil)

// ReviewStore stores reviews and their comments. Reads join the author's
// username so responses can show who wrote what without a second lookup.
type ReviewStore struct {
	conn *sql.DB
}

const reviewSelect = `
	SELECT r.id, r.title_id, r.author_id, u.username, r.text, r.score, r.created_at
	FROM reviews r
	JOIN users u ON u.id = r.author_id`

// Create inserts a review. The UNIQUE(title_id, author_id) constraint is
// the storage-level backstop behind the service's pre-insert check: under
// concurrent duplicate submissions exactly one wins and the loser gets a
// clean Conflict.
func (s *ReviewStore) Create(ctx context.Context, review *model.Review) error {
	if review.ID == "" {
		review.ID = xid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO reviews (id, title_id, author_id, text, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		review.ID,
		review.TitleID,
		review.AuthorID,
		review.Text,
		review.Score,
		review.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "reviews.title_id") {
			return conflict("you have already reviewed this title")
		}
		return fmt.Errorf("sqlite: inserting review for title %s: %w", review.TitleID, err)
	}

	return nil
}

func (s *ReviewStore) scanReview(row *sql.Row, lookup string) (*model.Review, error) {
	var r model.Review
	err := row.Scan(&r.ID, &r.TitleID, &r.AuthorID, &r.Author, &r.Text, &r.Score, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("review", lookup)
		}
		return nil, fmt.Errorf("sqlite: getting review %s: %w", lookup, err)
	}
	return &r, nil
}

// GetByID retrieves a single review.
func (s *ReviewStore) GetByID(ctx context.Context, id string) (*model.Review, error) {
	return s.scanReview(s.conn.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ?`, id), id)
}

// GetByTitleAndAuthor retrieves the author's review of a title, NotFound
// if they have not reviewed it.
func (s *ReviewStore) GetByTitleAndAuthor(ctx context.Context, titleID, authorID string) (*model.Review, error) {
	return s.scanReview(s.conn.QueryRowContext(ctx,
		reviewSelect+` WHERE r.title_id = ? AND r.author_id = ?`, titleID, authorID),
		titleID+"/"+authorID)
}

// ListByTitle returns all reviews of a title, oldest first.
func (s *ReviewStore) ListByTitle(ctx context.Context, titleID string) ([]model.Review, error) {
	rows, err := s.conn.QueryContext(ctx,
		reviewSelect+` WHERE r.title_id = ? ORDER BY r.created_at`, titleID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews for title %s: %w", titleID, err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.TitleID, &r.AuthorID, &r.Author, &r.Text, &r.Score, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}

	return reviews, nil
}

// Update rewrites a review's text and score. title_id, author_id and
// created_at are immutable — authorship can never be reassigned by an
// edit, which is what lets moderators fix content without owning it.
func (s *ReviewStore) Update(ctx context.Context, review *model.Review) error {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE reviews SET text = ?, score = ? WHERE id = ?`,
		review.Text,
		review.Score,
		review.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating review %s: %w", review.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("review", review.ID)
	}

	return nil
}

// Delete removes a review; its comments cascade away.
func (s *ReviewStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting review %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("review", id)
	}

	return nil
}

// ---- comments ----

const commentSelect = `
	SELECT c.id, c.review_id, c.author_id, u.username, c.text, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.author_id`

// CreateComment inserts a comment on a review.
func (s *ReviewStore) CreateComment(ctx context.Context, comment *model.Comment) error {
	if comment.ID == "" {
		comment.ID = xid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO comments (id, review_id, author_id, text, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID,
		comment.ReviewID,
		comment.AuthorID,
		comment.Text,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting comment on review %s: %w", comment.ReviewID, err)
	}

	return nil
}

// GetCommentByID retrieves a single comment.
func (s *ReviewStore) GetCommentByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	err := s.conn.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id).
		Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.Author, &c.Text, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", id, err)
	}
	return &c, nil
}

// ListCommentsByReview returns all comments on a review, oldest first.
func (s *ReviewStore) ListCommentsByReview(ctx context.Context, reviewID string) ([]model.Comment, error) {
	rows, err := s.conn.QueryContext(ctx,
		commentSelect+` WHERE c.review_id = ? ORDER BY c.created_at`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for review %s: %w", reviewID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.Author, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}

// UpdateComment rewrites a comment's text. Authorship is immutable, same
// rule as reviews.
func (s *ReviewStore) UpdateComment(ctx context.Context, comment *model.Comment) error {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE comments SET text = ? WHERE id = ?`,
		comment.Text,
		comment.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %s: %w", comment.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment", comment.ID)
	}

	return nil
}

// DeleteComment removes a comment.
func (s *ReviewStore) DeleteComment(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment", id)
	}

	return nil
}

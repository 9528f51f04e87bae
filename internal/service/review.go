package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"
	"github.com/sakif/reviewdb/internal/permission"
	"github.com/sakif/reviewdb/internal/repository"
)

const maxReviewTextLength = 10000

// ReviewService manages reviews and their comments. Every operation is
// scoped to a title (and, for comments, to a review of that title), so
// a resource reached through the wrong parent is NotFound rather than
// silently served.
type ReviewService struct {
	reviews repository.ReviewRepository
	titles  repository.TitleRepository
	logger  *slog.Logger
}

// NewReviewService creates a ReviewService with all required dependencies.
func NewReviewService(
	reviews repository.ReviewRepository,
	titles repository.TitleRepository,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{reviews: reviews, titles: titles, logger: logger}
}

// CreateReview posts the caller's review of a title. Each user gets at
// most one review per title; a second attempt is a Conflict. The check
// runs before the insert so the common case gets a clean domain error,
// with the UNIQUE constraint as the backstop under races.
func (s *ReviewService) CreateReview(ctx context.Context, caller *model.User, titleID, text string, score int) (*model.Review, error) {
	if err := permission.Authenticated(caller); err != nil {
		return nil, err
	}
	if _, err := s.titles.Get(ctx, titleID); err != nil {
		return nil, err
	}
	if err := validateReviewText(text); err != nil {
		return nil, err
	}
	if err := validateScore(score); err != nil {
		return nil, err
	}

	_, err := s.reviews.GetByTitleAndAuthor(ctx, titleID, caller.ID)
	switch {
	case err == nil:
		return nil, apperror.Conflict("you have already reviewed this title")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/review: checking existing review: %w", err)
	}

	review := &model.Review{
		TitleID:  titleID,
		AuthorID: caller.ID,
		Text:     text,
		Score:    score,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info("review created",
		slog.String("reviewID", review.ID),
		slog.String("titleID", titleID),
		slog.String("by", caller.Username),
	)
	return s.reviews.GetByID(ctx, review.ID)
}

// GetReview returns one review of the given title. Public.
func (s *ReviewService) GetReview(ctx context.Context, titleID, reviewID string) (*model.Review, error) {
	return s.reviewOfTitle(ctx, titleID, reviewID)
}

// ListReviews returns all reviews of a title. Public.
func (s *ReviewService) ListReviews(ctx context.Context, titleID string) ([]model.Review, error) {
	if _, err := s.titles.Get(ctx, titleID); err != nil {
		return nil, err
	}
	return s.reviews.ListByTitle(ctx, titleID)
}

// UpdateReview edits the text and/or score of a review. Allowed for the
// author, moderators and admins. Authorship never changes: a moderator
// editing a review does not become its author.
func (s *ReviewService) UpdateReview(ctx context.Context, caller *model.User, titleID, reviewID string, text *string, score *int) (*model.Review, error) {
	review, err := s.reviewOfTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := permission.ContentModify(caller, review.AuthorID); err != nil {
		return nil, err
	}

	if text != nil {
		if err := validateReviewText(*text); err != nil {
			return nil, err
		}
		review.Text = *text
	}
	if score != nil {
		if err := validateScore(*score); err != nil {
			return nil, err
		}
		review.Score = *score
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info("review updated",
		slog.String("reviewID", reviewID),
		slog.String("by", caller.Username),
	)
	return s.reviews.GetByID(ctx, reviewID)
}

// DeleteReview removes a review and its comments. Allowed for the
// author, moderators and admins.
func (s *ReviewService) DeleteReview(ctx context.Context, caller *model.User, titleID, reviewID string) error {
	review, err := s.reviewOfTitle(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := permission.ContentModify(caller, review.AuthorID); err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}

	s.logger.Info("review deleted",
		slog.String("reviewID", reviewID),
		slog.String("by", caller.Username),
	)
	return nil
}

// CreateComment posts the caller's comment under a review.
func (s *ReviewService) CreateComment(ctx context.Context, caller *model.User, titleID, reviewID, text string) (*model.Comment, error) {
	if err := permission.Authenticated(caller); err != nil {
		return nil, err
	}
	if _, err := s.reviewOfTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := validateReviewText(text); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ReviewID: reviewID,
		AuthorID: caller.ID,
		Text:     text,
	}
	if err := s.reviews.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment created",
		slog.String("commentID", comment.ID),
		slog.String("reviewID", reviewID),
		slog.String("by", caller.Username),
	)
	return s.reviews.GetCommentByID(ctx, comment.ID)
}

// GetComment returns one comment under the given review. Public.
func (s *ReviewService) GetComment(ctx context.Context, titleID, reviewID, commentID string) (*model.Comment, error) {
	return s.commentOfReview(ctx, titleID, reviewID, commentID)
}

// ListComments returns all comments under a review. Public.
func (s *ReviewService) ListComments(ctx context.Context, titleID, reviewID string) ([]model.Comment, error) {
	if _, err := s.reviewOfTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return s.reviews.ListCommentsByReview(ctx, reviewID)
}

// UpdateComment edits a comment's text. Allowed for the author,
// moderators and admins.
func (s *ReviewService) UpdateComment(ctx context.Context, caller *model.User, titleID, reviewID, commentID, text string) (*model.Comment, error) {
	comment, err := s.commentOfReview(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := permission.ContentModify(caller, comment.AuthorID); err != nil {
		return nil, err
	}
	if err := validateReviewText(text); err != nil {
		return nil, err
	}

	comment.Text = text
	if err := s.reviews.UpdateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment updated",
		slog.String("commentID", commentID),
		slog.String("by", caller.Username),
	)
	return s.reviews.GetCommentByID(ctx, commentID)
}

// DeleteComment removes a comment. Allowed for the author, moderators
// and admins.
func (s *ReviewService) DeleteComment(ctx context.Context, caller *model.User, titleID, reviewID, commentID string) error {
	comment, err := s.commentOfReview(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := permission.ContentModify(caller, comment.AuthorID); err != nil {
		return err
	}

	if err := s.reviews.DeleteComment(ctx, commentID); err != nil {
		return err
	}

	s.logger.Info("comment deleted",
		slog.String("commentID", commentID),
		slog.String("by", caller.Username),
	)
	return nil
}

// reviewOfTitle loads a review and verifies it belongs to the title in
// the URL. A mismatch is NotFound, same as a missing review.
func (s *ReviewService) reviewOfTitle(ctx context.Context, titleID, reviewID string) (*model.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.TitleID != titleID {
		return nil, apperror.NotFound("review", reviewID)
	}
	return review, nil
}

// commentOfReview loads a comment and verifies the full parent chain.
func (s *ReviewService) commentOfReview(ctx context.Context, titleID, reviewID, commentID string) (*model.Comment, error) {
	if _, err := s.reviewOfTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.reviews.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.ReviewID != reviewID {
		return nil, apperror.NotFound("comment", commentID)
	}
	return comment, nil
}

func validateReviewText(text string) error {
	if text == "" {
		return apperror.ValidationFailed("text", "text is required")
	}
	if len(text) > maxReviewTextLength {
		return apperror.ValidationFailed("text", fmt.Sprintf("text must be at most %d characters", maxReviewTextLength))
	}
	return nil
}

func validateScore(score int) error {
	if score < model.MinScore || score > model.MaxScore {
		return apperror.ValidationFailed("score", fmt.Sprintf("score must be between %d and %d", model.MinScore, model.MaxScore))
	}
	return nil
}

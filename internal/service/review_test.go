package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"
)

type reviewFixture struct {
	svc     *ReviewService
	reviews *mockReviewRepo
	title   *model.TitleDetail
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	titles := newMockTitleRepo()
	reviews := newMockReviewRepo()
	return &reviewFixture{
		svc:     NewReviewService(reviews, titles, testLogger()),
		reviews: reviews,
		title:   titles.add("Solaris"),
	}
}

func reviewer(id string, role model.Role) *model.User {
	return &model.User{ID: id, Username: "u-" + id, Role: role}
}

func TestCreateReview(t *testing.T) {
	f := newReviewFixture(t)
	author := reviewer("a1", model.RoleUser)

	review, err := f.svc.CreateReview(context.Background(), author, f.title.ID, "gripping", 9)
	require.NoError(t, err)
	assert.Equal(t, author.ID, review.AuthorID)
	assert.Equal(t, 9, review.Score)
}

func TestCreateReview_RequiresAuth(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.CreateReview(context.Background(), nil, f.title.ID, "gripping", 9)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestCreateReview_UnknownTitle(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.CreateReview(context.Background(), reviewer("a1", model.RoleUser), "missing", "gripping", 9)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateReview_SecondReviewSameTitleConflicts(t *testing.T) {
	f := newReviewFixture(t)
	author := reviewer("a1", model.RoleUser)

	_, err := f.svc.CreateReview(context.Background(), author, f.title.ID, "gripping", 9)
	require.NoError(t, err)

	_, err = f.svc.CreateReview(context.Background(), author, f.title.ID, "changed my mind", 3)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestCreateReview_ScoreBounds(t *testing.T) {
	f := newReviewFixture(t)

	for _, score := range []int{0, 11, -1} {
		_, err := f.svc.CreateReview(context.Background(), reviewer("a1", model.RoleUser), f.title.ID, "x", score)
		assert.ErrorIs(t, err, apperror.ErrValidation, "score %d", score)
	}
}

func TestUpdateReview_Permissions(t *testing.T) {
	tests := []struct {
		name    string
		caller  *model.User
		wantErr error
	}{
		{"author", reviewer("a1", model.RoleUser), nil},
		{"other user", reviewer("a2", model.RoleUser), apperror.ErrForbidden},
		{"moderator", reviewer("m1", model.RoleModerator), nil},
		{"admin", reviewer("adm", model.RoleAdmin), nil},
		{"anonymous", nil, apperror.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture(t)
			author := reviewer("a1", model.RoleUser)
			created, err := f.svc.CreateReview(context.Background(), author, f.title.ID, "original", 5)
			require.NoError(t, err)

			text := "edited"
			updated, err := f.svc.UpdateReview(context.Background(), tt.caller, f.title.ID, created.ID, &text, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "edited", updated.Text)
			// Whoever edits, the review stays the author's.
			assert.Equal(t, author.ID, updated.AuthorID)
		})
	}
}

func TestUpdateReview_PartialScoreOnly(t *testing.T) {
	f := newReviewFixture(t)
	author := reviewer("a1", model.RoleUser)
	created, err := f.svc.CreateReview(context.Background(), author, f.title.ID, "original", 5)
	require.NoError(t, err)

	score := 8
	updated, err := f.svc.UpdateReview(context.Background(), author, f.title.ID, created.ID, nil, &score)
	require.NoError(t, err)
	assert.Equal(t, "original", updated.Text)
	assert.Equal(t, 8, updated.Score)
}

func TestGetReview_WrongTitleIsNotFound(t *testing.T) {
	f := newReviewFixture(t)
	created, err := f.svc.CreateReview(context.Background(), reviewer("a1", model.RoleUser), f.title.ID, "x", 5)
	require.NoError(t, err)

	_, err = f.svc.GetReview(context.Background(), "other-title", created.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteReview_ModeratorAllowed(t *testing.T) {
	f := newReviewFixture(t)
	created, err := f.svc.CreateReview(context.Background(), reviewer("a1", model.RoleUser), f.title.ID, "x", 5)
	require.NoError(t, err)

	err = f.svc.DeleteReview(context.Background(), reviewer("m1", model.RoleModerator), f.title.ID, created.ID)
	require.NoError(t, err)

	_, err = f.svc.GetReview(context.Background(), f.title.ID, created.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestComments(t *testing.T) {
	f := newReviewFixture(t)
	author := reviewer("a1", model.RoleUser)
	commenter := reviewer("c1", model.RoleUser)
	review, err := f.svc.CreateReview(context.Background(), author, f.title.ID, "x", 5)
	require.NoError(t, err)

	comment, err := f.svc.CreateComment(context.Background(), commenter, f.title.ID, review.ID, "agreed")
	require.NoError(t, err)
	assert.Equal(t, commenter.ID, comment.AuthorID)

	// Another user cannot edit it, the author can.
	_, err = f.svc.UpdateComment(context.Background(), author, f.title.ID, review.ID, comment.ID, "hijacked")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := f.svc.UpdateComment(context.Background(), commenter, f.title.ID, review.ID, comment.ID, "strongly agreed")
	require.NoError(t, err)
	assert.Equal(t, "strongly agreed", updated.Text)

	list, err := f.svc.ListComments(context.Background(), f.title.ID, review.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestComment_WrongReviewChainIsNotFound(t *testing.T) {
	f := newReviewFixture(t)
	author := reviewer("a1", model.RoleUser)
	review, err := f.svc.CreateReview(context.Background(), author, f.title.ID, "x", 5)
	require.NoError(t, err)
	comment, err := f.svc.CreateComment(context.Background(), author, f.title.ID, review.ID, "note")
	require.NoError(t, err)

	_, err = f.svc.GetComment(context.Background(), f.title.ID, "other-review", comment.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/reviewdb/internal/auth"
	"github.com/sakif/reviewdb/internal/service"
)

// ReviewHandler serves reviews and their comments, always nested under a
// title: /titles/{titleID}/reviews/{reviewID}/comments/{commentID}. The
// service verifies the whole parent chain, so a review reached through
// the wrong title 404s.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

type createReviewRequest struct {
	Text  string `json:"text" validate:"required,max=10000"`
	Score int    `json:"score" validate:"required,min=1,max=10"`
}

type updateReviewRequest struct {
	Text  *string `json:"text" validate:"omitempty,max=10000"`
	Score *int    `json:"score" validate:"omitempty,min=1,max=10"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

// HandleListReviews returns all reviews of a title.
//
// HTTP: GET /api/v1/titles/{titleID}/reviews
func (h *ReviewHandler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListReviews(r.Context(), chi.URLParam(r, "titleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// HandleGetReview returns a single review.
//
// HTTP: GET /api/v1/titles/{titleID}/reviews/{reviewID}
func (h *ReviewHandler) HandleGetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.GetReview(r.Context(), chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// HandleCreateReview posts the caller's review of a title. A second
// review of the same title by the same user is a 409.
//
// HTTP: POST /api/v1/titles/{titleID}/reviews
func (h *ReviewHandler) HandleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), auth.UserFromContext(r.Context()),
		chi.URLParam(r, "titleID"), req.Text, req.Score)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// HandleUpdateReview applies a partial update to a review. Author,
// moderator or admin.
//
// HTTP: PATCH /api/v1/titles/{titleID}/reviews/{reviewID}
func (h *ReviewHandler) HandleUpdateReview(w http.ResponseWriter, r *http.Request) {
	var req updateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	review, err := h.reviews.UpdateReview(r.Context(), auth.UserFromContext(r.Context()),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), req.Text, req.Score)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// HandleDeleteReview removes a review. Author, moderator or admin.
//
// HTTP: DELETE /api/v1/titles/{titleID}/reviews/{reviewID}
func (h *ReviewHandler) HandleDeleteReview(w http.ResponseWriter, r *http.Request) {
	err := h.reviews.DeleteReview(r.Context(), auth.UserFromContext(r.Context()),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListComments returns all comments under a review.
//
// HTTP: GET /api/v1/titles/{titleID}/reviews/{reviewID}/comments
func (h *ReviewHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.reviews.ListComments(r.Context(),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandleGetComment returns a single comment.
//
// HTTP: GET /api/v1/titles/{titleID}/reviews/{reviewID}/comments/{commentID}
func (h *ReviewHandler) HandleGetComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.reviews.GetComment(r.Context(),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), chi.URLParam(r, "commentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// HandleCreateComment posts the caller's comment under a review.
//
// HTTP: POST /api/v1/titles/{titleID}/reviews/{reviewID}/comments
func (h *ReviewHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.reviews.CreateComment(r.Context(), auth.UserFromContext(r.Context()),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// HandleUpdateComment replaces a comment's text. Author, moderator or
// admin.
//
// HTTP: PATCH /api/v1/titles/{titleID}/reviews/{reviewID}/comments/{commentID}
func (h *ReviewHandler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.reviews.UpdateComment(r.Context(), auth.UserFromContext(r.Context()),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), chi.URLParam(r, "commentID"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// HandleDeleteComment removes a comment. Author, moderator or admin.
//
// HTTP: DELETE /api/v1/titles/{titleID}/reviews/{reviewID}/comments/{commentID}
func (h *ReviewHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.reviews.DeleteComment(r.Context(), auth.UserFromContext(r.Context()),
		chi.URLParam(r, "titleID"), chi.URLParam(r, "reviewID"), chi.URLParam(r, "commentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

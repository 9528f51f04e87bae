package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"
	"github.com/sakif/reviewdb/internal/repository"
)

var (
	_ repository.UserRepository   = (*mockUserRepo)(nil)
	_ repository.TitleRepository  = (*mockTitleRepo)(nil)
	_ repository.ReviewRepository = (*mockReviewRepo)(nil)
)

// In-memory fakes for the repository interfaces. They implement just
// enough semantics (uniqueness, not-found) for the services under test.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockUserRepo struct {
	users map[string]*model.User            // by ID
	codes map[string]*model.ConfirmationCode // by user ID
	seq   int

	createErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users: make(map[string]*model.User),
		codes: make(map[string]*model.ConfirmationCode),
	}
}

func (m *mockUserRepo) add(user *model.User) *model.User {
	if user.ID == "" {
		m.seq++
		user.ID = fmt.Sprintf("user-%d", m.seq)
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	m.users[user.ID] = user
	return user
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("username already in use")
		}
		if u.Email == user.Email {
			return apperror.Conflict("email already in use")
		}
	}
	m.add(user)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	for id, u := range m.users {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username {
			return apperror.Conflict("username already in use")
		}
		if u.Email == user.Email {
			return apperror.Conflict("email already in use")
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(m.users, id)
	delete(m.codes, id)
	return nil
}

func (m *mockUserRepo) UpsertConfirmationCode(_ context.Context, code *model.ConfirmationCode) error {
	clone := *code
	m.codes[code.UserID] = &clone
	return nil
}

func (m *mockUserRepo) GetConfirmationCode(_ context.Context, userID string) (*model.ConfirmationCode, error) {
	if c, ok := m.codes[userID]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, apperror.NotFound("confirmation code", userID)
}

type mockSender struct {
	calls []sentCode
	err   error
}

type sentCode struct {
	to, username, code string
}

func (m *mockSender) SendConfirmationCode(_ context.Context, to, username, code string) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, sentCode{to: to, username: username, code: code})
	return nil
}

type mockIssuer struct {
	err error
}

func (m *mockIssuer) Generate(userID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-for-" + userID, nil
}

type mockTitleRepo struct {
	titles map[string]*model.TitleDetail
	seq    int
}

func newMockTitleRepo() *mockTitleRepo {
	return &mockTitleRepo{titles: make(map[string]*model.TitleDetail)}
}

func (m *mockTitleRepo) add(name string) *model.TitleDetail {
	m.seq++
	t := &model.TitleDetail{ID: fmt.Sprintf("title-%d", m.seq), Name: name, Year: 2000}
	m.titles[t.ID] = t
	return t
}

func (m *mockTitleRepo) Create(_ context.Context, title *model.Title, _ []string) error {
	m.seq++
	title.ID = fmt.Sprintf("title-%d", m.seq)
	m.titles[title.ID] = &model.TitleDetail{
		ID:          title.ID,
		Name:        title.Name,
		Year:        title.Year,
		Description: title.Description,
	}
	return nil
}

func (m *mockTitleRepo) Get(_ context.Context, id string) (*model.TitleDetail, error) {
	if t, ok := m.titles[id]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, apperror.NotFound("title", id)
}

func (m *mockTitleRepo) List(_ context.Context) ([]model.TitleDetail, error) {
	out := make([]model.TitleDetail, 0, len(m.titles))
	for _, t := range m.titles {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTitleRepo) Update(_ context.Context, title *model.Title, _ []string) error {
	t, ok := m.titles[title.ID]
	if !ok {
		return apperror.NotFound("title", title.ID)
	}
	t.Name = title.Name
	t.Year = title.Year
	t.Description = title.Description
	return nil
}

func (m *mockTitleRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.titles[id]; !ok {
		return apperror.NotFound("title", id)
	}
	delete(m.titles, id)
	return nil
}

type mockReviewRepo struct {
	reviews  map[string]*model.Review
	comments map[string]*model.Comment
	seq      int
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{
		reviews:  make(map[string]*model.Review),
		comments: make(map[string]*model.Comment),
	}
}

func (m *mockReviewRepo) Create(_ context.Context, review *model.Review) error {
	for _, r := range m.reviews {
		if r.TitleID == review.TitleID && r.AuthorID == review.AuthorID {
			return apperror.Conflict("you have already reviewed this title")
		}
	}
	m.seq++
	review.ID = fmt.Sprintf("review-%d", m.seq)
	clone := *review
	m.reviews[review.ID] = &clone
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id string) (*model.Review, error) {
	if r, ok := m.reviews[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, apperror.NotFound("review", id)
}

func (m *mockReviewRepo) GetByTitleAndAuthor(_ context.Context, titleID, authorID string) (*model.Review, error) {
	for _, r := range m.reviews {
		if r.TitleID == titleID && r.AuthorID == authorID {
			clone := *r
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("review", titleID)
}

func (m *mockReviewRepo) ListByTitle(_ context.Context, titleID string) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.TitleID == titleID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) Update(_ context.Context, review *model.Review) error {
	r, ok := m.reviews[review.ID]
	if !ok {
		return apperror.NotFound("review", review.ID)
	}
	r.Text = review.Text
	r.Score = review.Score
	return nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.reviews[id]; !ok {
		return apperror.NotFound("review", id)
	}
	delete(m.reviews, id)
	for cid, c := range m.comments {
		if c.ReviewID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m *mockReviewRepo) CreateComment(_ context.Context, comment *model.Comment) error {
	m.seq++
	comment.ID = fmt.Sprintf("comment-%d", m.seq)
	clone := *comment
	m.comments[comment.ID] = &clone
	return nil
}

func (m *mockReviewRepo) GetCommentByID(_ context.Context, id string) (*model.Comment, error) {
	if c, ok := m.comments[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, apperror.NotFound("comment", id)
}

func (m *mockReviewRepo) ListCommentsByReview(_ context.Context, reviewID string) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range m.comments {
		if c.ReviewID == reviewID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) UpdateComment(_ context.Context, comment *model.Comment) error {
	c, ok := m.comments[comment.ID]
	if !ok {
		return apperror.NotFound("comment", comment.ID)
	}
	c.Text = comment.Text
	return nil
}

func (m *mockReviewRepo) DeleteComment(_ context.Context, id string) error {
	if _, ok := m.comments[id]; !ok {
		return apperror.NotFound("comment", id)
	}
	delete(m.comments, id)
	return nil
}

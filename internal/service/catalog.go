package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"
	"github.com/sakif/reviewdb/internal/permission"
	"github.com/sakif/reviewdb/internal/repository"
)

// slugPattern matches the URL-safe identifiers accepted for categories
// and genres.
var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

const (
	maxResourceNameLength = 256
	maxSlugLength         = 50
)

// SlugResourceService handles a named, slug-addressed catalog resource.
// Categories and genres share the exact same behavior, so there is one
// generic service with two instantiations in the server wiring.
//
// Reads are public; writes require the admin role.
type SlugResourceService[T any] struct {
	repo     repository.SlugRepository[T]
	resource string
	build    func(name, slug string) *T
	logger   *slog.Logger
}

// NewSlugResourceService creates a service over the given slug store.
// The resource name is used in logs and error messages ("category",
// "genre"); the build function constructs the concrete entity, the one
// thing generic code cannot do itself.
func NewSlugResourceService[T any](
	repo repository.SlugRepository[T],
	resource string,
	build func(name, slug string) *T,
	logger *slog.Logger,
) *SlugResourceService[T] {
	return &SlugResourceService[T]{repo: repo, resource: resource, build: build, logger: logger}
}

// Create validates and stores a new resource. Admin only.
func (s *SlugResourceService[T]) Create(ctx context.Context, caller *model.User, name, slug string) (*T, error) {
	if err := permission.CatalogWrite(caller); err != nil {
		return nil, err
	}
	if err := validateResourceName(name); err != nil {
		return nil, err
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}

	item := s.build(name, slug)
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("catalog resource created",
		slog.String("resource", s.resource),
		slog.String("slug", slug),
		slog.String("by", caller.Username),
	)
	return item, nil
}

// List returns all resources. Public.
func (s *SlugResourceService[T]) List(ctx context.Context) ([]T, error) {
	return s.repo.List(ctx)
}

// Delete removes the resource addressed by slug. Admin only.
func (s *SlugResourceService[T]) Delete(ctx context.Context, caller *model.User, slug string) error {
	if err := permission.CatalogWrite(caller); err != nil {
		return err
	}
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		return err
	}

	s.logger.Info("catalog resource deleted",
		slog.String("resource", s.resource),
		slog.String("slug", slug),
		slog.String("by", caller.Username),
	)
	return nil
}

// TitleInput carries the mutable fields of a title. Nil pointers mean
// "leave unchanged" on update; Create requires name and year. Category
// and genres arrive as slugs and are resolved to IDs before storage.
type TitleInput struct {
	Name         *string
	Year         *int
	Description  *string
	CategorySlug *string
	GenreSlugs   []string
}

// TitleService manages titles: the works users review. Genre and
// category references are validated against the catalog on every write.
type TitleService struct {
	titles     repository.TitleRepository
	categories repository.SlugRepository[model.Category]
	genres     repository.SlugRepository[model.Genre]
	logger     *slog.Logger
	now        func() time.Time
}

// NewTitleService creates a TitleService with all required dependencies.
func NewTitleService(
	titles repository.TitleRepository,
	categories repository.SlugRepository[model.Category],
	genres repository.SlugRepository[model.Genre],
	logger *slog.Logger,
) *TitleService {
	return &TitleService{
		titles:     titles,
		categories: categories,
		genres:     genres,
		logger:     logger,
		now:        time.Now,
	}
}

// Create validates and stores a new title. Admin only. The release year
// must not be in the future.
func (s *TitleService) Create(ctx context.Context, caller *model.User, input TitleInput) (*model.TitleDetail, error) {
	if err := permission.CatalogWrite(caller); err != nil {
		return nil, err
	}
	if input.Name == nil {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if input.Year == nil {
		return nil, apperror.ValidationFailed("year", "year is required")
	}

	title := &model.Title{}
	if err := s.applyInput(ctx, title, input); err != nil {
		return nil, err
	}
	genreIDs, err := s.resolveGenres(ctx, input.GenreSlugs)
	if err != nil {
		return nil, err
	}
	if genreIDs == nil {
		genreIDs = []string{}
	}

	if err := s.titles.Create(ctx, title, genreIDs); err != nil {
		return nil, err
	}

	s.logger.Info("title created",
		slog.String("titleID", title.ID),
		slog.String("name", title.Name),
		slog.String("by", caller.Username),
	)
	return s.titles.Get(ctx, title.ID)
}

// Get returns a single title with its resolved category, genres and
// aggregate rating. Public.
func (s *TitleService) Get(ctx context.Context, id string) (*model.TitleDetail, error) {
	return s.titles.Get(ctx, id)
}

// List returns all titles. Public.
func (s *TitleService) List(ctx context.Context) ([]model.TitleDetail, error) {
	return s.titles.List(ctx)
}

// Update applies the provided fields to an existing title, leaving the
// rest untouched. Admin only.
func (s *TitleService) Update(ctx context.Context, caller *model.User, id string, input TitleInput) (*model.TitleDetail, error) {
	if err := permission.CatalogWrite(caller); err != nil {
		return nil, err
	}

	existing, err := s.titles.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	title := existing.Flat()
	if err := s.applyInput(ctx, title, input); err != nil {
		return nil, err
	}
	// nil genre slugs means keep the current set, which the repository
	// expresses as a nil ID slice.
	genreIDs, err := s.resolveGenres(ctx, input.GenreSlugs)
	if err != nil {
		return nil, err
	}

	if err := s.titles.Update(ctx, title, genreIDs); err != nil {
		return nil, err
	}

	s.logger.Info("title updated",
		slog.String("titleID", id),
		slog.String("by", caller.Username),
	)
	return s.titles.Get(ctx, id)
}

// Delete removes a title and, via the schema, its reviews and comments.
// Admin only.
func (s *TitleService) Delete(ctx context.Context, caller *model.User, id string) error {
	if err := permission.CatalogWrite(caller); err != nil {
		return err
	}
	if err := s.titles.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("title deleted",
		slog.String("titleID", id),
		slog.String("by", caller.Username),
	)
	return nil
}

// applyInput copies the present fields of input onto title, validating
// each as it goes.
func (s *TitleService) applyInput(ctx context.Context, title *model.Title, input TitleInput) error {
	if input.Name != nil {
		if err := validateResourceName(*input.Name); err != nil {
			return err
		}
		title.Name = *input.Name
	}
	if input.Year != nil {
		if *input.Year > s.now().Year() {
			return apperror.ValidationFailed("year", "year must not be in the future")
		}
		title.Year = *input.Year
	}
	if input.Description != nil {
		title.Description = *input.Description
	}
	if input.CategorySlug != nil {
		if *input.CategorySlug == "" {
			title.CategoryID = ""
			return nil
		}
		category, err := s.categories.GetBySlug(ctx, *input.CategorySlug)
		if err != nil {
			return err
		}
		title.CategoryID = category.ID
	}
	return nil
}

// resolveGenres maps genre slugs to IDs, preserving nil (= unchanged).
func (s *TitleService) resolveGenres(ctx context.Context, slugs []string) ([]string, error) {
	if slugs == nil {
		return nil, nil
	}
	ids := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		genre, err := s.genres.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		ids = append(ids, genre.ID)
	}
	return ids, nil
}

func validateResourceName(name string) error {
	if name == "" {
		return apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > maxResourceNameLength {
		return apperror.ValidationFailed("name", fmt.Sprintf("name must be at most %d characters", maxResourceNameLength))
	}
	return nil
}

func validateSlug(slug string) error {
	if slug == "" {
		return apperror.ValidationFailed("slug", "slug is required")
	}
	if len(slug) > maxSlugLength {
		return apperror.ValidationFailed("slug", fmt.Sprintf("slug must be at most %d characters", maxSlugLength))
	}
	if !slugPattern.MatchString(slug) {
		return apperror.ValidationFailed("slug", "slug may contain only letters, digits, hyphens and underscores")
	}
	return nil
}

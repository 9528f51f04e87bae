package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"
	"github.com/sakif/reviewdb/internal/repository"
)

// compile-time check that *TitleStore implements repository.TitleRepository
var _ repository.TitleRepository = (*TitleStore)(nil)

// TitleStore stores titles, their genre links, and computes the expanded
// read representation (resolved category/genres plus the rating aggregate).
type TitleStore struct {
	conn *sql.DB
}

// The rating subquery: average review score rounded to the nearest
// integer, NULL while the title has no reviews. ROUND in SQLite rounds
// half away from zero, which is the behavior the API promises.
const titleSelect = `
	SELECT t.id, t.name, t.year, t.description,
	       c.id, c.name, c.slug,
	       (SELECT CAST(ROUND(AVG(r.score)) AS INTEGER) FROM reviews r WHERE r.title_id = t.id)
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id`

// Create inserts the title and its genre links in one transaction so a
// half-linked title can never be observed.
func (s *TitleStore) Create(ctx context.Context, title *model.Title, genreIDs []string) error {
	if title.ID == "" {
		title.ID = xid.New().String()
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning title insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO titles (id, name, year, description, category_id)
		 VALUES (?, ?, ?, ?, ?)`,
		title.ID,
		title.Name,
		title.Year,
		title.Description,
		nullable(title.CategoryID),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting title %s: %w", title.Name, err)
	}

	if err := replaceGenres(ctx, tx, title.ID, genreIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing title insert: %w", err)
	}
	return nil
}

// Get returns the expanded representation of one title.
func (s *TitleStore) Get(ctx context.Context, id string) (*model.TitleDetail, error) {
	row := s.conn.QueryRowContext(ctx, titleSelect+` WHERE t.id = ?`, id)

	detail, err := scanTitleDetail(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("title", id)
		}
		return nil, fmt.Errorf("sqlite: getting title %s: %w", id, err)
	}

	if err := s.attachGenres(ctx, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns the expanded representation of every title, newest works
// first (by publication year, like the original catalog ordering).
func (s *TitleStore) List(ctx context.Context) ([]model.TitleDetail, error) {
	rows, err := s.conn.QueryContext(ctx, titleSelect+` ORDER BY t.year DESC, t.name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing titles: %w", err)
	}
	defer rows.Close()

	var details []model.TitleDetail
	for rows.Next() {
		detail, err := scanTitleDetail(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning title row: %w", err)
		}
		details = append(details, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating titles: %w", err)
	}

	for i := range details {
		if err := s.attachGenres(ctx, &details[i]); err != nil {
			return nil, err
		}
	}

	return details, nil
}

// Update rewrites the title row; a non-nil genreIDs replaces the genre
// set, nil leaves the existing links alone.
func (s *TitleStore) Update(ctx context.Context, title *model.Title, genreIDs []string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning title update: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE titles SET name = ?, year = ?, description = ?, category_id = ?
		 WHERE id = ?`,
		title.Name,
		title.Year,
		title.Description,
		nullable(title.CategoryID),
		title.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating title %s: %w", title.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("title", title.ID)
	}

	if genreIDs != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM title_genres WHERE title_id = ?`, title.ID); err != nil {
			return fmt.Errorf("sqlite: clearing genres for title %s: %w", title.ID, err)
		}
		if err := replaceGenres(ctx, tx, title.ID, genreIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing title update: %w", err)
	}
	return nil
}

// Delete removes a title. Its reviews (and their comments) cascade away;
// its category is untouched.
func (s *TitleStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM titles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting title %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("title", id)
	}

	return nil
}

// AddGenre links one genre to a title outside the usual create/update
// path. Used by the CSV loader, which gets the links as their own file.
func (s *TitleStore) AddGenre(ctx context.Context, titleID, genreID string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO title_genres (title_id, genre_id) VALUES (?, ?)`,
		titleID, genreID)
	if err != nil {
		return fmt.Errorf("sqlite: linking genre %s to title %s: %w", genreID, titleID, err)
	}
	return nil
}

func replaceGenres(ctx context.Context, tx *sql.Tx, titleID string, genreIDs []string) error {
	for _, genreID := range genreIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO title_genres (title_id, genre_id) VALUES (?, ?)`,
			titleID, genreID); err != nil {
			return fmt.Errorf("sqlite: linking genre %s to title %s: %w", genreID, titleID, err)
		}
	}
	return nil
}

// scanTitleDetail reads one row of titleSelect. The category columns and
// the rating aggregate are nullable, so they go through sql.Null* first.
func scanTitleDetail(scan func(...any) error) (*model.TitleDetail, error) {
	var (
		d            model.TitleDetail
		categoryID   sql.NullString
		categoryName sql.NullString
		categorySlug sql.NullString
		rating       sql.NullInt64
	)
	if err := scan(
		&d.ID, &d.Name, &d.Year, &d.Description,
		&categoryID, &categoryName, &categorySlug,
		&rating,
	); err != nil {
		return nil, err
	}

	if categoryID.Valid {
		d.Category = &model.Category{
			ID:   categoryID.String,
			Name: categoryName.String,
			Slug: categorySlug.String,
		}
	}
	if rating.Valid {
		r := int(rating.Int64)
		d.Rating = &r
	}
	return &d, nil
}

// attachGenres fills in the resolved genre objects for one title.
func (s *TitleStore) attachGenres(ctx context.Context, detail *model.TitleDetail) error {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT g.id, g.name, g.slug
		 FROM title_genres tg
		 JOIN genres g ON g.id = tg.genre_id
		 WHERE tg.title_id = ?
		 ORDER BY g.name`,
		detail.ID)
	if err != nil {
		return fmt.Errorf("sqlite: loading genres for title %s: %w", detail.ID, err)
	}
	defer rows.Close()

	detail.Genres = []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug); err != nil {
			return fmt.Errorf("sqlite: scanning genre row: %w", err)
		}
		detail.Genres = append(detail.Genres, g)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating genres for title %s: %w", detail.ID, err)
	}
	return nil
}

// nullable maps an empty string to SQL NULL for optional foreign keys.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

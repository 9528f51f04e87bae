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

// compile-time checks that the instantiations implement the interface
var (
	_ repository.SlugRepository[model.Category] = (*SlugTable[model.Category])(nil)
	_ repository.SlugRepository[model.Genre]    = (*SlugTable[model.Genre])(nil)
)

// SlugTable is the single implementation behind both the category and the
// genre store. The two resources have identical shape (id, name, unique
// slug) and identical operations (create, list, delete-by-slug), so the
// table is generic over the entity type; the fields accessor bridges the
// concrete struct's fields to the shared SQL.
type SlugTable[T any] struct {
	conn     *sql.DB
	table    string // "categories" | "genres"
	resource string // singular, for error messages
	fields   func(*T) (id, name, slug *string)
}

func newSlugTable[T any](conn *sql.DB, table, resource string, fields func(*T) (id, name, slug *string)) *SlugTable[T] {
	return &SlugTable[T]{conn: conn, table: table, resource: resource, fields: fields}
}

// Create inserts a new entity, generating an xid unless one is pre-set.
// A duplicate slug comes back as Conflict.
func (t *SlugTable[T]) Create(ctx context.Context, entity *T) error {
	id, name, slug := t.fields(entity)
	if *id == "" {
		*id = xid.New().String()
	}

	_, err := t.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, name, slug) VALUES (?, ?, ?)`, t.table),
		*id, *name, *slug,
	)
	if err != nil {
		if isUniqueViolation(err, t.table+".slug") {
			return conflict(t.resource + " slug already in use")
		}
		return fmt.Errorf("sqlite: inserting %s %s: %w", t.resource, *slug, err)
	}

	return nil
}

// List returns all entities ordered by name, matching the read-mostly
// reference-data usage.
func (t *SlugTable[T]) List(ctx context.Context) ([]T, error) {
	rows, err := t.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, name, slug FROM %s ORDER BY name`, t.table))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", t.table, err)
	}
	defer rows.Close()

	var entities []T
	for rows.Next() {
		var e T
		id, name, slug := t.fields(&e)
		if err := rows.Scan(id, name, slug); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", t.resource, err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s: %w", t.table, err)
	}

	return entities, nil
}

// GetBySlug returns the entity with the given slug.
func (t *SlugTable[T]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	var e T
	id, name, slugField := t.fields(&e)
	err := t.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, name, slug FROM %s WHERE slug = ?`, t.table),
		slug,
	).Scan(id, name, slugField)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound(t.resource, slug)
		}
		return nil, fmt.Errorf("sqlite: getting %s %s: %w", t.resource, slug, err)
	}
	return &e, nil
}

// DeleteBySlug removes the entity. Foreign keys do the rest: deleting a
// category sets dependent titles' category_id to NULL, deleting a genre
// removes its title links.
func (t *SlugTable[T]) DeleteBySlug(ctx context.Context, slug string) error {
	result, err := t.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE slug = ?`, t.table), slug)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %s: %w", t.resource, slug, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(t.resource, slug)
	}

	return nil
}

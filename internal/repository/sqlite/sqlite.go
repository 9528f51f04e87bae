// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed
// and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
//
// The schema carries the platform's integrity rules so that concurrent
// writers are correct without in-process locks:
//   - UNIQUE(username), UNIQUE(email) on users
//   - UNIQUE(title_id, author_id) on reviews (one review per user per title)
//   - ON DELETE SET NULL from titles to categories (category deletion
//     never cascades into titles)
//   - ON DELETE CASCADE everywhere content hangs off its parent
// Constraint violations reported by the store are translated into the
// apperror taxonomy here, so callers see a clean Conflict.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sakif/reviewdb/internal/apperror"
	"github.com/sakif/reviewdb/internal/model"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out the per-entity stores.
// All stores share the one pool; the server owns the DB and closes it on
// shutdown.
type DB struct {
	conn *sql.DB

	users      *UserStore
	categories *SlugTable[model.Category]
	genres     *SlugTable[model.Genre]
	titles     *TitleStore
	reviews    *ReviewStore
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
//
// Pragmas travel in the DSN so the driver re-applies them on EVERY pooled
// connection. Running them via Exec would configure only whichever
// connection happened to serve that call:
//   - journal_mode=WAL: concurrent reads while a write is in progress
//   - foreign_keys=1: OFF by default in SQLite, and the cascade / SET NULL
//     behavior the platform depends on only works with it on
//   - busy_timeout: writers wait instead of failing with SQLITE_BUSY
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" would get its own empty database, so
	// in-memory mode pins the pool to a single connection.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Fail fast on a bad path or permissions rather than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	db.users = &UserStore{conn: conn}
	db.categories = newSlugTable[model.Category](conn, "categories", "category",
		func(c *model.Category) (*string, *string, *string) { return &c.ID, &c.Name, &c.Slug })
	db.genres = newSlugTable[model.Genre](conn, "genres", "genre",
		func(g *model.Genre) (*string, *string, *string) { return &g.ID, &g.Name, &g.Slug })
	db.titles = &TitleStore{conn: conn}
	db.reviews = &ReviewStore{conn: conn}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the identity store.
func (db *DB) Users() *UserStore { return db.users }

// Categories returns the category store.
func (db *DB) Categories() *SlugTable[model.Category] { return db.categories }

// Genres returns the genre store.
func (db *DB) Genres() *SlugTable[model.Genre] { return db.genres }

// Titles returns the title store.
func (db *DB) Titles() *TitleStore { return db.titles }

// Reviews returns the review/comment store.
func (db *DB) Reviews() *ReviewStore { return db.reviews }

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent —
// safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			username     TEXT NOT NULL UNIQUE,
			email        TEXT NOT NULL UNIQUE,
			first_name   TEXT NOT NULL DEFAULT '',
			last_name    TEXT NOT NULL DEFAULT '',
			bio          TEXT NOT NULL DEFAULT '',
			role         TEXT NOT NULL DEFAULT 'user',
			is_superuser INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS confirmation_codes (
			user_id    TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			code       TEXT NOT NULL,
			expires_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS categories (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS genres (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS titles (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			year        INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category_id TEXT REFERENCES categories(id) ON DELETE SET NULL
		);
		CREATE INDEX IF NOT EXISTS idx_titles_category_id ON titles(category_id);

		CREATE TABLE IF NOT EXISTS title_genres (
			title_id TEXT NOT NULL REFERENCES titles(id) ON DELETE CASCADE,
			genre_id TEXT NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
			PRIMARY KEY (title_id, genre_id)
		);

		CREATE TABLE IF NOT EXISTS reviews (
			id         TEXT PRIMARY KEY,
			title_id   TEXT NOT NULL REFERENCES titles(id) ON DELETE CASCADE,
			author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text       TEXT NOT NULL,
			score      INTEGER NOT NULL CHECK (score BETWEEN 1 AND 10),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (title_id, author_id)
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_title_id ON reviews(title_id);

		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			review_id  TEXT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
			author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_review_id ON comments(review_id);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is the UNIQUE-constraint failure
// for the given "table.column" (or the composite constraint's first
// column). The modernc driver surfaces SQLite's extended error text, e.g.
// "constraint failed: UNIQUE constraint failed: users.username".
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// conflict translates a storage uniqueness violation into the domain
// Conflict error. Per the concurrency model, a constraint violation from
// the store is a definitive signal, not a crash.
func conflict(message string) error {
	return apperror.Conflict(message)
}

// Package main seeds the database from CSV files, the format the review
// dataset ships in. Seven files, loaded parents-first so the foreign
// keys resolve:
//
//	users.csv        id,username,email,role,bio,first_name,last_name
//	category.csv     id,name,slug
//	genre.csv        id,name,slug
//	titles.csv       id,name,year,category
//	genre_title.csv  id,title_id,genre_id
//	review.csv       id,title_id,text,author,score,pub_date
//	comments.csv     id,review_id,text,author,pub_date
//
// Usage:
//
//	go run ./cmd/loadcsv -db data/reviewdb.db -dir data/csv
//
// The loader talks to the concrete sqlite store, not the service layer:
// seeding bypasses permissions and preserves the CSV row IDs, so an
// already-seeded database can be reloaded idempotently by wiping first.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/reviewdb/internal/model"
	sqliteRepo "github.com/sakif/reviewdb/internal/repository/sqlite"
)

func main() {
	dbPath := flag.String("db", "data/reviewdb.db", "path to the SQLite database")
	dir := flag.String("dir", "data/csv", "directory containing the CSV files")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := sqliteRepo.New(*dbPath)
	if err != nil {
		logger.Error("opening database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	loader := &loader{db: db, dir: *dir, logger: logger}
	if err := loader.run(context.Background()); err != nil {
		logger.Error("load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("load complete")
}

type loader struct {
	db     *sqliteRepo.DB
	dir    string
	logger *slog.Logger
}

// run loads every file in dependency order. A missing file is skipped
// with a warning so partial datasets still load.
func (l *loader) run(ctx context.Context) error {
	steps := []struct {
		file string
		fn   func(context.Context, []string) error
	}{
		{"users.csv", l.loadUser},
		{"category.csv", l.loadCategory},
		{"genre.csv", l.loadGenre},
		{"titles.csv", l.loadTitle},
		{"genre_title.csv", l.loadGenreLink},
		{"review.csv", l.loadReview},
		{"comments.csv", l.loadComment},
	}

	for _, step := range steps {
		if err := l.loadFile(ctx, step.file, step.fn); err != nil {
			return err
		}
	}
	return nil
}

// loadFile streams one CSV file row by row through fn. The first row is
// the header and is skipped.
func (l *loader) loadFile(ctx context.Context, name string, fn func(context.Context, []string) error) error {
	path := filepath.Join(l.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("file missing, skipping", slog.String("file", name))
			return nil
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are tolerated, handlers index defensively

	rows := 0
	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s line %d: %w", name, line+1, err)
		}
		if line == 0 {
			continue // header
		}
		if err := fn(ctx, record); err != nil {
			return fmt.Errorf("%s line %d: %w", name, line+1, err)
		}
		rows++
	}

	l.logger.Info("loaded", slog.String("file", name), slog.Int("rows", rows))
	return nil
}

func (l *loader) loadUser(ctx context.Context, rec []string) error {
	if len(rec) < 4 {
		return fmt.Errorf("expected at least 4 fields, got %d", len(rec))
	}
	user := &model.User{
		ID:       rec[0],
		Username: rec[1],
		Email:    rec[2],
		Role:     model.Role(rec[3]),
	}
	if len(rec) > 4 {
		user.Bio = rec[4]
	}
	if len(rec) > 5 {
		user.FirstName = rec[5]
	}
	if len(rec) > 6 {
		user.LastName = rec[6]
	}
	if !user.Role.Valid() {
		return fmt.Errorf("unknown role %q for user %s", rec[3], user.Username)
	}
	return l.db.Users().Create(ctx, user)
}

func (l *loader) loadCategory(ctx context.Context, rec []string) error {
	if len(rec) < 3 {
		return fmt.Errorf("expected 3 fields, got %d", len(rec))
	}
	return l.db.Categories().Create(ctx, &model.Category{ID: rec[0], Name: rec[1], Slug: rec[2]})
}

func (l *loader) loadGenre(ctx context.Context, rec []string) error {
	if len(rec) < 3 {
		return fmt.Errorf("expected 3 fields, got %d", len(rec))
	}
	return l.db.Genres().Create(ctx, &model.Genre{ID: rec[0], Name: rec[1], Slug: rec[2]})
}

func (l *loader) loadTitle(ctx context.Context, rec []string) error {
	if len(rec) < 4 {
		return fmt.Errorf("expected 4 fields, got %d", len(rec))
	}
	year, err := strconv.Atoi(rec[2])
	if err != nil {
		return fmt.Errorf("invalid year %q: %w", rec[2], err)
	}
	title := &model.Title{
		ID:         rec[0],
		Name:       rec[1],
		Year:       year,
		CategoryID: rec[3],
	}
	return l.db.Titles().Create(ctx, title, nil)
}

func (l *loader) loadGenreLink(ctx context.Context, rec []string) error {
	if len(rec) < 3 {
		return fmt.Errorf("expected 3 fields, got %d", len(rec))
	}
	return l.db.Titles().AddGenre(ctx, rec[1], rec[2])
}

func (l *loader) loadReview(ctx context.Context, rec []string) error {
	if len(rec) < 5 {
		return fmt.Errorf("expected at least 5 fields, got %d", len(rec))
	}
	score, err := strconv.Atoi(rec[4])
	if err != nil {
		return fmt.Errorf("invalid score %q: %w", rec[4], err)
	}
	review := &model.Review{
		ID:       rec[0],
		TitleID:  rec[1],
		Text:     rec[2],
		AuthorID: rec[3],
		Score:    score,
	}
	if len(rec) > 5 {
		review.CreatedAt = parseTime(rec[5])
	}
	return l.db.Reviews().Create(ctx, review)
}

func (l *loader) loadComment(ctx context.Context, rec []string) error {
	if len(rec) < 4 {
		return fmt.Errorf("expected at least 4 fields, got %d", len(rec))
	}
	comment := &model.Comment{
		ID:       rec[0],
		ReviewID: rec[1],
		Text:     rec[2],
		AuthorID: rec[3],
	}
	if len(rec) > 4 {
		comment.CreatedAt = parseTime(rec[4])
	}
	return l.db.Reviews().CreateComment(ctx, comment)
}

// parseTime accepts the RFC 3339 timestamps the dataset uses. A value
// that doesn't parse becomes the zero time, which the store replaces
// with now.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

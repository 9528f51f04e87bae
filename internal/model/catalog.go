package model

// Category groups titles by kind of work (books, films, music, ...).
// The slug is the unique, immutable identifier used in URLs.
type Category struct {
	ID   string `json:"-"    db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Genre is read-heavy reference data, same shape as Category.
type Genre struct {
	ID   string `json:"-"    db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Title is a reviewable work. CategoryID is empty when the title has no
// category (including after its category was deleted — category deletion
// nulls the reference, it never cascades to titles).
type Title struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Year        int    `db:"year"`
	Description string `db:"description"`
	CategoryID  string `db:"category_id"`
}

// TitleDetail is the expanded representation returned by list/retrieve:
// the category and genres resolved to full objects, plus the computed
// rating — the average review score rounded to the nearest integer, or
// null when the title has no reviews yet.
type TitleDetail struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Year        int       `json:"year"`
	Description string    `json:"description,omitempty"`
	Genres      []Genre   `json:"genre"`
	Category    *Category `json:"category"`
	Rating      *int      `json:"rating"`
}

// Flat returns the underlying Title row for partial updates.
func (d *TitleDetail) Flat() *Title {
	t := &Title{
		ID:          d.ID,
		Name:        d.Name,
		Year:        d.Year,
		Description: d.Description,
	}
	if d.Category != nil {
		t.CategoryID = d.Category.ID
	}
	return t
}

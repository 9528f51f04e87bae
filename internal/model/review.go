package model

import "time"

// Review score bounds. A score is a 1..10 rating of the title.
const (
	MinScore = 1
	MaxScore = 10
)

// Review is a user's opinion of a title. At most one review may exist per
// (title, author) pair — enforced both by a pre-insert check in the service
// layer and a UNIQUE constraint in storage.
//
// Author is the author's username, resolved on read for serialization.
// AuthorID is the stable reference; updates must preserve it so that a
// moderator editing a review does not become its author.
type Review struct {
	ID        string    `json:"id"`
	TitleID   string    `json:"-"`
	AuthorID  string    `json:"-"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"pub_date"`
}

// Comment is attached to a review and cascades away with it.
type Comment struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"-"`
	AuthorID  string    `json:"-"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"pub_date"`
}

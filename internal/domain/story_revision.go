package domain

import "time"

// StoryRevision is an immutable snapshot of a StoryContent taken before an edit.
type StoryRevision struct {
	ID             int64     `db:"id"`
	StoryContentID int64     `db:"story_content_id"`
	UserID         *int64    `db:"user_id"`
	Revision       int       `db:"revision"`
	Title          string    `db:"title"`
	Excerpt        *string   `db:"excerpt"`
	Body           string    `db:"body"`
	Note           *string   `db:"note"`
	CreatedAt      time.Time `db:"created_at"`
}

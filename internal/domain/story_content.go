package domain

import "time"

// StoryContent is one language version of a story.
type StoryContent struct {
	ID          int64             `db:"id"`
	StoryID     int64             `db:"story_id"`
	UserID      int64             `db:"user_id"`
	Language    string            `db:"language"`
	Title       string            `db:"title"`
	Excerpt     *string           `db:"excerpt"`
	Body        string            `db:"body"`
	Status      PublicationStatus `db:"status"`
	PublishedAt *time.Time        `db:"published_at"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
}

// SubmitForReview moves a draft into review.
func (c *StoryContent) SubmitForReview() error {
	return submitForReview("story content", &c.Status)
}

// Publish marks the content published at now. Publishing already
// published content keeps its original timestamp.
func (c *StoryContent) Publish(now time.Time) error {
	return publish("story content", &c.Status, &c.PublishedAt, now)
}

// Unpublish returns published content to draft and clears PublishedAt.
func (c *StoryContent) Unpublish() error {
	return unpublish("story content", &c.Status, &c.PublishedAt)
}

// Reject refuses content that is pending review.
func (c *StoryContent) Reject() error {
	return reject("story content", &c.Status)
}

// Redraft reopens rejected content for editing.
func (c *StoryContent) Redraft() error {
	return redraft("story content", &c.Status)
}

// IsPublished reports whether the content is visible to readers.
func (c *StoryContent) IsPublished() bool {
	return c.Status == StatusPublished && c.PublishedAt != nil
}

// Snapshot captures the editable text of the content as the next revision.
func (c *StoryContent) Snapshot(number int, editorID *int64, note *string) StoryRevision {
	return StoryRevision{
		StoryContentID: c.ID,
		UserID:         editorID,
		Revision:       number,
		Title:          c.Title,
		Excerpt:        c.Excerpt,
		Body:           c.Body,
		Note:           note,
	}
}

// Restore copies a revision's text back onto the content.
func (c *StoryContent) Restore(r StoryRevision) {
	c.Title = r.Title
	c.Excerpt = r.Excerpt
	c.Body = r.Body
}

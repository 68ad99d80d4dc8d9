package domain

import "time"

// Story is the language-independent record of a story. Its text lives in
// one StoryContent per language; OriginalLanguage names the authoritative one.
type Story struct {
	ID               int64             `db:"id"`
	UserID           int64             `db:"user_id"`
	CategoryID       int64             `db:"category_id"`
	OriginalLanguage string            `db:"original_language"`
	Status           PublicationStatus `db:"status"`
	PublishedAt      *time.Time        `db:"published_at"`
	CreatedAt        time.Time         `db:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at"`
}

// SubmitForReview moves a draft into the review queue.
func (s *Story) SubmitForReview() error {
	return submitForReview("story", &s.Status)
}

// Publish marks the story published at now. Publishing an already
// published story keeps its original timestamp.
func (s *Story) Publish(now time.Time) error {
	return publish("story", &s.Status, &s.PublishedAt, now)
}

// Unpublish returns a published story to draft and clears published_at.
func (s *Story) Unpublish() error {
	return unpublish("story", &s.Status, &s.PublishedAt)
}

// Reject refuses a story that is pending review.
func (s *Story) Reject() error {
	return reject("story", &s.Status)
}

// Redraft reopens a rejected story for editing.
func (s *Story) Redraft() error {
	return redraft("story", &s.Status)
}

// IsPublished reports whether the story is visible to readers.
func (s *Story) IsPublished() bool {
	return s.Status == StatusPublished && s.PublishedAt != nil
}

// IsOriginal reports whether language is the story's original language.
func (s *Story) IsOriginal(language string) bool {
	return s.OriginalLanguage == language
}

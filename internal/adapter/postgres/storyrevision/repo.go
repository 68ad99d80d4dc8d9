// Package storyrevision persists the immutable text snapshots of story contents.
package storyrevision

import (
	"context"
	"fmt"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/record"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/schema"
	"github.com/polascin/renaltales-backend/internal/domain"
)

// Model is a tracked revision.
type Model = record.Model[domain.StoryRevision]

// Repo records and reads revisions. Revisions are never updated, so the
// generic write surface is not exposed.
type Repo struct {
	records *record.Repository[domain.StoryRevision]

	Content record.BelongsTo[domain.StoryRevision, domain.StoryContent]
	Editor  record.BelongsTo[domain.StoryRevision, domain.User]
}

// New creates a new revision repository.
func New(db postgres.DB, opts record.Options) *Repo {
	return &Repo{
		records: record.NewRepository(db, schema.StoryRevisions, opts),
		Content: record.BelongsTo[domain.StoryRevision, domain.StoryContent]{
			Name:   "content",
			Key:    func(r *domain.StoryRevision) *int64 { return &r.StoryContentID },
			Target: record.NewRepository(db, schema.StoryContents, opts),
		},
		Editor: record.BelongsTo[domain.StoryRevision, domain.User]{
			Name:   "editor",
			Key:    func(r *domain.StoryRevision) *int64 { return r.UserID },
			Target: record.NewRepository(db, schema.Users, opts),
		},
	}
}

// Find returns a revision by identity.
func (r *Repo) Find(ctx context.Context, id int64) (*Model, error) {
	return r.records.Find(ctx, id)
}

// ForContent returns the revisions of one content, oldest first.
func (r *Repo) ForContent(ctx context.Context, contentID int64) ([]*Model, error) {
	return r.records.Where(ctx, record.Criteria{"story_content_id": contentID})
}

// At returns revision number n of one content.
func (r *Repo) At(ctx context.Context, contentID int64, n int) (*Model, error) {
	found, err := r.records.Where(ctx, record.Criteria{
		"story_content_id": contentID,
		"revision":         n,
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("story_content %d revision %d: %w", contentID, n, domain.ErrNotFound)
	}
	return found[0], nil
}

// Record stores the current text of content as its next revision.
// Concurrent writers racing for the same number hit the unique index and
// the loser gets domain.ErrAlreadyExists.
func (r *Repo) Record(ctx context.Context, content *domain.StoryContent, editorID *int64, note *string) (*Model, error) {
	if content.ID == 0 {
		return nil, fmt.Errorf("record revision: %w", domain.ErrNotPersisted)
	}
	n, err := r.records.Count(ctx, record.Criteria{"story_content_id": content.ID})
	if err != nil {
		return nil, err
	}

	m := r.records.New(nil)
	*m.Entity = content.Snapshot(int(n)+1, editorID, note)
	if err := r.records.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

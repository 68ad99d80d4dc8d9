// Package story persists stories and their editorial workflow.
package story

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/record"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/schema"
	"github.com/polascin/renaltales-backend/internal/domain"
)

// Model is a tracked story.
type Model = record.Model[domain.Story]

// Repo provides story persistence backed by PostgreSQL.
type Repo struct {
	*record.Repository[domain.Story]

	log *slog.Logger

	Author   record.BelongsTo[domain.Story, domain.User]
	Category record.BelongsTo[domain.Story, domain.StoryCategory]
	Contents record.HasMany[domain.Story, domain.StoryContent]
	Comments record.HasMany[domain.Story, domain.Comment]
}

// New creates a new story repository.
func New(db postgres.DB, opts record.Options) *Repo {
	return &Repo{
		Repository: record.NewRepository(db, schema.Stories, opts),
		log:        opts.Log().With("repo", "story"),
		Author: record.BelongsTo[domain.Story, domain.User]{
			Name:   "author",
			Key:    func(s *domain.Story) *int64 { return &s.UserID },
			Target: record.NewRepository(db, schema.Users, opts),
		},
		Category: record.BelongsTo[domain.Story, domain.StoryCategory]{
			Name:   "category",
			Key:    func(s *domain.Story) *int64 { return &s.CategoryID },
			Target: record.NewRepository(db, schema.Categories, opts),
		},
		Contents: record.HasMany[domain.Story, domain.StoryContent]{
			Name:       "contents",
			ForeignKey: "story_id",
			Target:     record.NewRepository(db, schema.StoryContents, opts),
		},
		Comments: record.HasMany[domain.Story, domain.Comment]{
			Name:       "comments",
			ForeignKey: "story_id",
			Target:     record.NewRepository(db, schema.Comments, opts),
		},
	}
}

// Published returns every published story.
func (r *Repo) Published(ctx context.Context) ([]*Model, error) {
	return r.Where(ctx, record.Criteria{"status": domain.StatusPublished})
}

// InCategory returns the published stories of one category.
func (r *Repo) InCategory(ctx context.Context, categoryID int64) ([]*Model, error) {
	return r.Where(ctx, record.Criteria{
		"category_id": categoryID,
		"status":      domain.StatusPublished,
	})
}

// Translation returns the content of m in language, falling back to the
// original language when no such translation exists.
func (r *Repo) Translation(ctx context.Context, m *Model, language string) (*record.Model[domain.StoryContent], error) {
	contents, err := r.Contents.Resolve(ctx, m)
	if err != nil {
		return nil, err
	}
	var original *record.Model[domain.StoryContent]
	for _, c := range contents {
		switch c.Entity.Language {
		case language:
			return c, nil
		case m.Entity.OriginalLanguage:
			original = c
		}
	}
	if original == nil {
		return nil, fmt.Errorf("story %d: content %q: %w", m.ID(), language, domain.ErrNotFound)
	}
	return original, nil
}

// ---------------------------------------------------------------------------
// Workflow
// ---------------------------------------------------------------------------

// SubmitForReview moves a draft story into the review queue.
func (r *Repo) SubmitForReview(ctx context.Context, m *Model) error {
	return r.apply(ctx, m, "submit", (*domain.Story).SubmitForReview)
}

// Publish publishes the story now.
func (r *Repo) Publish(ctx context.Context, m *Model) error {
	now := r.Now()
	return r.apply(ctx, m, "publish", func(s *domain.Story) error { return s.Publish(now) })
}

// Unpublish returns a published story to draft.
func (r *Repo) Unpublish(ctx context.Context, m *Model) error {
	return r.apply(ctx, m, "unpublish", (*domain.Story).Unpublish)
}

// Reject refuses a story pending review.
func (r *Repo) Reject(ctx context.Context, m *Model) error {
	return r.apply(ctx, m, "reject", (*domain.Story).Reject)
}

// Redraft reopens a rejected story.
func (r *Repo) Redraft(ctx context.Context, m *Model) error {
	return r.apply(ctx, m, "redraft", (*domain.Story).Redraft)
}

func (r *Repo) apply(ctx context.Context, m *Model, action string, change func(*domain.Story) error) error {
	if err := r.Transition(ctx, m, change); err != nil {
		return fmt.Errorf("%s story %d: %w", action, m.ID(), err)
	}
	r.log.InfoContext(ctx, "story status changed",
		slog.Int64("story_id", m.ID()),
		slog.String("action", action),
		slog.String("status", m.Entity.Status.String()))
	return nil
}

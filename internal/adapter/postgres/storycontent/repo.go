// Package storycontent persists the per-language text of stories, its
// publication workflow and its revision history.
package storycontent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/record"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/schema"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/storyrevision"
	"github.com/polascin/renaltales-backend/internal/domain"
	"github.com/polascin/renaltales-backend/pkg/ctxutil"
)

// Model is a tracked story content.
type Model = record.Model[domain.StoryContent]

// Repo provides story content persistence backed by PostgreSQL.
type Repo struct {
	*record.Repository[domain.StoryContent]

	stories   *record.Repository[domain.Story]
	revisions *storyrevision.Repo
	tx        *postgres.TxManager
	log       *slog.Logger

	Story      record.BelongsTo[domain.StoryContent, domain.Story]
	Translator record.BelongsTo[domain.StoryContent, domain.User]
	Revisions  record.HasMany[domain.StoryContent, domain.StoryRevision]
}

// New creates a new story content repository.
func New(db postgres.DB, opts record.Options) *Repo {
	stories := record.NewRepository(db, schema.Stories, opts)
	return &Repo{
		Repository: record.NewRepository(db, schema.StoryContents, opts),
		stories:    stories,
		revisions:  storyrevision.New(db, opts),
		tx:         postgres.NewTxManager(db, opts.Log()),
		log:        opts.Log().With("repo", "storycontent"),
		Story: record.BelongsTo[domain.StoryContent, domain.Story]{
			Name:   "story",
			Key:    func(c *domain.StoryContent) *int64 { return &c.StoryID },
			Target: stories,
		},
		Translator: record.BelongsTo[domain.StoryContent, domain.User]{
			Name:   "translator",
			Key:    func(c *domain.StoryContent) *int64 { return &c.UserID },
			Target: record.NewRepository(db, schema.Users, opts),
		},
		Revisions: record.HasMany[domain.StoryContent, domain.StoryRevision]{
			Name:       "revisions",
			ForeignKey: "story_content_id",
			Target:     record.NewRepository(db, schema.StoryRevisions, opts),
		},
	}
}

// ForStory returns every language version of a story.
func (r *Repo) ForStory(ctx context.Context, storyID int64) ([]*Model, error) {
	return r.Where(ctx, record.Criteria{"story_id": storyID})
}

// InLanguage returns the content of a story in one language.
func (r *Repo) InLanguage(ctx context.Context, storyID int64, language string) (*Model, error) {
	found, err := r.Where(ctx, record.Criteria{"story_id": storyID, "language": language})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("story %d content %q: %w", storyID, language, domain.ErrNotFound)
	}
	return found[0], nil
}

// ---------------------------------------------------------------------------
// Revisions
// ---------------------------------------------------------------------------

// Revise saves the pending edits of m and records the result as the next
// revision, in one transaction. The acting user in ctx, if any, is stored
// as the editor. A persisted content without edits is refused with
// domain.ErrNoChanges.
func (r *Repo) Revise(ctx context.Context, m *Model, note *string) (*storyrevision.Model, error) {
	if m.Exists() && !m.IsDirty() {
		return nil, fmt.Errorf("revise story_content %d: %w", m.ID(), domain.ErrNoChanges)
	}

	restore := m.Checkpoint()
	var rev *storyrevision.Model
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := r.Save(ctx, m); err != nil {
			return err
		}
		var err error
		rev, err = r.revisions.Record(ctx, m.Entity, ctxutil.UserIDPtrFromCtx(ctx), note)
		return err
	})
	if err != nil {
		restore()
		return nil, fmt.Errorf("revise story_content %d: %w", m.ID(), err)
	}

	m.ForgetRelations()
	r.log.InfoContext(ctx, "story content revised",
		slog.Int64("story_content_id", m.ID()),
		slog.Int("revision", rev.Entity.Revision))
	return rev, nil
}

// RestoreRevision copies revision n back onto m and records the restore
// as a new revision. Restoring the text m already holds is
// domain.ErrNoChanges.
func (r *Repo) RestoreRevision(ctx context.Context, m *Model, n int) (*storyrevision.Model, error) {
	if !m.Exists() {
		return nil, fmt.Errorf("restore story_content: %w", domain.ErrNotPersisted)
	}
	old, err := r.revisions.At(ctx, m.ID(), n)
	if err != nil {
		return nil, err
	}

	restore := m.Checkpoint()
	m.Entity.Restore(*old.Entity)
	note := fmt.Sprintf("restored revision %d", n)
	rev, err := r.Revise(ctx, m, &note)
	if err != nil {
		restore()
		return nil, err
	}
	return rev, nil
}

// ---------------------------------------------------------------------------
// Workflow
// ---------------------------------------------------------------------------

// SubmitForReview moves a draft content into the review queue.
func (r *Repo) SubmitForReview(ctx context.Context, m *Model) error {
	return r.apply(ctx, m, "submit", (*domain.StoryContent).SubmitForReview)
}

// Reject refuses a content pending review.
func (r *Repo) Reject(ctx context.Context, m *Model) error {
	return r.apply(ctx, m, "reject", (*domain.StoryContent).Reject)
}

// Redraft reopens a rejected content.
func (r *Repo) Redraft(ctx context.Context, m *Model) error {
	return r.apply(ctx, m, "redraft", (*domain.StoryContent).Redraft)
}

// Publish publishes the content now. When the content is in the story's
// original language the story is published in the same transaction;
// translations never touch the story.
func (r *Repo) Publish(ctx context.Context, m *Model) error {
	now := r.Now()
	return r.cascade(ctx, m, "publish",
		func(c *domain.StoryContent) error { return c.Publish(now) },
		func(s *domain.Story) error {
			if s.IsPublished() {
				return nil
			}
			return s.Publish(now)
		})
}

// Unpublish returns the content to draft. Unpublishing the original
// language also unpublishes the story, in the same transaction.
func (r *Repo) Unpublish(ctx context.Context, m *Model) error {
	return r.cascade(ctx, m, "unpublish",
		(*domain.StoryContent).Unpublish,
		func(s *domain.Story) error {
			if !s.IsPublished() {
				return nil
			}
			return s.Unpublish()
		})
}

func (r *Repo) apply(ctx context.Context, m *Model, action string, change func(*domain.StoryContent) error) error {
	if err := r.Transition(ctx, m, change); err != nil {
		return fmt.Errorf("%s story_content %d: %w", action, m.ID(), err)
	}
	r.logStatus(ctx, m, action, false)
	return nil
}

func (r *Repo) cascade(
	ctx context.Context,
	m *Model,
	action string,
	change func(*domain.StoryContent) error,
	parent func(*domain.Story) error,
) error {
	restore := m.Checkpoint()
	restoreStory := func() {}
	cascaded := false

	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := r.Transition(ctx, m, change); err != nil {
			return err
		}
		story, err := r.Story.Resolve(ctx, m)
		if err != nil {
			return err
		}
		if story == nil || !story.Entity.IsOriginal(m.Entity.Language) {
			return nil
		}
		cascaded = true
		restoreStory = story.Checkpoint()
		return r.stories.Transition(ctx, story, parent)
	})
	if err != nil {
		restore()
		restoreStory()
		return fmt.Errorf("%s story_content %d: %w", action, m.ID(), err)
	}

	r.logStatus(ctx, m, action, cascaded)
	return nil
}

func (r *Repo) logStatus(ctx context.Context, m *Model, action string, cascaded bool) {
	r.log.InfoContext(ctx, "story content status changed",
		slog.Int64("story_content_id", m.ID()),
		slog.Int64("story_id", m.Entity.StoryID),
		slog.String("language", m.Entity.Language),
		slog.String("action", action),
		slog.String("status", m.Entity.Status.String()),
		slog.Bool("cascaded", cascaded))
}

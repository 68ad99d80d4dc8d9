// Package comment persists reader comments, their moderation and reply threads.
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/record"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/schema"
	"github.com/polascin/renaltales-backend/internal/domain"
)

// Model is a tracked comment.
type Model = record.Model[domain.Comment]

// Repo provides comment persistence backed by PostgreSQL. Deleting a
// comment trashes it; PurgeOlderThan removes trashed rows for good.
type Repo struct {
	*record.Repository[domain.Comment]

	log *slog.Logger

	Story   record.BelongsTo[domain.Comment, domain.Story]
	Author  record.BelongsTo[domain.Comment, domain.User]
	Parent  record.BelongsTo[domain.Comment, domain.Comment]
	Replies record.HasMany[domain.Comment, domain.Comment]
}

// New creates a new comment repository.
func New(db postgres.DB, opts record.Options) *Repo {
	comments := record.NewRepository(db, schema.Comments, opts)
	return &Repo{
		Repository: comments,
		log:        opts.Log().With("repo", "comment"),
		Story: record.BelongsTo[domain.Comment, domain.Story]{
			Name:   "story",
			Key:    func(c *domain.Comment) *int64 { return &c.StoryID },
			Target: record.NewRepository(db, schema.Stories, opts),
		},
		Author: record.BelongsTo[domain.Comment, domain.User]{
			Name:   "author",
			Key:    func(c *domain.Comment) *int64 { return &c.UserID },
			Target: record.NewRepository(db, schema.Users, opts),
		},
		Parent: record.BelongsTo[domain.Comment, domain.Comment]{
			Name:   "parent",
			Key:    func(c *domain.Comment) *int64 { return c.ParentID },
			Target: comments,
		},
		Replies: record.HasMany[domain.Comment, domain.Comment]{
			Name:       "replies",
			ForeignKey: "parent_id",
			Target:     comments,
		},
	}
}

// Post creates a top-level comment awaiting moderation.
func (r *Repo) Post(ctx context.Context, storyID, userID int64, content string) (*Model, error) {
	m := r.New(map[string]any{
		"story_id": storyID,
		"user_id":  userID,
		"content":  content,
	})
	if err := r.Save(ctx, m); err != nil {
		return nil, err
	}
	r.log.InfoContext(ctx, "comment posted",
		slog.Int64("comment_id", m.ID()),
		slog.Int64("story_id", storyID))
	return m, nil
}

// Reply stores an answer to parent. The reply enters moderation whatever
// the parent's own status.
func (r *Repo) Reply(ctx context.Context, parent *Model, userID int64, content string) (*Model, error) {
	if !parent.Exists() {
		return nil, fmt.Errorf("reply to comment: %w", domain.ErrNotPersisted)
	}
	m := r.New(nil)
	*m.Entity = parent.Entity.Reply(userID, content)
	if err := r.Save(ctx, m); err != nil {
		return nil, err
	}
	m.SetRelation(r.Parent.Name, parent)
	r.log.InfoContext(ctx, "comment reply posted",
		slog.Int64("comment_id", m.ID()),
		slog.Int64("parent_id", parent.ID()))
	return m, nil
}

// Approve publishes a pending comment.
func (r *Repo) Approve(ctx context.Context, m *Model) error {
	return r.moderate(ctx, m, "approve", (*domain.Comment).Approve)
}

// Reject hides a pending comment.
func (r *Repo) Reject(ctx context.Context, m *Model) error {
	return r.moderate(ctx, m, "reject", (*domain.Comment).Reject)
}

func (r *Repo) moderate(ctx context.Context, m *Model, action string, change func(*domain.Comment) error) error {
	if err := r.Transition(ctx, m, change); err != nil {
		return fmt.Errorf("%s comment %d: %w", action, m.ID(), err)
	}
	r.log.InfoContext(ctx, "comment moderated",
		slog.Int64("comment_id", m.ID()),
		slog.String("status", m.Entity.Status.String()))
	return nil
}

// Pending returns the moderation queue, oldest first.
func (r *Repo) Pending(ctx context.Context) ([]*Model, error) {
	return r.Where(ctx, record.Criteria{"status": domain.CommentPending})
}

// Thread returns the comments of a story arranged as reply trees. With
// approvedOnly set, unapproved comments and their subtrees are left out
// and replies to them do not surface as roots.
func (r *Repo) Thread(ctx context.Context, storyID int64, approvedOnly bool) ([]*domain.CommentNode, error) {
	models, err := r.Where(ctx, record.Criteria{"story_id": storyID})
	if err != nil {
		return nil, err
	}

	comments := make([]domain.Comment, 0, len(models))
	for _, m := range models {
		comments = append(comments, *m.Entity)
	}
	if approvedOnly {
		comments = visible(comments)
	}
	return domain.BuildCommentTree(comments), nil
}

// visible keeps approved comments whose ancestors are all approved.
func visible(comments []domain.Comment) []domain.Comment {
	byID := make(map[int64]domain.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}

	out := comments[:0:0]
	for _, c := range comments {
		ok := true
		for cur, hops := c, 0; ok && hops <= len(comments); hops++ {
			if !cur.IsApproved() {
				ok = false
				break
			}
			if cur.ParentID == nil {
				break
			}
			parent, found := byID[*cur.ParentID]
			if !found {
				// Parent trashed or on another page: treat the comment as a root.
				break
			}
			cur = parent
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}

// PurgeOlderThan hard-deletes comments trashed longer than retention ago.
func (r *Repo) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := r.Now().Add(-retention)
	n, err := r.PurgeTrashed(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	r.log.InfoContext(ctx, "trashed comments purged",
		slog.Int64("count", n),
		slog.Time("cutoff", cutoff))
	return n, nil
}

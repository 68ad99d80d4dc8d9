// Package category persists story categories.
package category

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/record"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/schema"
	"github.com/polascin/renaltales-backend/internal/domain"
)

// Model is a tracked category.
type Model = record.Model[domain.StoryCategory]

// Repo provides category persistence backed by PostgreSQL.
type Repo struct {
	*record.Repository[domain.StoryCategory]

	log *slog.Logger

	Stories record.HasMany[domain.StoryCategory, domain.Story]
}

// New creates a new category repository.
func New(db postgres.DB, opts record.Options) *Repo {
	return &Repo{
		Repository: record.NewRepository(db, schema.Categories, opts),
		log:        opts.Log().With("repo", "category"),
		Stories: record.HasMany[domain.StoryCategory, domain.Story]{
			Name:       "stories",
			ForeignKey: "category_id",
			Target:     record.NewRepository(db, schema.Stories, opts),
		},
	}
}

// Create inserts a category. The name is whitespace-normalised and a
// missing slug is derived from it.
func (r *Repo) Create(ctx context.Context, attrs map[string]any) (*Model, error) {
	m := r.New(attrs)
	m.Entity.Name = domain.NormalizeSpace(m.Entity.Name)
	if m.Entity.Slug == "" {
		m.Entity.Slug = domain.Slugify(m.Entity.Name)
	}
	if err := r.Save(ctx, m); err != nil {
		return nil, err
	}
	r.log.InfoContext(ctx, "category created",
		slog.Int64("category_id", m.ID()),
		slog.String("slug", m.Entity.Slug))
	return m, nil
}

// FindBySlug returns the category with the given slug.
func (r *Repo) FindBySlug(ctx context.Context, slug string) (*Model, error) {
	return r.FindBy(ctx, "slug", slug)
}

// Ordered returns every category by position, then name.
func (r *Repo) Ordered(ctx context.Context) ([]*Model, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(all, func(a, b *Model) int {
		return cmp.Or(
			cmp.Compare(a.Entity.Position, b.Entity.Position),
			cmp.Compare(a.Entity.Name, b.Entity.Name),
		)
	})
	return all, nil
}

// Package loader eagerly fills relation caches for a slice of models.
// Each preload batches its keys through a per-call dataloader, so N models
// cost one query per relation instead of N. Lazy resolution stays the
// default; callers opt in where they know they will walk a relation.
package loader

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"golang.org/x/sync/errgroup"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/record"
	"github.com/polascin/renaltales-backend/internal/config"
	"github.com/polascin/renaltales-backend/internal/domain"
)

// Settings are the batch parameters shared by every preload.
type Settings struct {
	Wait  time.Duration
	Batch int
}

// NewSettings reads batch parameters from the persistence config.
func NewSettings(cfg config.PersistenceConfig) Settings {
	return Settings{Wait: cfg.LoaderWait, Batch: cfg.LoaderBatch}
}

// Preload fills one relation on a batch of models of E. Build one with
// BelongsTo or HasMany.
type Preload[E any] interface {
	// fetch loads the relation without touching the models and returns
	// the step that stores it on them.
	fetch(ctx context.Context, models []*record.Model[E]) (fill func(), err error)
}

// Load runs every preload over models. Independent preloads are fetched
// concurrently; the caches are filled only after all of them succeed, so a
// failed Load leaves the models as they were. Models whose cache already
// holds a relation keep it.
func Load[E any](ctx context.Context, models []*record.Model[E], preloads ...Preload[E]) error {
	if len(models) == 0 || len(preloads) == 0 {
		return nil
	}

	fills := make([]func(), len(preloads))
	g, gctx := errgroup.WithContext(ctx)
	// A transaction is one connection and cannot serve queries in parallel.
	if postgres.InTx(ctx) {
		g.SetLimit(1)
	}
	for i, p := range preloads {
		g.Go(func() error {
			fill, err := p.fetch(gctx, models)
			if err != nil {
				return err
			}
			fills[i] = fill
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, fill := range fills {
		fill()
	}
	return nil
}

// ---------------------------------------------------------------------------
// BelongsTo
// ---------------------------------------------------------------------------

type belongsTo[C, P any] struct {
	rel record.BelongsTo[C, P]
	s   Settings
}

// BelongsTo preloads the parent of each child. Children without a parent
// get a nil parent, like lazy resolution does. So do children whose parent
// was trashed from a soft-delete table; on other tables a missing parent is
// domain.ErrNotFound.
func BelongsTo[C, P any](rel record.BelongsTo[C, P], s Settings) Preload[C] {
	return belongsTo[C, P]{rel: rel, s: s}
}

func (p belongsTo[C, P]) fetch(ctx context.Context, models []*record.Model[C]) (func(), error) {
	pending := uncached(models, p.rel.Name)

	keys := make([]int64, 0, len(pending))
	for _, m := range pending {
		if k := p.rel.KeyOf(m); k != 0 {
			keys = append(keys, k)
		}
	}

	parents, err := load(ctx, p.s, unique(keys), p.batch)
	if err != nil {
		return nil, fmt.Errorf("preload %s: %w", p.rel.Name, err)
	}

	return func() {
		for _, m := range pending {
			m.SetRelation(p.rel.Name, parents[p.rel.KeyOf(m)])
		}
	}, nil
}

func (p belongsTo[C, P]) batch(ctx context.Context, keys []int64) []*dataloader.Result[*record.Model[P]] {
	rows, err := p.rel.Target.FindMany(ctx, keys)
	if err != nil {
		return errorResults[*record.Model[P]](len(keys), err)
	}

	byID := make(map[int64]*record.Model[P], len(rows))
	for _, row := range rows {
		byID[row.ID()] = row
	}

	table := p.rel.Target.Table()
	results := make([]*dataloader.Result[*record.Model[P]], len(keys))
	for i, key := range keys {
		if row, ok := byID[key]; ok || table.SoftDelete {
			results[i] = &dataloader.Result[*record.Model[P]]{Data: row}
		} else {
			results[i] = &dataloader.Result[*record.Model[P]]{
				Error: fmt.Errorf("%s %d: %w", table.Name, key, domain.ErrNotFound),
			}
		}
	}
	return results
}

// ---------------------------------------------------------------------------
// HasMany
// ---------------------------------------------------------------------------

type hasMany[P, C any] struct {
	rel record.HasMany[P, C]
	s   Settings
}

// HasMany preloads the children of each parent, ordered by identity.
// Parents must be persisted.
func HasMany[P, C any](rel record.HasMany[P, C], s Settings) Preload[P] {
	return hasMany[P, C]{rel: rel, s: s}
}

func (p hasMany[P, C]) fetch(ctx context.Context, models []*record.Model[P]) (func(), error) {
	pending := uncached(models, p.rel.Name)

	keys := make([]int64, 0, len(pending))
	for _, m := range pending {
		if !m.Exists() {
			return nil, fmt.Errorf("preload %s: %w", p.rel.Name, domain.ErrNotPersisted)
		}
		keys = append(keys, m.ID())
	}

	children, err := load(ctx, p.s, unique(keys), p.batch)
	if err != nil {
		return nil, fmt.Errorf("preload %s: %w", p.rel.Name, err)
	}

	return func() {
		for _, m := range pending {
			got := children[m.ID()]
			if got == nil {
				got = []*record.Model[C]{}
			}
			m.SetRelation(p.rel.Name, got)
		}
	}, nil
}

func (p hasMany[P, C]) batch(ctx context.Context, keys []int64) []*dataloader.Result[[]*record.Model[C]] {
	rows, err := p.rel.Target.FindAllBy(ctx, p.rel.ForeignKey, keys)
	if err != nil {
		return errorResults[[]*record.Model[C]](len(keys), err)
	}

	grouped := make(map[int64][]*record.Model[C], len(keys))
	for _, row := range rows {
		fk := foreignKey(row, p.rel.ForeignKey)
		grouped[fk] = append(grouped[fk], row)
	}

	results := make([]*dataloader.Result[[]*record.Model[C]], len(keys))
	for i, key := range keys {
		results[i] = &dataloader.Result[[]*record.Model[C]]{Data: grouped[key]}
	}
	return results
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newLoader creates a dataloader.Loader with the configured batch parameters.
func newLoader[V any](s Settings, batchFn dataloader.BatchFunc[int64, V]) *dataloader.Loader[int64, V] {
	return dataloader.NewBatchedLoader(
		batchFn,
		dataloader.WithWait[int64, V](s.Wait),
		dataloader.WithBatchCapacity[int64, V](s.Batch),
	)
}

// load resolves keys through batchFn. Inside a transaction all keys go out
// in a single call, since batches would otherwise race on the connection.
func load[V any](
	ctx context.Context,
	s Settings,
	keys []int64,
	batchFn func(context.Context, []int64) []*dataloader.Result[V],
) (map[int64]V, error) {
	out := make(map[int64]V, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	if postgres.InTx(ctx) {
		for i, res := range batchFn(ctx, keys) {
			if res.Error != nil {
				return nil, res.Error
			}
			out[keys[i]] = res.Data
		}
		return out, nil
	}

	l := newLoader[V](s, batchFn)
	thunks := make([]dataloader.Thunk[V], len(keys))
	for i, key := range keys {
		thunks[i] = l.Load(ctx, key)
	}
	for i, thunk := range thunks {
		v, err := thunk()
		if err != nil {
			return nil, err
		}
		out[keys[i]] = v
	}
	return out, nil
}

func uncached[E any](models []*record.Model[E], relation string) []*record.Model[E] {
	out := make([]*record.Model[E], 0, len(models))
	for _, m := range models {
		if _, ok := m.Relation(relation); !ok {
			out = append(out, m)
		}
	}
	return out
}

// unique returns the distinct keys in ascending order.
func unique(keys []int64) []int64 {
	slices.Sort(keys)
	return slices.Compact(keys)
}

func foreignKey[E any](m *record.Model[E], field string) int64 {
	v, _ := m.Get(field)
	switch k := v.(type) {
	case int64:
		return k
	case *int64:
		if k != nil {
			return *k
		}
	}
	return 0
}

// errorResults returns n results all carrying the same error.
func errorResults[V any](n int, err error) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], n)
	for i := range results {
		results[i] = &dataloader.Result[V]{Error: err}
	}
	return results
}

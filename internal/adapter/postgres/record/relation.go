package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/polascin/renaltales-backend/internal/domain"
)

// BelongsTo resolves the parent row a child points at through a foreign
// key field of C.
type BelongsTo[C, P any] struct {
	Name string
	// Key returns the foreign key. A nil or zero key means "no parent".
	Key    func(*C) *int64
	Target *Repository[P]
}

// KeyOf returns the foreign key held by m, zero when unset.
func (rel BelongsTo[C, P]) KeyOf(m *Model[C]) int64 {
	if k := rel.Key(m.Entity); k != nil {
		return *k
	}
	return 0
}

// Resolve returns the parent, loading it on first use and caching it on m.
// A child without a parent resolves to nil, as does one whose parent sits
// in the trash of a soft-delete table.
func (rel BelongsTo[C, P]) Resolve(ctx context.Context, m *Model[C]) (*Model[P], error) {
	if v, ok := m.Relation(rel.Name); ok {
		p, _ := v.(*Model[P])
		return p, nil
	}

	key := rel.KeyOf(m)
	if key == 0 {
		m.SetRelation(rel.Name, (*Model[P])(nil))
		return nil, nil
	}

	parent, err := rel.Target.Find(ctx, key)
	if err != nil {
		if rel.Target.Table().SoftDelete && errors.Is(err, domain.ErrNotFound) {
			m.SetRelation(rel.Name, (*Model[P])(nil))
			return nil, nil
		}
		return nil, fmt.Errorf("resolve %s: %w", rel.Name, err)
	}
	m.SetRelation(rel.Name, parent)
	return parent, nil
}

// HasMany resolves the children whose ForeignKey field holds the parent's
// identity.
type HasMany[P, C any] struct {
	Name       string
	ForeignKey string
	Target     *Repository[C]
}

// Resolve returns the children ordered by identity, loading them on first
// use and caching them on m. The parent must be persisted.
func (rel HasMany[P, C]) Resolve(ctx context.Context, m *Model[P]) ([]*Model[C], error) {
	if v, ok := m.Relation(rel.Name); ok {
		children, _ := v.([]*Model[C])
		return children, nil
	}
	if !m.Exists() {
		return nil, fmt.Errorf("resolve %s: %w", rel.Name, domain.ErrNotPersisted)
	}

	children, err := rel.Target.Where(ctx, Criteria{rel.ForeignKey: m.ID()})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rel.Name, err)
	}
	m.SetRelation(rel.Name, children)
	return children, nil
}

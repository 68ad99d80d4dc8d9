package record

import "reflect"

// Model wraps one entity with the state the persistence layer needs: the
// snapshot of the last loaded or saved values and the relation cache.
// A Model is owned by a single call stack and is not safe for concurrent use.
type Model[E any] struct {
	Entity *E

	table     *Table[E]
	original  map[string]any
	relations map[string]any
}

func newModel[E any](t *Table[E], e *E) *Model[E] {
	m := &Model[E]{Entity: e, table: t}
	m.sync()
	return m
}

// sync makes the current values the new original.
func (m *Model[E]) sync() {
	m.original = make(map[string]any, len(m.table.Columns))
	for _, c := range m.table.Columns {
		m.original[c.name] = cloneValue(c.get(m.Entity))
	}
}

// Table returns the table declaration the model belongs to.
func (m *Model[E]) Table() *Table[E] { return m.table }

// ID returns the identity, zero when the entity was never saved.
func (m *Model[E]) ID() int64 { return *m.table.ID(m.Entity) }

// Exists reports whether the entity has an identity.
func (m *Model[E]) Exists() bool { return m.ID() != 0 }

func (m *Model[E]) setID(id int64) { *m.table.ID(m.Entity) = id }

// Get reads a whitelisted field. The second result is false for unknown fields.
func (m *Model[E]) Get(field string) (any, bool) {
	if field == colID {
		return m.ID(), true
	}
	c, ok := m.table.Column(field)
	if !ok {
		return nil, false
	}
	return c.get(m.Entity), true
}

// Set writes a whitelisted field. It reports false, leaving the entity
// untouched, when the field is unknown or the value cannot be coerced to
// the field's type. The identity is not writable through Set.
func (m *Model[E]) Set(field string, value any) bool {
	c, ok := m.table.Column(field)
	if !ok {
		return false
	}
	return c.set(m.Entity, value)
}

// Fill merges attrs into the entity. Unknown keys are ignored. An "id" key
// assigns the identity without marking anything dirty.
func (m *Model[E]) Fill(attrs map[string]any) *Model[E] {
	for k, v := range attrs {
		if k == colID {
			if id, ok := coerce[int64](v); ok {
				m.setID(id)
			}
			continue
		}
		m.Set(k, v)
	}
	return m
}

// IsDirty reports whether any field differs from the original snapshot.
func (m *Model[E]) IsDirty() bool {
	for _, c := range m.table.Columns {
		if !reflect.DeepEqual(c.get(m.Entity), m.original[c.name]) {
			return true
		}
	}
	return false
}

// Changes returns the fields that differ from the original snapshot with
// their current values.
func (m *Model[E]) Changes() map[string]any {
	changes := make(map[string]any)
	for _, c := range m.table.Columns {
		cur := c.get(m.Entity)
		if !reflect.DeepEqual(cur, m.original[c.name]) {
			changes[c.name] = cur
		}
	}
	return changes
}

// Original returns the snapshot value of field.
func (m *Model[E]) Original(field string) any {
	return m.original[field]
}

// ToMap projects the identity and every column. Hidden fields are omitted
// unless includeHidden is set.
func (m *Model[E]) ToMap(includeHidden bool) map[string]any {
	out := make(map[string]any, len(m.table.Columns)+1)
	out[colID] = m.ID()
	for _, c := range m.table.Columns {
		if !includeHidden && m.table.IsHidden(c.name) {
			continue
		}
		out[c.name] = c.get(m.Entity)
	}
	return out
}

// SetRelation stores an already loaded relation value under name.
// Resolve returns it without querying.
func (m *Model[E]) SetRelation(name string, v any) {
	if m.relations == nil {
		m.relations = make(map[string]any)
	}
	m.relations[name] = v
}

// Relation returns the cached relation value, if loaded.
func (m *Model[E]) Relation(name string) (any, bool) {
	v, ok := m.relations[name]
	return v, ok
}

// ForgetRelations drops every cached relation.
func (m *Model[E]) ForgetRelations() {
	clear(m.relations)
}

// Revert discards unsaved changes by restoring the snapshot.
func (m *Model[E]) Revert() {
	for _, c := range m.table.Columns {
		c.set(m.Entity, cloneValue(m.original[c.name]))
	}
}

// Checkpoint captures the entity, identity and snapshot. The returned
// function puts all three back, undoing the in-memory effect of a unit of
// work that was rolled back after this model had already been saved in it.
func (m *Model[E]) Checkpoint() (restore func()) {
	id := m.ID()
	values := make([]any, len(m.table.Columns))
	for i, c := range m.table.Columns {
		values[i] = cloneValue(c.get(m.Entity))
	}
	original := make(map[string]any, len(m.original))
	for k, v := range m.original {
		original[k] = cloneValue(v)
	}
	return func() {
		m.setID(id)
		for i, c := range m.table.Columns {
			c.set(m.Entity, values[i])
		}
		m.original = original
	}
}

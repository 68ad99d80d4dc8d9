package record

import (
	"fmt"
	"slices"
)

// Column names with special meaning for a table.
const (
	colID        = "id"
	colCreatedAt = "created_at"
	colUpdatedAt = "updated_at"
	colDeletedAt = "deleted_at"
)

// Table declares how an entity type maps onto one database table: the
// ordered field whitelist, the hidden fields, the validation rules and the
// lifecycle flags. Declare tables once with MustTable.
type Table[E any] struct {
	Name string
	// ID points at the identity field. Zero means "not persisted".
	ID      func(*E) *int64
	Columns []Column[E]
	// Hidden fields are left out of ToMap(false).
	Hidden []string
	// Timestamps stamps created_at on insert and updated_at on every write,
	// for whichever of the two columns the table declares.
	Timestamps bool
	// SoftDelete makes Delete stamp deleted_at and hides trashed rows from reads.
	SoftDelete bool
	Rules      []Rule[E]
	// Defaults is applied to fresh entities created by Repository.New.
	Defaults func(*E)

	index  map[string]int
	hidden map[string]bool
}

// MustTable validates the declaration and indexes it. It panics on a
// malformed declaration so mistakes surface at start-up.
func MustTable[E any](t Table[E]) *Table[E] {
	if t.Name == "" {
		panic("record: table name is required")
	}
	if t.ID == nil {
		panic(fmt.Sprintf("record: %s: id accessor is required", t.Name))
	}

	t.Columns = slices.Clone(t.Columns)
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if c.name == "" || c.name == colID {
			panic(fmt.Sprintf("record: %s: invalid column name %q", t.Name, c.name))
		}
		if _, dup := t.index[c.name]; dup {
			panic(fmt.Sprintf("record: %s: duplicate column %q", t.Name, c.name))
		}
		t.index[c.name] = i
	}

	t.hidden = make(map[string]bool, len(t.Hidden))
	for _, h := range t.Hidden {
		if !t.Has(h) {
			panic(fmt.Sprintf("record: %s: hidden field %q is not a column", t.Name, h))
		}
		t.hidden[h] = true
	}

	for _, r := range t.Rules {
		if !t.Has(r.field) {
			panic(fmt.Sprintf("record: %s: rule on unknown field %q", t.Name, r.field))
		}
	}

	if t.SoftDelete && !t.Has(colDeletedAt) {
		panic(fmt.Sprintf("record: %s: soft delete needs a %s column", t.Name, colDeletedAt))
	}
	if t.Timestamps && !t.Has(colCreatedAt) && !t.Has(colUpdatedAt) {
		panic(fmt.Sprintf("record: %s: timestamps need %s or %s", t.Name, colCreatedAt, colUpdatedAt))
	}

	return &t
}

// Has reports whether field is in the whitelist.
func (t *Table[E]) Has(field string) bool {
	_, ok := t.index[field]
	return ok
}

// Column returns the column bound to field.
func (t *Table[E]) Column(field string) (Column[E], bool) {
	i, ok := t.index[field]
	if !ok {
		return Column[E]{}, false
	}
	return t.Columns[i], true
}

// Fields returns the whitelist in declaration order, without id.
func (t *Table[E]) Fields() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.name
	}
	return out
}

// IsHidden reports whether field is redacted from ToMap(false).
func (t *Table[E]) IsHidden(field string) bool {
	return t.hidden[field]
}

func (t *Table[E]) selectColumns() []string {
	return append([]string{colID}, t.Fields()...)
}

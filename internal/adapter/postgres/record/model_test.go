package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsThenFill(t *testing.T) {
	t.Parallel()

	repo, _ := newWidgetRepo(t)
	m := repo.New(map[string]any{
		"name":     "gizmo",
		"owner_id": 3,
		"unknown":  "dropped",
	})

	assert.False(t, m.Exists())
	assert.Equal(t, "gizmo", m.Entity.Name)
	assert.Equal(t, int64(3), m.Entity.OwnerID)
	assert.Equal(t, 1, m.Entity.Rank)
	_, ok := m.Get("unknown")
	assert.False(t, ok)
}

func TestModel_SetWhitelistAndCoercion(t *testing.T) {
	t.Parallel()

	m := newModel(widgets, &widget{})

	assert.False(t, m.Set("nope", 1), "unknown field must be rejected")
	assert.False(t, m.Set("rank", "high"), "string cannot become int")
	assert.False(t, m.Set("name", 42), "number cannot become string")

	require.True(t, m.Set("rank", float64(4)))
	assert.Equal(t, 4, m.Entity.Rank)

	require.True(t, m.Set("secret", "s3cr3t"))
	require.NotNil(t, m.Entity.Secret)
	assert.Equal(t, "s3cr3t", *m.Entity.Secret)

	require.True(t, m.Set("secret", nil))
	assert.Nil(t, m.Entity.Secret)
}

func TestModel_FillIDIsNotAChange(t *testing.T) {
	t.Parallel()

	m := newModel(widgets, &widget{})
	m.Fill(map[string]any{"id": 9})

	assert.Equal(t, int64(9), m.ID())
	assert.True(t, m.Exists())
	assert.False(t, m.IsDirty())
}

func TestModel_DirtyTracking(t *testing.T) {
	t.Parallel()

	m := newModel(widgets, storedWidget())
	assert.False(t, m.IsDirty())
	assert.Empty(t, m.Changes())

	m.Set("name", "doohickey")
	assert.True(t, m.IsDirty())
	assert.Equal(t, map[string]any{"name": "doohickey"}, m.Changes())
	assert.Equal(t, "gizmo", m.Original("name"))

	m.Entity.Name = "gizmo"
	assert.False(t, m.IsDirty(), "reverting to the original clears the change")
}

func TestModel_SnapshotCopiesPointers(t *testing.T) {
	t.Parallel()

	secret := "before"
	w := storedWidget()
	w.Secret = &secret
	m := newModel(widgets, w)

	*w.Secret = "after"

	assert.True(t, m.IsDirty())
	orig, ok := m.Original("secret").(*string)
	require.True(t, ok)
	assert.Equal(t, "before", *orig)
}

func TestModel_ToMapRedactsHidden(t *testing.T) {
	t.Parallel()

	secret := "hash"
	w := storedWidget()
	w.Secret = &secret
	m := newModel(widgets, w)

	public := m.ToMap(false)
	assert.NotContains(t, public, "secret")
	assert.Equal(t, int64(5), public["id"])
	assert.Equal(t, "gizmo", public["name"])

	full := m.ToMap(true)
	assert.Contains(t, full, "secret")
	assert.Len(t, full, len(widgets.Columns)+1)
}

func TestModel_RelationCache(t *testing.T) {
	t.Parallel()

	m := newModel(widgets, storedWidget())
	_, ok := m.Relation("owner")
	assert.False(t, ok)

	m.SetRelation("owner", "cached")
	v, ok := m.Relation("owner")
	assert.True(t, ok)
	assert.Equal(t, "cached", v)

	m.ForgetRelations()
	_, ok = m.Relation("owner")
	assert.False(t, ok)
}

func TestMustTable_Panics(t *testing.T) {
	t.Parallel()

	id := func(w *widget) *int64 { return &w.ID }
	name := Field("name", func(w *widget) *string { return &w.Name })

	tests := []struct {
		name  string
		table Table[widget]
	}{
		{"missing name", Table[widget]{ID: id}},
		{"missing id accessor", Table[widget]{Name: "w"}},
		{"id as column", Table[widget]{Name: "w", ID: id, Columns: []Column[widget]{Field("id", id)}}},
		{"duplicate column", Table[widget]{Name: "w", ID: id, Columns: []Column[widget]{name, name}}},
		{"unknown hidden", Table[widget]{Name: "w", ID: id, Columns: []Column[widget]{name}, Hidden: []string{"secret"}}},
		{"unknown rule", Table[widget]{Name: "w", ID: id, Columns: []Column[widget]{name}, Rules: []Rule[widget]{Required[widget]("email")}}},
		{"soft delete without column", Table[widget]{Name: "w", ID: id, Columns: []Column[widget]{name}, SoftDelete: true}},
		{"timestamps without columns", Table[widget]{Name: "w", ID: id, Columns: []Column[widget]{name}, Timestamps: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Panics(t, func() { MustTable(tt.table) })
		})
	}
}

func TestModel_Revert(t *testing.T) {
	t.Parallel()

	m := newModel(widgets, storedWidget())
	m.Set("name", "changed")
	m.Set("secret", "x")

	m.Revert()

	assert.Equal(t, "gizmo", m.Entity.Name)
	assert.Nil(t, m.Entity.Secret)
	assert.False(t, m.IsDirty())
}

func TestModel_CheckpointRestoresSnapshot(t *testing.T) {
	t.Parallel()

	m := newModel(widgets, storedWidget())
	restore := m.Checkpoint()

	m.Set("name", "saved elsewhere")
	m.sync()
	m.setID(0)

	restore()

	assert.Equal(t, int64(5), m.ID())
	assert.Equal(t, "gizmo", m.Entity.Name)
	assert.False(t, m.IsDirty())
}

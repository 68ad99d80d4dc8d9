package record

import (
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Secret    *string   `db:"secret"`
	OwnerID   int64     `db:"owner_id"`
	Rank      int       `db:"rank"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type note struct {
	ID        int64      `db:"id"`
	WidgetID  int64      `db:"widget_id"`
	Body      string     `db:"body"`
	DeletedAt *time.Time `db:"deleted_at"`
}

var widgets = MustTable(Table[widget]{
	Name: "widgets",
	ID:   func(w *widget) *int64 { return &w.ID },
	Columns: []Column[widget]{
		Field("name", func(w *widget) *string { return &w.Name }),
		Field("email", func(w *widget) *string { return &w.Email }),
		Field("secret", func(w *widget) **string { return &w.Secret }),
		Field("owner_id", func(w *widget) *int64 { return &w.OwnerID }),
		Field("rank", func(w *widget) *int { return &w.Rank }),
		Field("created_at", func(w *widget) *time.Time { return &w.CreatedAt }),
		Field("updated_at", func(w *widget) *time.Time { return &w.UpdatedAt }),
	},
	Hidden:     []string{"secret"},
	Timestamps: true,
	Rules: []Rule[widget]{
		Required[widget]("name"),
		MaxLen[widget]("name", 10),
		Email[widget]("email"),
		Unique[widget]("email"),
	},
	Defaults: func(w *widget) { w.Rank = 1 },
})

var notes = MustTable(Table[note]{
	Name: "notes",
	ID:   func(n *note) *int64 { return &n.ID },
	Columns: []Column[note]{
		Field("widget_id", func(n *note) *int64 { return &n.WidgetID }),
		Field("body", func(n *note) *string { return &n.Body }),
		Field("deleted_at", func(n *note) **time.Time { return &n.DeletedAt }),
	},
	SoftDelete: true,
})

var (
	fixedNow      = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	widgetColumns = []string{"id", "name", "email", "secret", "owner_id", "rank", "created_at", "updated_at"}
	noteColumns   = []string{"id", "widget_id", "body", "deleted_at"}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func newWidgetRepo(t *testing.T) (*Repository[widget], pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newMock(t)
	return NewRepository(mock, widgets, Options{Clock: func() time.Time { return fixedNow }}), mock
}

func newNoteRepo(t *testing.T) (*Repository[note], pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newMock(t)
	return NewRepository(mock, notes, Options{Clock: func() time.Time { return fixedNow }}), mock
}

func storedWidget() *widget {
	return &widget{
		ID:        5,
		Name:      "gizmo",
		Email:     "gizmo@example.com",
		OwnerID:   3,
		Rank:      2,
		CreatedAt: fixedNow.Add(-time.Hour),
		UpdatedAt: fixedNow.Add(-time.Hour),
	}
}

func widgetRow(rows *pgxmock.Rows, w *widget) *pgxmock.Rows {
	return rows.AddRow(w.ID, w.Name, w.Email, w.Secret, w.OwnerID, w.Rank, w.CreatedAt, w.UpdatedAt)
}

package record

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres"
	"github.com/polascin/renaltales-backend/internal/domain"
	"github.com/polascin/renaltales-backend/pkg/ctxutil"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Criteria is an equality-only conjunction keyed by field name.
// A nil value matches NULL.
type Criteria map[string]any

// Options configures a Repository.
type Options struct {
	Logger *slog.Logger
	// QueryTimeout bounds every statement. Zero disables the bound.
	QueryTimeout time.Duration
	// Clock stamps timestamps. Defaults to time.Now.
	Clock func() time.Time
}

// Log returns the configured logger, or one that discards output.
func (o Options) Log() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Now reads the configured clock.
func (o Options) Now() time.Time {
	if o.Clock == nil {
		return time.Now()
	}
	return o.Clock()
}

// Repository persists the entities of one table. It is stateless apart
// from its configuration and is safe for concurrent use.
type Repository[E any] struct {
	db      postgres.DB
	table   *Table[E]
	tx      *postgres.TxManager
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewRepository creates a repository for table over db.
func NewRepository[E any](db postgres.DB, table *Table[E], opts Options) *Repository[E] {
	logger := opts.Log()
	return &Repository[E]{
		db:      db,
		table:   table,
		tx:      postgres.NewTxManager(db, logger),
		log:     logger.With("table", table.Name),
		timeout: opts.QueryTimeout,
		now:     opts.Now,
	}
}

// Table returns the table declaration.
func (r *Repository[E]) Table() *Table[E] { return r.table }

// Now reads the repository clock.
func (r *Repository[E]) Now() time.Time { return r.now() }

// New creates an unsaved model: defaults first, then attrs.
func (r *Repository[E]) New(attrs map[string]any) *Model[E] {
	e := new(E)
	if r.table.Defaults != nil {
		r.table.Defaults(e)
	}
	m := newModel(r.table, e)
	return m.Fill(attrs)
}

// Wrap tracks an entity that already reflects the stored row.
func (r *Repository[E]) Wrap(e *E) *Model[E] {
	return newModel(r.table, e)
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// Find returns the row with the given identity or domain.ErrNotFound.
func (r *Repository[E]) Find(ctx context.Context, id int64) (*Model[E], error) {
	return r.one(ctx, r.selectBuilder().Where(sq.Eq{colID: id}), id)
}

// FindBy returns the first row, by identity order, where field equals value.
func (r *Repository[E]) FindBy(ctx context.Context, field string, value any) (*Model[E], error) {
	if err := r.checkField(field); err != nil {
		return nil, err
	}
	if err := r.checkValue(field, value); err != nil {
		return nil, err
	}
	return r.one(ctx, r.selectBuilder().Where(sq.Eq{field: value}).Limit(1), 0)
}

// All returns every row ordered by identity.
func (r *Repository[E]) All(ctx context.Context) ([]*Model[E], error) {
	return r.many(ctx, r.selectBuilder())
}

// Where returns the rows matching every criterion, ordered by identity.
// Field names outside the whitelist are rejected before any SQL is built.
func (r *Repository[E]) Where(ctx context.Context, criteria Criteria) ([]*Model[E], error) {
	conds, err := r.conditions(criteria)
	if err != nil {
		return nil, err
	}
	b := r.selectBuilder()
	for _, c := range conds {
		b = b.Where(c)
	}
	return r.many(ctx, b)
}

// FindMany returns the rows with the given identities. Missing ids are
// skipped.
func (r *Repository[E]) FindMany(ctx context.Context, ids []int64) ([]*Model[E], error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.many(ctx, r.selectBuilder().Where(sq.Eq{colID: ids}))
}

// FindAllBy returns the rows whose field holds any of values.
func (r *Repository[E]) FindAllBy(ctx context.Context, field string, values []int64) ([]*Model[E], error) {
	if err := r.checkField(field); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return r.many(ctx, r.selectBuilder().Where(sq.Eq{field: values}))
}

// Count returns the number of rows matching criteria.
func (r *Repository[E]) Count(ctx context.Context, criteria Criteria) (int64, error) {
	conds, err := r.conditions(criteria)
	if err != nil {
		return 0, err
	}
	b := psql.Select("COUNT(*)").From(r.table.Name)
	if r.table.SoftDelete {
		b = b.Where(sq.Eq{colDeletedAt: nil})
	}
	for _, c := range conds {
		b = b.Where(c)
	}
	return r.scalar(ctx, b)
}

// Exists reports whether a row other than exceptID holds value in field.
// Trashed rows count, since they still occupy unique indexes.
func (r *Repository[E]) Exists(ctx context.Context, field string, value any, exceptID int64) (bool, error) {
	if err := r.checkField(field); err != nil {
		return false, err
	}
	if err := r.checkValue(field, value); err != nil {
		return false, err
	}
	b := psql.Select("COUNT(*)").From(r.table.Name).Where(sq.Eq{field: value})
	if exceptID != 0 {
		b = b.Where(sq.NotEq{colID: exceptID})
	}
	n, err := r.scalar(ctx, b)
	return n > 0, err
}

// Reload re-reads the row behind m, discarding unsaved changes and cached
// relations.
func (r *Repository[E]) Reload(ctx context.Context, m *Model[E]) error {
	if !m.Exists() {
		return fmt.Errorf("reload %s: %w", r.table.Name, domain.ErrNotPersisted)
	}
	fresh, err := r.Find(ctx, m.ID())
	if err != nil {
		return err
	}
	*m.Entity = *fresh.Entity
	m.sync()
	m.ForgetRelations()
	return nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// Validate runs the table rules in order and returns the first failure as
// a *domain.ValidationError.
func (r *Repository[E]) Validate(ctx context.Context, m *Model[E]) error {
	for _, rule := range r.table.Rules {
		v, _ := m.Get(rule.field)
		msg, err := rule.check(ctx, r, m, v)
		if err != nil {
			return err
		}
		if msg != "" {
			return domain.NewValidationError(rule.field, msg)
		}
	}
	return nil
}

// Save inserts a new entity or updates the changed fields of a persisted
// one. An update with no changes issues no statement. On success the
// snapshot is resynchronised.
//
// There is no optimistic locking: two writers updating the same row both
// succeed and the last one wins.
func (r *Repository[E]) Save(ctx context.Context, m *Model[E]) error {
	if m.Exists() {
		return r.update(ctx, m)
	}
	return r.insert(ctx, m)
}

// SaveInTx runs Save inside a transaction, joining the one carried by ctx
// if there is one.
func (r *Repository[E]) SaveInTx(ctx context.Context, m *Model[E]) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		return r.Save(ctx, m)
	})
}

// Transition applies a state change to the entity and persists it with
// SaveInTx. A change that leaves the entity as stored issues no statement.
// When either step fails the model is restored to its state
// before the call.
func (r *Repository[E]) Transition(ctx context.Context, m *Model[E], change func(*E) error) error {
	if !m.Exists() {
		return fmt.Errorf("%s: %w", r.table.Name, domain.ErrNotPersisted)
	}
	restore := m.Checkpoint()
	if err := change(m.Entity); err != nil {
		restore()
		return err
	}
	if !m.IsDirty() {
		return nil
	}
	if err := r.SaveInTx(ctx, m); err != nil {
		restore()
		return err
	}
	return nil
}

func (r *Repository[E]) insert(ctx context.Context, m *Model[E]) error {
	if err := r.Validate(ctx, m); err != nil {
		return err
	}

	if r.table.Timestamps {
		now := r.now()
		m.Set(colCreatedAt, now)
		m.Set(colUpdatedAt, now)
	}

	fields := r.table.Fields()
	values := make([]any, len(fields))
	for i, c := range r.table.Columns {
		values[i] = c.get(m.Entity)
	}

	query, args, err := psql.Insert(r.table.Name).
		Columns(fields...).
		Values(values...).
		Suffix("RETURNING " + colID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert %s: %w", r.table.Name, err)
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()
	r.trace(ctx, query)

	var id int64
	if err := r.querier(ctx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return postgres.MapError(err, r.table.Name, 0)
	}

	m.setID(id)
	m.sync()
	return nil
}

func (r *Repository[E]) update(ctx context.Context, m *Model[E]) error {
	changes := m.Changes()
	if len(changes) == 0 {
		return nil
	}
	if err := r.Validate(ctx, m); err != nil {
		return err
	}

	if r.table.Timestamps && r.table.Has(colUpdatedAt) {
		now := r.now()
		m.Set(colUpdatedAt, now)
		changes[colUpdatedAt] = now
	}

	b := psql.Update(r.table.Name)
	for _, c := range r.table.Columns {
		if v, ok := changes[c.name]; ok {
			b = b.Set(c.name, v)
		}
	}
	query, args, err := b.Where(sq.Eq{colID: m.ID()}).ToSql()
	if err != nil {
		return fmt.Errorf("build update %s: %w", r.table.Name, err)
	}

	if err := r.execOne(ctx, query, args, m.ID(), postgres.MapError); err != nil {
		return err
	}
	m.sync()
	return nil
}

// Delete removes the row behind m. Soft-delete tables stamp deleted_at
// instead. The model keeps its identity after a soft delete and loses it
// after a hard one.
func (r *Repository[E]) Delete(ctx context.Context, m *Model[E]) error {
	if !m.Exists() {
		return fmt.Errorf("delete %s: %w", r.table.Name, domain.ErrNotPersisted)
	}
	if !r.table.SoftDelete {
		return r.ForceDelete(ctx, m)
	}

	now := r.now()
	b := psql.Update(r.table.Name).Set(colDeletedAt, now)
	if r.table.Timestamps && r.table.Has(colUpdatedAt) {
		b = b.Set(colUpdatedAt, now)
	}
	query, args, err := b.Where(sq.Eq{colID: m.ID()}).ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete %s: %w", r.table.Name, err)
	}
	if err := r.execOne(ctx, query, args, m.ID(), postgres.MapError); err != nil {
		return err
	}

	m.Set(colDeletedAt, now)
	if r.table.Timestamps {
		m.Set(colUpdatedAt, now)
	}
	m.sync()
	return nil
}

// ForceDelete removes the row behind m regardless of soft delete.
func (r *Repository[E]) ForceDelete(ctx context.Context, m *Model[E]) error {
	if !m.Exists() {
		return fmt.Errorf("delete %s: %w", r.table.Name, domain.ErrNotPersisted)
	}
	query, args, err := psql.Delete(r.table.Name).Where(sq.Eq{colID: m.ID()}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", r.table.Name, err)
	}
	if err := r.execOne(ctx, query, args, m.ID(), postgres.MapDeleteError); err != nil {
		return err
	}
	m.setID(0)
	return nil
}

// Restore clears deleted_at on a trashed row.
func (r *Repository[E]) Restore(ctx context.Context, m *Model[E]) error {
	if !r.table.SoftDelete {
		return fmt.Errorf("restore %s: table has no soft delete: %w", r.table.Name, domain.ErrConflict)
	}
	if !m.Exists() {
		return fmt.Errorf("restore %s: %w", r.table.Name, domain.ErrNotPersisted)
	}
	m.Set(colDeletedAt, nil)
	return r.Save(ctx, m)
}

// PurgeTrashed hard-deletes rows trashed before the cutoff and returns how
// many were removed.
func (r *Repository[E]) PurgeTrashed(ctx context.Context, before time.Time) (int64, error) {
	if !r.table.SoftDelete {
		return 0, fmt.Errorf("purge %s: table has no soft delete: %w", r.table.Name, domain.ErrConflict)
	}
	query, args, err := psql.Delete(r.table.Name).
		Where(sq.NotEq{colDeletedAt: nil}).
		Where(sq.Lt{colDeletedAt: before}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge %s: %w", r.table.Name, err)
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()
	r.trace(ctx, query)

	tag, err := r.querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, postgres.MapDeleteError(err, r.table.Name, 0)
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repository[E]) querier(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, r.db)
}

func (r *Repository[E]) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Repository[E]) trace(ctx context.Context, query string) {
	attrs := []any{slog.String("query", query), slog.Bool("tx", postgres.InTx(ctx))}
	if id := ctxutil.RequestIDFromCtx(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	r.log.DebugContext(ctx, "sql", attrs...)
}

func (r *Repository[E]) checkField(field string) error {
	if field != colID && !r.table.Has(field) {
		return fmt.Errorf("%s.%s: %w", r.table.Name, field, domain.ErrUnknownField)
	}
	return nil
}

// conditions validates criteria and returns one predicate per field in
// name order so the generated SQL is stable.
func (r *Repository[E]) conditions(criteria Criteria) ([]sq.Sqlizer, error) {
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		if err := r.checkField(k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	conds := make([]sq.Sqlizer, len(keys))
	for i, k := range keys {
		if err := r.checkValue(k, criteria[k]); err != nil {
			return nil, err
		}
		conds[i] = sq.Eq{k: criteria[k]}
	}
	return conds, nil
}

// checkValue rejects lists, which squirrel would expand into IN (...).
func (r *Repository[E]) checkValue(field string, v any) error {
	if isList(v) {
		return fmt.Errorf("%s: %w", r.table.Name, domain.NewValidationError(field, "must be a single value"))
	}
	return nil
}

// isList reports whether v is a slice or array the driver would not bind
// as a single parameter.
func isList(v any) bool {
	if v == nil || driver.IsValue(v) {
		return false
	}
	if _, ok := v.(driver.Valuer); ok {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func (r *Repository[E]) selectBuilder() sq.SelectBuilder {
	b := psql.Select(r.table.selectColumns()...).From(r.table.Name).OrderBy(colID)
	if r.table.SoftDelete {
		b = b.Where(sq.Eq{colDeletedAt: nil})
	}
	return b
}

func (r *Repository[E]) one(ctx context.Context, b sq.SelectBuilder, id int64) (*Model[E], error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s: %w", r.table.Name, err)
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()
	r.trace(ctx, query)

	e := new(E)
	if err := pgxscan.Get(ctx, r.querier(ctx), e, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("%s %d: %w", r.table.Name, id, domain.ErrNotFound)
		}
		return nil, postgres.MapError(err, r.table.Name, id)
	}
	return newModel(r.table, e), nil
}

func (r *Repository[E]) many(ctx context.Context, b sq.SelectBuilder) ([]*Model[E], error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s: %w", r.table.Name, err)
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()
	r.trace(ctx, query)

	var rows []*E
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, r.table.Name, 0)
	}

	out := make([]*Model[E], len(rows))
	for i, e := range rows {
		out[i] = newModel(r.table, e)
	}
	return out, nil
}

func (r *Repository[E]) scalar(ctx context.Context, b sq.SelectBuilder) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count %s: %w", r.table.Name, err)
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()
	r.trace(ctx, query)

	var n int64
	if err := r.querier(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, r.table.Name, 0)
	}
	return n, nil
}

// execOne runs a statement that must touch exactly the row id. mapErr
// classifies driver errors.
func (r *Repository[E]) execOne(ctx context.Context, query string, args []any, id int64, mapErr func(error, string, int64) error) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	r.trace(ctx, query)

	tag, err := r.querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return mapErr(err, r.table.Name, id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", r.table.Name, id, domain.ErrNotFound)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

var (
	// ErrNotFound is returned when an update or delete matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write breaks a unique index
	ErrDuplicate = errors.New("duplicate record")
)

// table describes how one record type maps onto its SQL table
type table[E models.Entity] struct {
	name    string
	columns []string
	// fields returns pointers to e's data fields in column order
	fields func(e E) []any
	newRow func() E
}

// RecordRepository stores one parish record type
type RecordRepository[E models.Entity] struct {
	db *database.DB
	t  table[E]
}

func newRecordRepository[E models.Entity](db *database.DB, t table[E]) *RecordRepository[E] {
	return &RecordRepository[E]{db: db, t: t}
}

// Table returns the name of the underlying table
func (r *RecordRepository[E]) Table() string {
	return r.t.name
}

func (r *RecordRepository[E]) selectColumns() string {
	return "id, created_at, updated_at, " + strings.Join(r.t.columns, ", ")
}

// now is the timestamp stored on writes. Microseconds is the finest
// precision every supported database keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Create inserts e, assigning its ID and timestamps
func (r *RecordRepository[E]) Create(ctx context.Context, e E) error {
	return r.insert(ctx, r.db, e)
}

func (r *RecordRepository[E]) insert(ctx context.Context, q database.DBTX, e E) error {
	meta := e.Meta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	meta.CreatedAt = now()
	meta.UpdatedAt = meta.CreatedAt
	return r.insertRow(ctx, q, e)
}

// Restore inserts e through q keeping its ID and timestamps, as read from a backup
func (r *RecordRepository[E]) Restore(ctx context.Context, q database.DBTX, e E) error {
	return r.insertRow(ctx, q, e)
}

func (r *RecordRepository[E]) insertRow(ctx context.Context, q database.DBTX, e E) error {
	meta := e.Meta()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(r.t.columns)+3), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", r.t.name, r.selectColumns(), placeholders)

	args := append([]any{meta.ID, meta.CreatedAt, meta.UpdatedAt}, values(r.t.fields(e))...)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return writeError("insert into", r.t.name, q, err)
	}
	return nil
}

func writeError(op, table string, q database.DBTX, err error) error {
	if q.GetDialect().IsUniqueViolation(err) {
		return fmt.Errorf("failed to %s %s: %w: %w", op, table, ErrDuplicate, err)
	}
	return fmt.Errorf("failed to %s %s: %w", op, table, err)
}

// Get retrieves a record by ID, returning nil if it does not exist
func (r *RecordRepository[E]) Get(ctx context.Context, id string) (E, error) {
	return r.get(ctx, r.db, id)
}

func (r *RecordRepository[E]) get(ctx context.Context, q database.DBTX, id string) (E, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", r.selectColumns(), r.t.name)
	e, err := r.scan(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		var zero E
		return zero, nil
	}
	if err != nil {
		var zero E
		return zero, fmt.Errorf("failed to get from %s: %w", r.t.name, err)
	}
	return e, nil
}

// List returns every record, newest first
func (r *RecordRepository[E]) List(ctx context.Context) ([]E, error) {
	return r.listWhere(ctx, "")
}

func (r *RecordRepository[E]) listWhere(ctx context.Context, condition string, args ...any) ([]E, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", r.selectColumns(), r.t.name)
	if condition != "" {
		query += " WHERE " + condition
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.t.name, err)
	}
	defer rows.Close()

	records := []E{}
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.t.name, err)
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.t.name, err)
	}
	return records, nil
}

// Update overwrites every data field of e and refreshes its UpdatedAt
func (r *RecordRepository[E]) Update(ctx context.Context, e E) error {
	return r.update(ctx, r.db, e)
}

func (r *RecordRepository[E]) update(ctx context.Context, q database.DBTX, e E) error {
	meta := e.Meta()
	meta.UpdatedAt = now()

	assignments := make([]string, len(r.t.columns))
	for i, c := range r.t.columns {
		assignments[i] = c + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET updated_at = ?, %s WHERE id = ?", r.t.name, strings.Join(assignments, ", "))

	args := append([]any{meta.UpdatedAt}, values(r.t.fields(e))...)
	args = append(args, meta.ID)
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return writeError("update", r.t.name, q, err)
	}
	return requireRow(result)
}

// Delete removes a record by ID
func (r *RecordRepository[E]) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, r.db, id)
}

func (r *RecordRepository[E]) delete(ctx context.Context, q database.DBTX, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.t.name)
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", r.t.name, err)
	}
	return requireRow(result)
}

// Count returns the number of stored records
func (r *RecordRepository[E]) Count(ctx context.Context) (int, error) {
	return r.countWhere(ctx, "")
}

func (r *RecordRepository[E]) countWhere(ctx context.Context, condition string, args ...any) (int, error) {
	query := "SELECT COUNT(*) FROM " + r.t.name
	if condition != "" {
		query += " WHERE " + condition
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.t.name, err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *RecordRepository[E]) scan(s scanner) (E, error) {
	e := r.t.newRow()
	meta := e.Meta()
	dest := append([]any{&meta.ID, &meta.CreatedAt, &meta.UpdatedAt}, r.t.fields(e)...)
	if err := s.Scan(dest...); err != nil {
		var zero E
		return zero, err
	}
	meta.CreatedAt = meta.CreatedAt.UTC()
	meta.UpdatedAt = meta.UpdatedAt.UTC()
	return e, nil
}

// values dereferences field pointers into query arguments
func values(ptrs []any) []any {
	args := make([]any, len(ptrs))
	for i, p := range ptrs {
		switch v := p.(type) {
		case *string:
			args[i] = *v
		case *bool:
			args[i] = *v
		case *int:
			args[i] = *v
		default:
			panic(fmt.Sprintf("repository: unsupported field type %T", p))
		}
	}
	return args
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

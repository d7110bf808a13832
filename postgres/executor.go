package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zoobzio/dynql"
)

// Executor implements dynql.Executor over pgx.
type Executor struct {
	q Querier
}

// NewExecutor returns an Executor running commands on q.
func NewExecutor(q Querier) *Executor {
	return &Executor{q: q}
}

// NamedArgs maps the parameters of cmd by name for pgx to rewrite the
// @name placeholders.
func NamedArgs(cmd *dynql.Command) pgx.NamedArgs {
	args := make(pgx.NamedArgs, len(cmd.Params))
	for _, p := range cmd.Params {
		args[p.Name] = p.Value
	}
	return args
}

func (e *Executor) QueryRows(ctx context.Context, cmd *dynql.Command) ([]dynql.Row, error) {
	rows, err := e.q.Query(ctx, cmd.Text, NamedArgs(cmd))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	var out []dynql.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		out = append(out, dynql.Row{Columns: cols, Values: values})
	}
	return out, rows.Err()
}

func (e *Executor) Exec(ctx context.Context, cmd *dynql.Command) (int64, error) {
	tag, err := e.q.Exec(ctx, cmd.Text, NamedArgs(cmd))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SQLSTATE codes surfaced by the predicates below.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	lockNotAvailable    = "55P03"
)

// ErrorCode returns the SQLSTATE of a server error, or "".
func ErrorCode(err error) string {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool { return ErrorCode(err) == uniqueViolation }

// IsForeignKeyViolation reports whether err is a foreign key failure.
func IsForeignKeyViolation(err error) bool { return ErrorCode(err) == foreignKeyViolation }

// IsLockNotAvailable reports whether a FOR UPDATE NOWAIT or lock timeout
// failed to get its lock.
func IsLockNotAvailable(err error) bool { return ErrorCode(err) == lockNotAvailable }

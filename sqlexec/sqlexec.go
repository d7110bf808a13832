// Package sqlexec runs dynql commands through database/sql.
package sqlexec

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/zoobzio/dynql"
)

// Conn is the part of *sql.DB, *sql.Conn and *sql.Tx an Executor needs.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Executor implements dynql.Executor over a database/sql connection.
type Executor struct {
	conn  Conn
	named bool
}

// New returns an Executor. With named set, parameters are passed as
// sql.Named values; otherwise they are positional in placeholder order.
func New(conn Conn, named bool) *Executor {
	return &Executor{conn: conn, named: named}
}

// ForDialect returns an Executor binding parameters the way d names them.
func ForDialect(conn Conn, d dynql.Dialect) *Executor {
	return New(conn, d.Capabilities().NamedParameters)
}

// Args converts the parameters of cmd to driver arguments.
func (e *Executor) Args(cmd *dynql.Command) []any {
	args := make([]any, len(cmd.Params))
	for i, p := range cmd.Params {
		if e.named {
			args[i] = sql.Named(p.Name, p.Value)
		} else {
			args[i] = p.Value
		}
	}
	return args
}

func (e *Executor) QueryRows(ctx context.Context, cmd *dynql.Command) ([]dynql.Row, error) {
	rows, err := e.conn.QueryContext(ctx, cmd.Text, e.Args(cmd)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return Scan(rows)
}

func (e *Executor) Exec(ctx context.Context, cmd *dynql.Command) (int64, error) {
	res, err := e.conn.ExecContext(ctx, cmd.Text, e.Args(cmd)...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}

// Scan reads every remaining row. Column names are kept in result order so
// eager-load aliases survive.
func Scan(rows *sql.Rows) ([]dynql.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "reading columns")
	}

	var out []dynql.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}
		out = append(out, dynql.Row{Columns: cols, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating rows")
	}
	return out, nil
}

// Package postgres provides the PostgreSQL dialect for dynql, with schema
// introspection and execution over pgx.
package postgres

import (
	"strconv"
	"strings"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/internal/render"
)

// Dialect implements dynql.Dialect for PostgreSQL.
type Dialect struct{}

// New creates a new PostgreSQL dialect.
func New() *Dialect {
	return &Dialect{}
}

func (d *Dialect) Name() string { return "postgres" }

// QuoteObjectName quotes a PostgreSQL identifier with double quotes.
func (d *Dialect) QuoteObjectName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// NameParameter returns an @name placeholder, rewritten to $n by
// pgx.NamedArgs at execution.
func (d *Dialect) NameParameter(name string) string { return "@" + name }

// Operators adds ILIKE to the standard tokens.
func (d *Dialect) Operators() dynql.Operators {
	ops := dynql.StandardOperators
	ops.ILike, ops.NotILike = "ILIKE", "NOT ILIKE"
	return ops
}

func (d *Dialect) ConvertFunctionName(name string) string {
	switch strings.ToLower(name) {
	case "len":
		return "length"
	case "substring":
		return "substr"
	default:
		return name
	}
}

func (d *Dialect) ApplyPaging(sql string, skip, take int) (string, error) {
	if take >= 0 {
		sql += " LIMIT " + strconv.Itoa(take)
	}
	if skip > 0 {
		sql += " OFFSET " + strconv.Itoa(skip)
	}
	return sql, nil
}

func (d *Dialect) ApplyLock(sql string, lock dynql.ForUpdateClause) (string, error) {
	sql += " FOR UPDATE"
	if lock.SkipLocked {
		sql += " SKIP LOCKED"
	}
	return sql, nil
}

func (d *Dialect) OptimizeFindOne(sql string) string {
	return sql + " LIMIT 1"
}

// Capabilities returns the SQL features supported by PostgreSQL.
func (d *Dialect) Capabilities() render.Capabilities {
	return render.Capabilities{
		Paging:          render.PagingLimitOffset,
		RowLocking:      render.RowLockingSkipLocked,
		NamedParameters: true,
	}
}

// Package sqlite provides the SQLite dialect for dynql.
package sqlite

import (
	"strconv"
	"strings"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/internal/render"
)

// Dialect implements dynql.Dialect for SQLite.
type Dialect struct{}

// New creates a new SQLite dialect.
func New() *Dialect {
	return &Dialect{}
}

func (d *Dialect) Name() string { return "sqlite" }

// QuoteObjectName quotes a SQLite identifier with double quotes.
func (d *Dialect) QuoteObjectName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *Dialect) NameParameter(name string) string { return "@" + name }

func (d *Dialect) Operators() dynql.Operators { return dynql.StandardOperators }

// ConvertFunctionName maps SQL Server spellings onto SQLite's.
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

// ApplyPaging appends LIMIT and OFFSET. SQLite has no OFFSET without LIMIT,
// so a skip alone uses LIMIT -1.
func (d *Dialect) ApplyPaging(sql string, skip, take int) (string, error) {
	switch {
	case take >= 0:
		sql += " LIMIT " + strconv.Itoa(take)
	case skip > 0:
		sql += " LIMIT -1"
	}
	if skip > 0 {
		sql += " OFFSET " + strconv.Itoa(skip)
	}
	return sql, nil
}

// ApplyLock always fails; SQLite locks at the database level.
func (d *Dialect) ApplyLock(_ string, _ dynql.ForUpdateClause) (string, error) {
	return "", render.NewUnsupportedFeatureError("sqlite", "FOR UPDATE",
		"SQLite serializes writers at the database level; use a write transaction")
}

func (d *Dialect) OptimizeFindOne(sql string) string {
	return sql + " LIMIT 1"
}

// Capabilities returns the SQL features supported by SQLite.
func (d *Dialect) Capabilities() render.Capabilities {
	return render.Capabilities{
		Paging:          render.PagingLimitOffset,
		RowLocking:      render.RowLockingNone,
		NamedParameters: true,
	}
}

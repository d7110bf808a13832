// Package mysql provides the MySQL and MariaDB dialect for dynql.
package mysql

import (
	"strconv"
	"strings"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/internal/render"
)

// maxRows is the documented way to OFFSET without a LIMIT in MySQL.
const maxRows = "18446744073709551615"

// Dialect implements dynql.Dialect for MySQL and MariaDB.
type Dialect struct{}

// New creates a new MySQL dialect.
func New() *Dialect {
	return &Dialect{}
}

func (d *Dialect) Name() string { return "mysql" }

// QuoteObjectName quotes a MySQL identifier with backticks.
func (d *Dialect) QuoteObjectName(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// NameParameter returns the positional placeholder; the driver binds by
// position so every parameter reads "?".
func (d *Dialect) NameParameter(string) string { return "?" }

func (d *Dialect) Operators() dynql.Operators { return dynql.StandardOperators }

// ConvertFunctionName counts characters rather than bytes for length.
func (d *Dialect) ConvertFunctionName(name string) string {
	switch strings.ToLower(name) {
	case "len", "length":
		return "char_length"
	default:
		return name
	}
}

func (d *Dialect) ApplyPaging(sql string, skip, take int) (string, error) {
	switch {
	case take >= 0:
		sql += " LIMIT " + strconv.Itoa(take)
	case skip > 0:
		sql += " LIMIT " + maxRows
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

// Capabilities returns the SQL features supported by MySQL 8 and MariaDB
// 10.6 or later.
func (d *Dialect) Capabilities() render.Capabilities {
	return render.Capabilities{
		Paging:          render.PagingLimitOffset,
		RowLocking:      render.RowLockingSkipLocked,
		NamedParameters: false,
	}
}

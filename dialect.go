package dynql

import (
	"context"
)

// Dialect is the SQL syntax of one database engine.
type Dialect interface {
	// Name identifies the dialect in errors and logs.
	Name() string

	// QuoteObjectName quotes a single identifier.
	QuoteObjectName(name string) string

	// NameParameter returns the placeholder for a parameter name.
	NameParameter(name string) string

	Operators() Operators

	// ConvertFunctionName maps a function name to the dialect's spelling.
	ConvertFunctionName(name string) string

	Capabilities() Capabilities

	// ApplyPaging limits a rendered select. A negative take means no limit.
	ApplyPaging(sql string, skip, take int) (string, error)

	// ApplyLock adds row locking to a rendered select.
	ApplyLock(sql string, lock ForUpdateClause) (string, error)

	// OptimizeFindOne rewrites a select that needs a single row.
	OptimizeFindOne(sql string) string
}

// Executor runs finalized commands.
type Executor interface {
	QueryRows(ctx context.Context, cmd *Command) ([]Row, error)
	Exec(ctx context.Context, cmd *Command) (int64, error)
}

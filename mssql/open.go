package mssql

import (
	"context"
	"database/sql"
	"errors"
	"net/url"

	mssqldb "github.com/microsoft/go-mssqldb"
	pkgerrors "github.com/pkg/errors"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/sqlexec"
)

// DriverName is the database/sql driver registered by go-mssqldb for
// sqlserver:// URLs.
const DriverName = "sqlserver"

// Server error numbers surfaced by the predicates below.
const (
	errUniqueConstraint = 2627
	errUniqueIndex      = 2601
	errConstraintFailed = 547
	errLockTimeout      = 1222
)

// Open connects with a sqlserver:// URL and returns a handle that closes
// the connection on Close. Unqualified names resolve against the login's
// default schema.
func Open(ctx context.Context, dsn string, opts ...dynql.Option) (*dynql.Database, error) {
	connector, err := mssqldb.NewConnector(dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "parsing sqlserver dsn")
	}
	conn := sql.OpenDB(connector)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, pkgerrors.Wrap(err, "connecting to sqlserver")
	}

	var defaultSchema string
	if err := conn.QueryRowContext(ctx, "SELECT SCHEMA_NAME()").Scan(&defaultSchema); err != nil {
		_ = conn.Close()
		return nil, pkgerrors.Wrap(err, "reading default schema")
	}

	db := OpenDB(conn, defaultSchema, append(opts, dynql.WithCloser(conn), dynql.WithConnectionKey(connectionKey(dsn)))...)
	if err := db.Load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB returns a handle over an existing connection. The caller keeps
// ownership of conn.
func OpenDB(conn *sql.DB, defaultSchema string, opts ...dynql.Option) *dynql.Database {
	d := New()
	return dynql.Open(NewProvider(conn, defaultSchema), d, sqlexec.ForDialect(conn, d), opts...)
}

// connectionKey identifies the server and database without credentials.
func connectionKey(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "sqlserver:" + dsn
	}
	return "sqlserver:" + u.Host + u.Path + "/" + u.Query().Get("database")
}

// IsUniqueViolation reports whether err is a duplicate key in a unique
// constraint or unique index.
func IsUniqueViolation(err error) bool {
	return hasNumber(err, errUniqueConstraint, errUniqueIndex)
}

// IsForeignKeyViolation reports whether err is a failed constraint check.
// SQL Server uses one number for foreign key and check constraints.
func IsForeignKeyViolation(err error) bool {
	return hasNumber(err, errConstraintFailed)
}

// IsLockTimeout reports whether err is an expired LOCK_TIMEOUT.
func IsLockTimeout(err error) bool {
	return hasNumber(err, errLockTimeout)
}

func hasNumber(err error, numbers ...int32) bool {
	var n int32
	var me mssqldb.Error
	var pme *mssqldb.Error
	switch {
	case errors.As(err, &me):
		n = me.Number
	case errors.As(err, &pme):
		n = pme.Number
	default:
		return false
	}
	for _, want := range numbers {
		if n == want {
			return true
		}
	}
	return false
}

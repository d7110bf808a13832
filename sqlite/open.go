package sqlite

import (
	"context"
	"database/sql"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/sqlexec"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Open connects to the database at dsn and returns a handle that closes the
// connection on Close.
func Open(ctx context.Context, dsn string, opts ...dynql.Option) (*dynql.Database, error) {
	conn, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "opening sqlite")
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, pkgerrors.Wrap(err, "connecting to sqlite")
	}
	db := OpenDB(conn, append(opts, dynql.WithCloser(conn), dynql.WithConnectionKey("sqlite:"+dsn))...)
	if err := db.Load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB returns a handle over an existing connection. The caller keeps
// ownership of conn.
func OpenDB(conn *sql.DB, opts ...dynql.Option) *dynql.Database {
	d := New()
	return dynql.Open(NewProvider(conn), d, sqlexec.ForDialect(conn, d), opts...)
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

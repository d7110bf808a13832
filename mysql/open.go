package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/sqlexec"
)

// Server error numbers surfaced by IsUniqueViolation and IsForeignKeyViolation.
const (
	errDupEntry        = 1062
	errNoReferencedRow = 1452
	errRowIsReferenced = 1451
)

// Config parses dsn and makes time values come back as time.Time.
func Config(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "parsing mysql dsn")
	}
	if cfg.DBName == "" {
		return nil, pkgerrors.New("mysql dsn must name a database")
	}
	cfg.ParseTime = true
	return cfg, nil
}

// Open connects with dsn and returns a handle that closes the connection
// on Close.
func Open(ctx context.Context, dsn string, opts ...dynql.Option) (*dynql.Database, error) {
	cfg, err := Config(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "creating mysql connector")
	}
	conn := sql.OpenDB(connector)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, pkgerrors.Wrap(err, "connecting to mysql")
	}

	key := "mysql:" + cfg.Addr + "/" + cfg.DBName
	db := OpenDB(conn, cfg.DBName, append(opts, dynql.WithCloser(conn), dynql.WithConnectionKey(key))...)
	if err := db.Load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB returns a handle over an existing connection to database. The
// caller keeps ownership of conn.
func OpenDB(conn *sql.DB, database string, opts ...dynql.Option) *dynql.Database {
	d := New()
	return dynql.Open(NewProvider(conn, database), d, sqlexec.ForDialect(conn, d), opts...)
}

// IsUniqueViolation reports whether err is a duplicate key error.
func IsUniqueViolation(err error) bool {
	return hasNumber(err, errDupEntry)
}

// IsForeignKeyViolation reports whether err is a failed foreign key check
// on either side of the relation.
func IsForeignKeyViolation(err error) bool {
	return hasNumber(err, errNoReferencedRow, errRowIsReferenced)
}

func hasNumber(err error, numbers ...uint16) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	for _, n := range numbers {
		if me.Number == n {
			return true
		}
	}
	return false
}

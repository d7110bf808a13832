package integration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoobzio/dynql/sqlite"
)

const sqliteSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL,
	age INTEGER,
	active BOOLEAN DEFAULT 1
);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY,
	user_id INTEGER REFERENCES users(id),
	title TEXT NOT NULL,
	views INTEGER DEFAULT 0
);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	user_id INTEGER REFERENCES users(id),
	total REAL NOT NULL,
	status TEXT DEFAULT 'pending'
);
`

func TestSQLite_Suite(t *testing.T) {
	conn, err := sql.Open(sqlite.DriverName, ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(sqliteSchema)
	require.NoError(t, err)

	db := sqlite.OpenDB(conn)
	require.NoError(t, db.Load(context.Background()))
	runSuite(t, db)
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/zoobzio/dynql"
)

type poolCloser struct{ pool *pgxpool.Pool }

func (c poolCloser) Close() error {
	c.pool.Close()
	return nil
}

// Open creates a connection pool for dsn and returns a handle that closes
// the pool on Close. The default schema is the server's current_schema().
func Open(ctx context.Context, dsn string, opts ...dynql.Option) (*dynql.Database, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parsing postgres dsn")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating postgres pool")
	}

	var current string
	if err := pool.QueryRow(ctx, "SELECT current_schema()").Scan(&current); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "reading current schema")
	}

	cc := cfg.ConnConfig
	key := "postgres:" + cc.Host + "/" + cc.Database
	db := OpenPool(pool, current, append(opts, dynql.WithCloser(poolCloser{pool}), dynql.WithConnectionKey(key))...)
	if err := db.Load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenPool returns a handle over q, which may be a pool, a connection or
// a transaction. The caller keeps ownership of q.
func OpenPool(q Querier, defaultSchema string, opts ...dynql.Option) *dynql.Database {
	return dynql.Open(NewProvider(q, defaultSchema), New(), NewExecutor(q), opts...)
}

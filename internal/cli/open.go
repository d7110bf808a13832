package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/mssql"
	"github.com/zoobzio/dynql/mysql"
	"github.com/zoobzio/dynql/postgres"
	"github.com/zoobzio/dynql/sqlite"
)

// open connects with the configured driver and loads the schema.
func open(ctx context.Context, cfg *Config, log *logrus.Logger) (*dynql.Database, error) {
	opts := []dynql.Option{dynql.WithLogger(logrus.NewEntry(log).WithField("driver", cfg.Driver))}

	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(ctx, cfg.DSN, opts...)
	case "postgres":
		return postgres.Open(ctx, cfg.DSN, opts...)
	case "mysql":
		return mysql.Open(ctx, cfg.DSN, opts...)
	case "sqlserver":
		return mssql.Open(ctx, cfg.DSN, opts...)
	}
	return nil, errors.Errorf("unknown driver %q", cfg.Driver)
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/zoobzio/dynql/schema"
)

// Querier is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Provider reads metadata from information_schema and pg_catalog. System
// schemas are skipped. Catalog columns are cast to text and int because
// their domain types have no pgx codec.
type Provider struct {
	q             Querier
	defaultSchema string
}

// NewProvider returns a Provider. defaultSchema qualifies unqualified
// names, normally "public".
func NewProvider(q Querier, defaultSchema string) *Provider {
	if defaultSchema == "" {
		defaultSchema = "public"
	}
	return &Provider{q: q, defaultSchema: defaultSchema}
}

func (p *Provider) Tables(ctx context.Context) ([]schema.TableInfo, error) {
	rows, err := p.q.Query(ctx, `
		SELECT table_schema::text, table_name::text, table_type::text
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		  AND table_schema NOT LIKE 'pg_toast%'
		ORDER BY table_schema, table_name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying tables")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.TableInfo, error) {
		var info schema.TableInfo
		var kind string
		if err := row.Scan(&info.Schema, &info.Name, &kind); err != nil {
			return info, err
		}
		if kind == "VIEW" {
			info.Type = schema.View
		}
		return info, nil
	})
	return out, errors.Wrap(err, "reading tables")
}

func (p *Provider) Columns(ctx context.Context, table schema.TableInfo) ([]schema.ColumnInfo, error) {
	rows, err := p.q.Query(ctx, `
		SELECT column_name::text,
		       data_type::text,
		       COALESCE(character_maximum_length, 0)::int,
		       is_identity = 'YES' OR COALESCE(column_default, '') LIKE 'nextval(%',
		       is_generated = 'ALWAYS'
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, table.Schema, table.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "querying columns of %s", table.Name)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.ColumnInfo, error) {
		var (
			c   schema.ColumnInfo
			typ string
		)
		if err := row.Scan(&c.Name, &typ, &c.MaxLength, &c.IsIdentity, &c.IsComputed); err != nil {
			return c, err
		}
		c.DbType = schema.ParseDbType(typ)
		return c, nil
	})
	return out, errors.Wrapf(err, "reading columns of %s", table.Name)
}

func (p *Provider) PrimaryKey(ctx context.Context, table schema.TableInfo) ([]string, error) {
	rows, err := p.q.Query(ctx, `
		SELECT kcu.column_name::text
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_schema = tc.constraint_schema
		 AND kcu.constraint_name = tc.constraint_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`, table.Schema, table.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "querying primary key of %s", table.Name)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return out, errors.Wrapf(err, "reading primary key of %s", table.Name)
}

// ForeignKeys reads pg_constraint directly; information_schema cannot pair
// the columns of a key referencing a unique constraint that is not the
// primary key.
func (p *Provider) ForeignKeys(ctx context.Context, table schema.TableInfo) ([]schema.ForeignKeyInfo, error) {
	rows, err := p.q.Query(ctx, `
		SELECT con.conname::text, a.attname::text, mn.nspname::text, mc.relname::text, ma.attname::text
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_class mc ON mc.oid = con.confrelid
		JOIN pg_namespace mn ON mn.oid = mc.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, fattnum, ord)
		JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		JOIN pg_attribute ma ON ma.attrelid = con.confrelid AND ma.attnum = k.fattnum
		WHERE con.contype = 'f' AND n.nspname = $1 AND c.relname = $2
		ORDER BY con.conname, k.ord`, table.Schema, table.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "querying foreign keys of %s", table.Name)
	}
	cols, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.ForeignKeyColumn, error) {
		var c schema.ForeignKeyColumn
		err := row.Scan(&c.Name, &c.Column, &c.MasterSchema, &c.MasterTable, &c.MasterColumn)
		return c, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "reading foreign keys of %s", table.Name)
	}
	return schema.GroupForeignKeys(cols), nil
}

func (p *Provider) Procedures(ctx context.Context) ([]schema.ProcedureInfo, error) {
	rows, err := p.q.Query(ctx, `
		SELECT routine_schema::text, routine_name::text
		FROM information_schema.routines
		WHERE routine_type IN ('PROCEDURE', 'FUNCTION')
		  AND routine_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY routine_schema, routine_name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying procedures")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.ProcedureInfo, error) {
		var info schema.ProcedureInfo
		err := row.Scan(&info.Schema, &info.Name)
		return info, err
	})
	return out, errors.Wrap(err, "reading procedures")
}

func (p *Provider) Parameters(ctx context.Context, proc schema.ProcedureInfo) ([]schema.ParameterInfo, error) {
	rows, err := p.q.Query(ctx, `
		SELECT COALESCE(pa.parameter_name, '')::text, pa.data_type::text,
		       COALESCE(pa.character_maximum_length, 0)::int, COALESCE(pa.parameter_mode, '')::text
		FROM information_schema.parameters pa
		JOIN information_schema.routines r
		  ON r.specific_schema = pa.specific_schema
		 AND r.specific_name = pa.specific_name
		WHERE r.routine_schema = $1 AND r.routine_name = $2
		ORDER BY pa.ordinal_position`, proc.Schema, proc.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "querying parameters of %s", proc.Name)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.ParameterInfo, error) {
		var (
			info      schema.ParameterInfo
			typ, mode string
		)
		if err := row.Scan(&info.Name, &typ, &info.MaxLength, &mode); err != nil {
			return info, err
		}
		info.DbType = schema.ParseDbType(typ)
		info.Direction = schema.ParseDirection(mode)
		return info, nil
	})
	return out, errors.Wrapf(err, "reading parameters of %s", proc.Name)
}

func (p *Provider) DefaultSchema() string { return p.defaultSchema }

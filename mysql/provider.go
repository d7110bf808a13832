package mysql

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/zoobzio/dynql/schema"
	"github.com/zoobzio/dynql/sqlexec"
)

// Provider reads metadata for one database from information_schema.
type Provider struct {
	conn     sqlexec.Conn
	database string
}

// NewProvider returns a Provider for the named database.
func NewProvider(conn sqlexec.Conn, database string) *Provider {
	return &Provider{conn: conn, database: database}
}

func (p *Provider) Tables(ctx context.Context) ([]schema.TableInfo, error) {
	rows, err := p.conn.QueryContext(ctx, `
		SELECT TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME`, p.database)
	if err != nil {
		return nil, errors.Wrap(err, "querying tables")
	}
	defer rows.Close()

	var out []schema.TableInfo
	for rows.Next() {
		var info schema.TableInfo
		var kind string
		if err := rows.Scan(&info.Schema, &info.Name, &kind); err != nil {
			return nil, errors.Wrap(err, "scanning table")
		}
		if kind == "VIEW" {
			info.Type = schema.View
		}
		out = append(out, info)
	}
	return out, errors.Wrap(rows.Err(), "reading tables")
}

func (p *Provider) Columns(ctx context.Context, table schema.TableInfo) ([]schema.ColumnInfo, error) {
	rows, err := p.conn.QueryContext(ctx, `
		SELECT COLUMN_NAME, COLUMN_TYPE, COALESCE(CHARACTER_MAXIMUM_LENGTH, 0), EXTRA
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, table.Schema, table.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "querying columns of %s", table.Name)
	}
	defer rows.Close()

	var out []schema.ColumnInfo
	for rows.Next() {
		var (
			name, typ, extra string
			maxLen           int64
		)
		if err := rows.Scan(&name, &typ, &maxLen, &extra); err != nil {
			return nil, errors.Wrap(err, "scanning column")
		}
		extra = strings.ToLower(extra)
		out = append(out, schema.ColumnInfo{
			Name:       name,
			DbType:     parseColumnType(typ),
			MaxLength:  clampLength(maxLen),
			IsIdentity: strings.Contains(extra, "auto_increment"),
			IsComputed: strings.Contains(extra, "generated"),
		})
	}
	return out, errors.Wrapf(rows.Err(), "reading columns of %s", table.Name)
}

func (p *Provider) PrimaryKey(ctx context.Context, table schema.TableInfo) ([]string, error) {
	rows, err := p.conn.QueryContext(ctx, `
		SELECT COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY ORDINAL_POSITION`, table.Schema, table.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "querying primary key of %s", table.Name)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, errors.Wrap(err, "scanning key column")
		}
		out = append(out, col)
	}
	return out, errors.Wrapf(rows.Err(), "reading primary key of %s", table.Name)
}

func (p *Provider) ForeignKeys(ctx context.Context, table schema.TableInfo) ([]schema.ForeignKeyInfo, error) {
	rows, err := p.conn.QueryContext(ctx, `
		SELECT CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_SCHEMA, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`, table.Schema, table.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "querying foreign keys of %s", table.Name)
	}
	defer rows.Close()

	var cols []schema.ForeignKeyColumn
	for rows.Next() {
		var c schema.ForeignKeyColumn
		if err := rows.Scan(&c.Name, &c.Column, &c.MasterSchema, &c.MasterTable, &c.MasterColumn); err != nil {
			return nil, errors.Wrap(err, "scanning foreign key")
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading foreign keys of %s", table.Name)
	}
	return schema.GroupForeignKeys(cols), nil
}

func (p *Provider) Procedures(ctx context.Context) ([]schema.ProcedureInfo, error) {
	rows, err := p.conn.QueryContext(ctx, `
		SELECT ROUTINE_SCHEMA, ROUTINE_NAME
		FROM information_schema.ROUTINES
		WHERE ROUTINE_SCHEMA = ? AND ROUTINE_TYPE = 'PROCEDURE'
		ORDER BY ROUTINE_NAME`, p.database)
	if err != nil {
		return nil, errors.Wrap(err, "querying procedures")
	}
	defer rows.Close()

	var out []schema.ProcedureInfo
	for rows.Next() {
		var info schema.ProcedureInfo
		if err := rows.Scan(&info.Schema, &info.Name); err != nil {
			return nil, errors.Wrap(err, "scanning procedure")
		}
		out = append(out, info)
	}
	return out, errors.Wrap(rows.Err(), "reading procedures")
}

func (p *Provider) Parameters(ctx context.Context, proc schema.ProcedureInfo) ([]schema.ParameterInfo, error) {
	rows, err := p.conn.QueryContext(ctx, `
		SELECT COALESCE(PARAMETER_NAME, ''), DATA_TYPE, COALESCE(CHARACTER_MAXIMUM_LENGTH, 0), COALESCE(PARAMETER_MODE, '')
		FROM information_schema.PARAMETERS
		WHERE SPECIFIC_SCHEMA = ? AND SPECIFIC_NAME = ?
		ORDER BY ORDINAL_POSITION`, proc.Schema, proc.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "querying parameters of %s", proc.Name)
	}
	defer rows.Close()

	var out []schema.ParameterInfo
	for rows.Next() {
		var (
			name, typ, mode string
			maxLen          int64
		)
		if err := rows.Scan(&name, &typ, &maxLen, &mode); err != nil {
			return nil, errors.Wrap(err, "scanning parameter")
		}
		out = append(out, schema.ParameterInfo{
			Name:      name,
			DbType:    schema.ParseDbType(typ),
			MaxLength: clampLength(maxLen),
			Direction: schema.ParseDirection(mode),
		})
	}
	return out, errors.Wrapf(rows.Err(), "reading parameters of %s", proc.Name)
}

func (p *Provider) DefaultSchema() string { return p.database }

// parseColumnType reads COLUMN_TYPE, which unlike DATA_TYPE tells
// tinyint(1) booleans apart.
func parseColumnType(typ string) schema.DbType {
	t := strings.ToLower(typ)
	if t == "tinyint(1)" || strings.HasPrefix(t, "tinyint(1) ") {
		return schema.Boolean
	}
	if i := strings.IndexByte(t, ' '); i >= 0 {
		t = t[:i]
	}
	return schema.ParseDbType(t)
}

// clampLength folds the 4GB lengths of LONGTEXT into an int.
func clampLength(n int64) int {
	const maxInt32 = 1<<31 - 1
	if n > maxInt32 {
		return -1
	}
	return int(n)
}

package mssql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/zoobzio/dynql/schema"
	"github.com/zoobzio/dynql/sqlexec"
)

// Provider reads metadata from INFORMATION_SCHEMA and the sys catalog
// views. Every schema in the database is visible.
type Provider struct {
	conn          sqlexec.Conn
	defaultSchema string
}

// NewProvider returns a Provider resolving unqualified names against
// defaultSchema, or dbo when it is empty.
func NewProvider(conn sqlexec.Conn, defaultSchema string) *Provider {
	if defaultSchema == "" {
		defaultSchema = "dbo"
	}
	return &Provider{conn: conn, defaultSchema: defaultSchema}
}

func objectID(schemaName, name string) string {
	d := New()
	return d.QuoteObjectName(schemaName) + "." + d.QuoteObjectName(name)
}

func (p *Provider) Tables(ctx context.Context) ([]schema.TableInfo, error) {
	rows, err := p.conn.QueryContext(ctx, `
		SELECT TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE
		FROM INFORMATION_SCHEMA.TABLES
		ORDER BY TABLE_SCHEMA, TABLE_NAME`)
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
		SELECT c.name, TYPE_NAME(c.system_type_id), c.max_length, c.is_identity, c.is_computed
		FROM sys.columns c
		WHERE c.object_id = OBJECT_ID(@object)
		ORDER BY c.column_id`, sql.Named("object", objectID(table.Schema, table.Name)))
	if err != nil {
		return nil, errors.Wrapf(err, "querying columns of %s", table.Name)
	}
	defer rows.Close()

	var out []schema.ColumnInfo
	for rows.Next() {
		var (
			name               string
			typ                sql.NullString
			maxLen             int64
			identity, computed bool
		)
		if err := rows.Scan(&name, &typ, &maxLen, &identity, &computed); err != nil {
			return nil, errors.Wrap(err, "scanning column")
		}
		out = append(out, schema.ColumnInfo{
			Name:       name,
			DbType:     schema.ParseDbType(typ.String),
			MaxLength:  columnLength(typ.String, maxLen),
			IsIdentity: identity,
			IsComputed: computed,
		})
	}
	return out, errors.Wrapf(rows.Err(), "reading columns of %s", table.Name)
}

// columnLength converts sys.columns byte lengths to characters. Unicode
// types store two bytes per character; -1 marks MAX.
func columnLength(typ string, n int64) int {
	if n < 0 {
		return -1
	}
	switch strings.ToLower(typ) {
	case "nchar", "nvarchar":
		return int(n / 2)
	case "text", "ntext", "image":
		return -1
	}
	return int(n)
}

func (p *Provider) PrimaryKey(ctx context.Context, table schema.TableInfo) ([]string, error) {
	rows, err := p.conn.QueryContext(ctx, `
		SELECT kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON kcu.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA AND kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = @schema AND tc.TABLE_NAME = @table
		ORDER BY kcu.ORDINAL_POSITION`,
		sql.Named("schema", table.Schema), sql.Named("table", table.Name))
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

// ForeignKeys reads sys.foreign_key_columns, which unlike
// INFORMATION_SCHEMA also sees keys that reference a unique index.
func (p *Provider) ForeignKeys(ctx context.Context, table schema.TableInfo) ([]schema.ForeignKeyInfo, error) {
	rows, err := p.conn.QueryContext(ctx, `
		SELECT fk.name, pc.name, SCHEMA_NAME(rt.schema_id), rt.name, rc.name
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE fk.parent_object_id = OBJECT_ID(@object)
		ORDER BY fk.name, fkc.constraint_column_id`, sql.Named("object", objectID(table.Schema, table.Name)))
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
		FROM INFORMATION_SCHEMA.ROUTINES
		WHERE ROUTINE_TYPE = 'PROCEDURE'
		ORDER BY ROUTINE_SCHEMA, ROUTINE_NAME`)
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
		SELECT PARAMETER_NAME, DATA_TYPE, COALESCE(CHARACTER_MAXIMUM_LENGTH, 0), PARAMETER_MODE, IS_RESULT
		FROM INFORMATION_SCHEMA.PARAMETERS
		WHERE SPECIFIC_SCHEMA = @schema AND SPECIFIC_NAME = @name
		ORDER BY ORDINAL_POSITION`,
		sql.Named("schema", proc.Schema), sql.Named("name", proc.Name))
	if err != nil {
		return nil, errors.Wrapf(err, "querying parameters of %s", proc.Name)
	}
	defer rows.Close()

	var out []schema.ParameterInfo
	for rows.Next() {
		var (
			name, typ, mode, result string
			maxLen                  int64
		)
		if err := rows.Scan(&name, &typ, &maxLen, &mode, &result); err != nil {
			return nil, errors.Wrap(err, "scanning parameter")
		}
		dir := schema.ParseDirection(mode)
		if result == "YES" {
			dir = schema.Return
		}
		out = append(out, schema.ParameterInfo{
			Name:      strings.TrimPrefix(name, "@"),
			DbType:    schema.ParseDbType(typ),
			MaxLength: int(maxLen),
			Direction: dir,
		})
	}
	return out, errors.Wrapf(rows.Err(), "reading parameters of %s", proc.Name)
}

func (p *Provider) DefaultSchema() string { return p.defaultSchema }

package schema

import (
	"context"
	"strings"
)

// TableType distinguishes base tables from views.
type TableType uint8

const (
	BaseTable TableType = iota
	View
)

// TableInfo is raw table metadata.
type TableInfo struct {
	Schema string
	Name   string
	Type   TableType
}

// ColumnInfo is raw column metadata.
type ColumnInfo struct {
	Name       string
	DbType     DbType
	MaxLength  int
	IsIdentity bool
	IsComputed bool
}

// ForeignKeyInfo is one foreign key of a detail table. Columns and
// MasterColumns pair up by position.
type ForeignKeyInfo struct {
	Name          string
	Columns       []string
	MasterSchema  string
	MasterTable   string
	MasterColumns []string
}

// ProcedureInfo is raw stored procedure metadata.
type ProcedureInfo struct {
	Schema string
	Name   string
}

// ParameterDirection is the direction of a procedure parameter.
type ParameterDirection uint8

const (
	In ParameterDirection = iota
	Out
	InOut
	Return
)

// ParameterInfo is raw procedure parameter metadata.
type ParameterInfo struct {
	Name      string
	DbType    DbType
	MaxLength int
	Direction ParameterDirection
}

// Provider reads database metadata. Implementations talk to the catalog of
// a particular database engine.
type Provider interface {
	Tables(ctx context.Context) ([]TableInfo, error)
	Columns(ctx context.Context, table TableInfo) ([]ColumnInfo, error)
	PrimaryKey(ctx context.Context, table TableInfo) ([]string, error)
	ForeignKeys(ctx context.Context, table TableInfo) ([]ForeignKeyInfo, error)
	Procedures(ctx context.Context) ([]ProcedureInfo, error)
	Parameters(ctx context.Context, proc ProcedureInfo) ([]ParameterInfo, error)
	DefaultSchema() string
}

// Dialect supplies the identifier quoting and parameter naming of a SQL
// dialect.
type Dialect interface {
	Name() string
	QuoteObjectName(name string) string
	NameParameter(name string) string
}

// ForeignKeyColumn is one column of a foreign key as engine catalogs list
// them: one row per column, keyed by constraint name.
type ForeignKeyColumn struct {
	Name         string
	Column       string
	MasterSchema string
	MasterTable  string
	MasterColumn string
}

// GroupForeignKeys folds catalog rows into keys. Rows of one constraint must
// be adjacent and in column order.
func GroupForeignKeys(rows []ForeignKeyColumn) []ForeignKeyInfo {
	var out []ForeignKeyInfo
	for _, r := range rows {
		if n := len(out); n == 0 || out[n-1].Name != r.Name {
			out = append(out, ForeignKeyInfo{
				Name:         r.Name,
				MasterSchema: r.MasterSchema,
				MasterTable:  r.MasterTable,
			})
		}
		fk := &out[len(out)-1]
		fk.Columns = append(fk.Columns, r.Column)
		fk.MasterColumns = append(fk.MasterColumns, r.MasterColumn)
	}
	return out
}

// ParseDirection maps an information_schema PARAMETER_MODE onto a
// direction. An empty mode is a function's return value.
func ParseDirection(mode string) ParameterDirection {
	switch strings.ToUpper(strings.TrimSpace(mode)) {
	case "IN":
		return In
	case "OUT":
		return Out
	case "INOUT", "IN/OUT":
		return InOut
	default:
		return Return
	}
}

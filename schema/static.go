package schema

import (
	"context"
	"strings"
)

type staticTable struct {
	info        TableInfo
	columns     []ColumnInfo
	primaryKey  []string
	foreignKeys []ForeignKeyInfo
}

type staticProcedure struct {
	info   ProcedureInfo
	params []ParameterInfo
}

// StaticProvider serves metadata declared in code. It backs tests and
// schemas built from DBML.
type StaticProvider struct {
	defaultSchema string
	tables        []*staticTable
	procedures    []*staticProcedure
}

// NewStaticProvider returns an empty provider.
func NewStaticProvider(defaultSchema string) *StaticProvider {
	return &StaticProvider{defaultSchema: defaultSchema}
}

func (p *StaticProvider) table(schema, name string) *staticTable {
	for _, t := range p.tables {
		if strings.EqualFold(t.info.Schema, schema) && strings.EqualFold(t.info.Name, name) {
			return t
		}
	}
	return nil
}

// AddTable declares a table in the default schema.
func (p *StaticProvider) AddTable(name string, columns ...ColumnInfo) *StaticProvider {
	return p.AddTableInfo(TableInfo{Schema: p.defaultSchema, Name: name}, columns...)
}

// AddTableInfo declares a table, replacing any earlier declaration.
func (p *StaticProvider) AddTableInfo(info TableInfo, columns ...ColumnInfo) *StaticProvider {
	if t := p.table(info.Schema, info.Name); t != nil {
		t.info = info
		t.columns = columns
		return p
	}
	p.tables = append(p.tables, &staticTable{info: info, columns: columns})
	return p
}

// SetPrimaryKey sets the primary key of a table in the default schema.
func (p *StaticProvider) SetPrimaryKey(table string, columns ...string) *StaticProvider {
	if t := p.table(p.defaultSchema, table); t != nil {
		t.primaryKey = columns
	}
	return p
}

// AddForeignKey declares that detail.columns references master.masterColumns,
// both tables in the default schema.
func (p *StaticProvider) AddForeignKey(detail string, columns []string, master string, masterColumns []string) *StaticProvider {
	if t := p.table(p.defaultSchema, detail); t != nil {
		t.foreignKeys = append(t.foreignKeys, ForeignKeyInfo{
			Name:          "FK_" + detail + "_" + master,
			Columns:       columns,
			MasterSchema:  p.defaultSchema,
			MasterTable:   master,
			MasterColumns: masterColumns,
		})
	}
	return p
}

// AddProcedure declares a procedure in the default schema.
func (p *StaticProvider) AddProcedure(name string, params ...ParameterInfo) *StaticProvider {
	p.procedures = append(p.procedures, &staticProcedure{
		info:   ProcedureInfo{Schema: p.defaultSchema, Name: name},
		params: params,
	})
	return p
}

func (p *StaticProvider) Tables(_ context.Context) ([]TableInfo, error) {
	out := make([]TableInfo, len(p.tables))
	for i, t := range p.tables {
		out[i] = t.info
	}
	return out, nil
}

func (p *StaticProvider) Columns(_ context.Context, table TableInfo) ([]ColumnInfo, error) {
	if t := p.table(table.Schema, table.Name); t != nil {
		return t.columns, nil
	}
	return nil, nil
}

func (p *StaticProvider) PrimaryKey(_ context.Context, table TableInfo) ([]string, error) {
	if t := p.table(table.Schema, table.Name); t != nil {
		return t.primaryKey, nil
	}
	return nil, nil
}

func (p *StaticProvider) ForeignKeys(_ context.Context, table TableInfo) ([]ForeignKeyInfo, error) {
	if t := p.table(table.Schema, table.Name); t != nil {
		return t.foreignKeys, nil
	}
	return nil, nil
}

func (p *StaticProvider) Procedures(_ context.Context) ([]ProcedureInfo, error) {
	out := make([]ProcedureInfo, len(p.procedures))
	for i, proc := range p.procedures {
		out[i] = proc.info
	}
	return out, nil
}

func (p *StaticProvider) Parameters(_ context.Context, proc ProcedureInfo) ([]ParameterInfo, error) {
	for _, sp := range p.procedures {
		if strings.EqualFold(sp.info.Schema, proc.Schema) && strings.EqualFold(sp.info.Name, proc.Name) {
			return sp.params, nil
		}
	}
	return nil, nil
}

func (p *StaticProvider) DefaultSchema() string { return p.defaultSchema }

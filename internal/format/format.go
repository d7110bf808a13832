// Package format renders references and predicate trees to SQL fragments.
package format

import (
	"strings"

	"github.com/zoobzio/dynql/internal/command"
	"github.com/zoobzio/dynql/internal/render"
	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

// Dialect is the syntax the formatters need.
type Dialect interface {
	schema.Dialect
	Operators() types.Operators
	ConvertFunctionName(name string) string
}

// FunctionNames renames functions before the dialect sees them.
type FunctionNames map[string]string

// DefaultFunctionNames maps the long spellings callers tend to use.
var DefaultFunctionNames = FunctionNames{
	"average": "avg",
}

// Convert returns the mapped name, or name itself.
func (f FunctionNames) Convert(name string) string {
	if mapped, ok := f[strings.ToLower(name)]; ok {
		return mapped
	}
	return name
}

// ResolveTable finds the table a table reference points at. An owner that is
// not itself a table is taken to be a schema name.
func ResolveTable(s *schema.DatabaseSchema, ref *types.Reference) (*schema.Table, error) {
	if ref == nil {
		return nil, types.NewInvalidQueryError("missing table reference")
	}
	if owner := ref.Owner; owner != nil && owner.Owner == nil && owner.Alias == "" && !s.IsTable(owner.Name) {
		return s.FindTableName(schema.ObjectName{Schema: owner.Name, Name: ref.Name})
	}
	return s.FindTable(ref.Name)
}

// IsSchemaOwner reports whether ref is a schema qualifier rather than a
// table in a relation path.
func IsSchemaOwner(s *schema.DatabaseSchema, ref *types.Reference) bool {
	return ref != nil && ref.Owner == nil && ref.Alias == "" && !s.IsTable(ref.Name)
}

// ReferenceFormatter renders references.
type ReferenceFormatter struct {
	schema    *schema.DatabaseSchema
	builder   *command.Builder
	dialect   Dialect
	functions FunctionNames
}

// NewReferenceFormatter returns a formatter that allocates parameters on b.
func NewReferenceFormatter(s *schema.DatabaseSchema, b *command.Builder, d Dialect, functions FunctionNames) *ReferenceFormatter {
	if functions == nil {
		functions = DefaultFunctionNames
	}
	return &ReferenceFormatter{schema: s, builder: b, dialect: d, functions: functions}
}

// FormatColumnClause renders r for a select list, with its alias.
func (f *ReferenceFormatter) FormatColumnClause(r *types.Reference) (command.Fragment, error) {
	frag, err := f.Format(r)
	if err != nil {
		return nil, err
	}
	if r.Alias != "" && r.Kind != types.RefAllColumns {
		frag = command.Concat(frag, command.Text(" AS "+f.dialect.QuoteObjectName(r.Alias)))
	}
	return frag, nil
}

// FormatColumnClauseWithoutAlias renders r for GROUP BY.
func (f *ReferenceFormatter) FormatColumnClauseWithoutAlias(r *types.Reference) (command.Fragment, error) {
	return f.Format(r)
}

// Format renders r without an alias.
func (f *ReferenceFormatter) Format(r *types.Reference) (command.Fragment, error) {
	if r == nil {
		return nil, types.NewInvalidQueryError("missing reference")
	}
	switch r.Kind {
	case types.RefObject:
		text, _, err := f.FormatObject(r)
		if err != nil {
			return nil, err
		}
		return command.Text(text), nil
	case types.RefFunction:
		return f.formatFunction(r)
	case types.RefMath:
		return f.formatMath(r)
	case types.RefAllColumns:
		qualifier, err := f.TableQualifier(r.Owner)
		if err != nil {
			return nil, err
		}
		return command.Text(qualifier + ".*"), nil
	case types.RefCount:
		return command.Text("COUNT(*)"), nil
	case types.RefExists:
		return command.Text("DISTINCT 1"), nil
	default:
		return nil, types.NewInvalidQueryError("reference type %s not supported", r.Kind)
	}
}

// FormatObject renders a column reference and returns the resolved column.
func (f *ReferenceFormatter) FormatObject(r *types.Reference) (string, *schema.Column, error) {
	if r.Owner == nil {
		return "", nil, types.NewInvalidQueryError("column %q has no table", r.Name)
	}
	table, err := ResolveTable(f.schema, r.Owner)
	if err != nil {
		return "", nil, err
	}
	col, err := table.FindColumn(r.Name)
	if err != nil {
		return "", nil, err
	}
	qualifier := table.QualifiedName()
	if r.Owner.Alias != "" {
		qualifier = f.dialect.QuoteObjectName(r.Owner.Alias)
	}
	return qualifier + "." + col.QuotedName(), col, nil
}

// TableQualifier is the quoted alias of a table reference, or the table's
// qualified name.
func (f *ReferenceFormatter) TableQualifier(table *types.Reference) (string, error) {
	if table == nil {
		return "", types.NewInvalidQueryError("missing table reference")
	}
	if table.Alias != "" {
		return f.dialect.QuoteObjectName(table.Alias), nil
	}
	t, err := ResolveTable(f.schema, table)
	if err != nil {
		return "", err
	}
	return t.QualifiedName(), nil
}

func (f *ReferenceFormatter) formatFunction(r *types.Reference) (command.Fragment, error) {
	arg, err := f.Format(r.Arg)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(r.Name, "countdistinct") {
		return command.Wrap("COUNT(DISTINCT ", arg, ")"), nil
	}
	name := f.dialect.ConvertFunctionName(f.functions.Convert(r.Name))
	out := command.Concat(command.Text(strings.ToUpper(name)+"("), arg)
	for _, extra := range r.Args {
		out = command.Concat(out, command.Text(","), f.builder.Parameter(extra, nil))
	}
	return command.Concat(out, command.Text(")")), nil
}

func (f *ReferenceFormatter) formatMath(r *types.Reference) (command.Fragment, error) {
	op := f.dialect.Operators().Math(r.Op)
	if op == "" {
		return nil, render.NewUnsupportedFeatureError(f.dialect.Name(), "math operator "+r.Op.String())
	}
	left, err := f.FormatOperand(r.Left)
	if err != nil {
		return nil, err
	}
	right, err := f.FormatOperand(r.Right)
	if err != nil {
		return nil, err
	}
	return command.Concat(command.Text("("), left, command.Text(" "+op+" "), right, command.Text(")")), nil
}

// FormatOperand renders a reference, or binds a literal as a parameter.
func (f *ReferenceFormatter) FormatOperand(v any) (command.Fragment, error) {
	if ref, ok := v.(*types.Reference); ok {
		return f.Format(ref)
	}
	return f.builder.Parameter(v, nil), nil
}

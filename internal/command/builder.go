// Package command accumulates SQL text and parameter bindings for one
// statement and freezes them into reusable templates.
//
// Building is two-pass. While a statement is assembled, equality and
// inequality against a value are recorded as Comparison parts rather than
// text. When the command is bound, each comparison is rendered according to
// the value it receives, so a template built once serves scalars, NULLs,
// ranges and lists alike.
package command

import (
	"fmt"

	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

// ParameterTemplate describes one parameter slot.
type ParameterTemplate struct {
	Name      string
	Column    *schema.Column
	DbType    schema.DbType
	MaxLength int
	// Scalar slots sit in a context where only a single value makes sense,
	// such as > or LIKE, or are bound to a binary column.
	Scalar bool
}

// Builder is a mutable, single-use statement builder.
type Builder struct {
	dialect   schema.Dialect
	bulkIndex int
	parts     Fragment
	params    []ParameterTemplate
	values    []any
}

// NewBuilder returns a builder. A bulkIndex of zero or more suffixes every
// parameter name with _c<bulkIndex> so batched statements do not collide.
func NewBuilder(dialect schema.Dialect, bulkIndex int) *Builder {
	return &Builder{dialect: dialect, bulkIndex: bulkIndex}
}

// Dialect returns the builder's dialect.
func (b *Builder) Dialect() schema.Dialect { return b.dialect }

// AddParameter allocates the next parameter for value and records it.
func (b *Builder) AddParameter(value any, column *schema.Column) ParameterTemplate {
	p := b.addParameter(value, column)
	p.Scalar = true
	b.params[len(b.params)-1] = p
	return p
}

func (b *Builder) addParameter(value any, column *schema.Column) ParameterTemplate {
	name := fmt.Sprintf("p%d", len(b.params)+1)
	if b.bulkIndex >= 0 {
		name += fmt.Sprintf("_c%d", b.bulkIndex)
	}
	p := ParameterTemplate{Name: name, Column: column}
	if column != nil {
		p.DbType = column.DbType
		p.MaxLength = column.MaxLength
		p.Scalar = column.IsBinary
	}
	b.params = append(b.params, p)
	b.values = append(b.values, value)
	return p
}

// Placeholder returns the SQL token for a parameter.
func (b *Builder) Placeholder(p ParameterTemplate) string {
	return b.dialect.NameParameter(p.Name)
}

// Parameter adds a single-value parameter and returns its slot.
func (b *Builder) Parameter(value any, column *schema.Column) Fragment {
	b.AddParameter(value, column)
	return Fragment{{Kind: PartParam, Param: len(b.params) - 1}}
}

// Compare records left = value (or left <> value when negated) with the SQL
// form deferred until binding.
func (b *Builder) Compare(left, operator string, negated bool, value any, column *schema.Column) Fragment {
	b.addParameter(value, column)
	return Fragment{{
		Kind:  PartComparison,
		Param: len(b.params) - 1,
		Cmp:   &Comparison{Left: left, Operator: operator, Negated: negated},
	}}
}

// SetText replaces the accumulated statement.
func (b *Builder) SetText(text string) {
	b.parts = Text(text)
}

// Append adds literal text.
func (b *Builder) Append(text string) {
	b.parts = append(b.parts, Part{Kind: PartText, Text: text})
}

// AppendFragment adds a fragment.
func (b *Builder) AppendFragment(f Fragment) {
	b.parts = append(b.parts, f...)
}

// Parameters returns the parameter templates in allocation order.
func (b *Builder) Parameters() []ParameterTemplate {
	out := make([]ParameterTemplate, len(b.params))
	copy(out, b.params)
	return out
}

// Values returns the recorded values in allocation order.
func (b *Builder) Values() []any {
	out := make([]any, len(b.values))
	copy(out, b.values)
	return out
}

// Build binds the recorded values.
func (b *Builder) Build() (*Command, error) {
	return b.template(nil).Bind(b.values)
}

// GetCommandTemplate freezes the statement. When table is non-nil the
// template also indexes its columns by name for result lookup.
func (b *Builder) GetCommandTemplate(table *schema.Table) *CommandTemplate {
	return b.template(table)
}

func (b *Builder) template(table *schema.Table) *CommandTemplate {
	parts := make(Fragment, len(b.parts))
	copy(parts, b.parts)
	t := &CommandTemplate{
		dialect: b.dialect,
		parts:   parts,
		params:  b.Parameters(),
		index:   make(map[string]int),
	}
	if table != nil {
		for i, c := range table.Columns() {
			t.index[c.HomogenizedName()] = i
		}
	}
	return t
}

// bindKind is the rendered shape of one parameter.
func bindKind(p ParameterTemplate, v any) types.ValueKind {
	k := types.Classify(v)
	if p.Column != nil && p.Column.IsBinary && k == types.ValueList {
		return types.ValueScalar
	}
	return k
}

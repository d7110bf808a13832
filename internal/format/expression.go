package format

import (
	"strings"

	"github.com/zoobzio/dynql/internal/command"
	"github.com/zoobzio/dynql/internal/render"
	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

// ExpressionFormatter renders predicate trees, allocating parameters on the
// builder in traversal order.
type ExpressionFormatter struct {
	refs    *ReferenceFormatter
	builder *command.Builder
	dialect Dialect
}

// NewExpressionFormatter returns a formatter sharing refs' builder.
func NewExpressionFormatter(refs *ReferenceFormatter) *ExpressionFormatter {
	return &ExpressionFormatter{refs: refs, builder: refs.builder, dialect: refs.dialect}
}

// Format renders e. Empty renders as an empty fragment.
func (f *ExpressionFormatter) Format(e *types.Expression) (command.Fragment, error) {
	if e.IsEmpty() {
		return nil, nil
	}
	switch e.Type {
	case types.And:
		return f.logical(e, " AND ")
	case types.Or:
		return f.logical(e, " OR ")
	case types.Not:
		inner := e.LeftExpr()
		if inner != nil && (inner.Type == types.Like || inner.Type == types.ILike) {
			return f.comparison(inner, true)
		}
		frag, err := f.Format(inner)
		if err != nil {
			return nil, err
		}
		return command.Wrap("NOT (", frag, ")"), nil
	default:
		if e.Type.IsComparison() {
			return f.comparison(e, false)
		}
		return nil, types.NewInvalidQueryError("expression type %s not supported", e.Type)
	}
}

func (f *ExpressionFormatter) logical(e *types.Expression, op string) (command.Fragment, error) {
	left, err := f.Format(e.LeftExpr())
	if err != nil {
		return nil, err
	}
	right, err := f.Format(e.RightExpr())
	if err != nil {
		return nil, err
	}
	return command.Concat(command.Text("("), left, command.Text(op), right, command.Text(")")), nil
}

func (f *ExpressionFormatter) comparison(e *types.Expression, negateLike bool) (command.Fragment, error) {
	ops := f.dialect.Operators()
	token := ops.Comparison(e.Type)
	feature := e.Type.String()
	if negateLike {
		token, feature = ops.NotLike, "not like"
		if e.Type == types.ILike {
			token = ops.NotILike
		}
	}
	if e.Type == types.ILike && token == "" {
		return f.lowerLike(e, negateLike)
	}
	if token == "" {
		return nil, render.NewUnsupportedFeatureError(f.dialect.Name(), "operator "+feature)
	}

	left, column, err := f.leftOperand(e.Left)
	if err != nil {
		return nil, err
	}

	switch right := e.Right.(type) {
	case *types.Reference:
		r, err := f.refs.Format(right)
		if err != nil {
			return nil, err
		}
		return command.Concat(left, command.Text(" "+token+" "), r), nil
	case *types.Expression:
		return nil, types.NewInvalidQueryError("cannot compare %s with a predicate", e.LeftRef())
	}

	if (e.Type == types.Equal || e.Type == types.NotEqual) && left.IsText() {
		return f.builder.Compare(left.Key(), token, e.Type == types.NotEqual, e.Right, column), nil
	}
	return command.Concat(left, command.Text(" "+token+" "), f.builder.Parameter(e.Right, column)), nil
}

// lowerLike matches case-insensitively on dialects without ILIKE by
// lowering both sides.
func (f *ExpressionFormatter) lowerLike(e *types.Expression, negate bool) (command.Fragment, error) {
	ops := f.dialect.Operators()
	token := ops.Like
	if negate {
		token = ops.NotLike
	}
	if token == "" {
		return nil, render.NewUnsupportedFeatureError(f.dialect.Name(), "operator ilike")
	}
	left, column, err := f.leftOperand(e.Left)
	if err != nil {
		return nil, err
	}
	lower := strings.ToUpper(f.dialect.ConvertFunctionName("lower"))
	return command.Concat(
		command.Text(lower+"("), left,
		command.Text(") "+token+" "+lower+"("), f.builder.Parameter(e.Right, column),
		command.Text(")"),
	), nil
}

func (f *ExpressionFormatter) leftOperand(v any) (command.Fragment, *schema.Column, error) {
	ref, ok := v.(*types.Reference)
	if !ok {
		return f.builder.Parameter(v, nil), nil, nil
	}
	if ref.Kind == types.RefObject {
		text, col, err := f.refs.FormatObject(ref)
		if err != nil {
			return nil, nil, err
		}
		return command.Text(text), col, nil
	}
	frag, err := f.refs.Format(ref)
	return frag, nil, err
}

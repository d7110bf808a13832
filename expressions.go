package dynql

import "github.com/zoobzio/dynql/internal/types"

// Comparison helpers. The right side may be a literal, nil, a Range, a
// slice or another *Reference.

// Eq builds ref = v. The rendered form follows the value's shape.
func Eq(ref *Reference, v any) *Expression { return types.Compare(ref, types.Equal, v) }

// Ne builds ref <> v, with NOT IN / NOT BETWEEN / IS NOT NULL for other shapes.
func Ne(ref *Reference, v any) *Expression { return types.Compare(ref, types.NotEqual, v) }

// Gt builds ref > v.
func Gt(ref *Reference, v any) *Expression { return types.Compare(ref, types.GreaterThan, v) }

// Lt builds ref < v.
func Lt(ref *Reference, v any) *Expression { return types.Compare(ref, types.LessThan, v) }

// Ge builds ref >= v.
func Ge(ref *Reference, v any) *Expression { return types.Compare(ref, types.GreaterOrEqual, v) }

// Le builds ref <= v.
func Le(ref *Reference, v any) *Expression { return types.Compare(ref, types.LessOrEqual, v) }

// Like builds ref LIKE pattern.
func Like(ref *Reference, pattern string) *Expression {
	return types.Compare(ref, types.Like, pattern)
}

// NotLike builds ref NOT LIKE pattern.
func NotLike(ref *Reference, pattern string) *Expression {
	return types.NotExpr(Like(ref, pattern))
}

// ILike matches pattern ignoring case: ILIKE where the dialect has it,
// LOWER(ref) LIKE LOWER(pattern) elsewhere.
func ILike(ref *Reference, pattern string) *Expression {
	return types.Compare(ref, types.ILike, pattern)
}

// NotILike negates ILike.
func NotILike(ref *Reference, pattern string) *Expression {
	return types.NotExpr(ILike(ref, pattern))
}

// And conjoins expressions. Empty operands drop out.
func And(es ...*Expression) *Expression {
	out := types.Empty
	for _, e := range es {
		out = types.AndExpr(out, e)
	}
	return out
}

// Or disjoins expressions. Empty operands drop out.
func Or(es ...*Expression) *Expression {
	out := types.Empty
	for _, e := range es {
		out = types.OrExpr(out, e)
	}
	return out
}

// Not negates e.
func Not(e *Expression) *Expression { return types.NotExpr(e) }

// To builds an inclusive range. Two date strings (2006-01-02) become a
// time.Time range.
func To(start, end any) Range { return types.To(start, end) }

// Function helpers.

// Sum creates a SUM aggregate.
func Sum(ref *Reference) *Reference { return types.Function("sum", ref) }

// Avg creates an AVG aggregate.
func Avg(ref *Reference) *Reference { return types.Function("avg", ref) }

// Min creates a MIN aggregate.
func Min(ref *Reference) *Reference { return types.Function("min", ref) }

// Max creates a MAX aggregate.
func Max(ref *Reference) *Reference { return types.Function("max", ref) }

// Count creates a COUNT aggregate over a column.
func Count(ref *Reference) *Reference { return types.Function("count", ref) }

// CountDistinct creates a COUNT(DISTINCT) aggregate.
func CountDistinct(ref *Reference) *Reference { return types.Function("countdistinct", ref) }

// Length creates a string length call, spelled as the dialect spells it.
func Length(ref *Reference) *Reference { return types.Function("length", ref) }

// Fn calls any function. Extra arguments are bound as parameters.
func Fn(name string, ref *Reference, extra ...any) *Reference {
	return types.Function(name, ref, extra...)
}

// Math helpers. Operands may be references or literals.

// Add creates left + right.
func Add(left, right any) *Reference { return types.Math(left, types.Add, right) }

// Sub creates left - right.
func Sub(left, right any) *Reference { return types.Math(left, types.Subtract, right) }

// Mul creates left * right.
func Mul(left, right any) *Reference { return types.Math(left, types.Multiply, right) }

// Div creates left / right.
func Div(left, right any) *Reference { return types.Math(left, types.Divide, right) }

// Mod creates left % right.
func Mod(left, right any) *Reference { return types.Math(left, types.Modulo, right) }

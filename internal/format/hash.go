package format

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/zoobzio/dynql/internal/types"
)

// Canonical reorders every AND chain in e by the shape of its terms, so
// trees that differ only in conjunct order become identical. Other nodes
// keep their order.
func Canonical(e *types.Expression) *types.Expression {
	if e.IsEmpty() {
		return types.Empty
	}
	switch e.Type {
	case types.And:
		var terms []*types.Expression
		flattenAnd(e, &terms)
		for i, t := range terms {
			terms[i] = Canonical(t)
		}
		sort.SliceStable(terms, func(i, j int) bool {
			return Shape(terms[i]) < Shape(terms[j])
		})
		out := types.Empty
		for _, t := range terms {
			out = types.AndExpr(out, t)
		}
		return out
	case types.Or:
		return types.OrExpr(Canonical(e.LeftExpr()), Canonical(e.RightExpr()))
	case types.Not:
		return types.NotExpr(Canonical(e.LeftExpr()))
	default:
		return e
	}
}

func flattenAnd(e *types.Expression, out *[]*types.Expression) {
	if e.Type != types.And {
		*out = append(*out, e)
		return
	}
	flattenAnd(e.LeftExpr(), out)
	flattenAnd(e.RightExpr(), out)
}

// Shape serializes e with literal values replaced by "?".
func Shape(e *types.Expression) string {
	var b strings.Builder
	writeShape(&b, e)
	return b.String()
}

func writeShape(b *strings.Builder, e *types.Expression) {
	if e.IsEmpty() {
		b.WriteString("empty")
		return
	}
	b.WriteString(e.Type.String())
	b.WriteString("(")
	writeOperandShape(b, e.Left)
	if e.Type != types.Not {
		b.WriteString(",")
		writeOperandShape(b, e.Right)
	}
	b.WriteString(")")
}

func writeOperandShape(b *strings.Builder, v any) {
	switch x := v.(type) {
	case *types.Expression:
		writeShape(b, x)
	case *types.Reference:
		writeRefShape(b, x)
	default:
		b.WriteString("?")
	}
}

func writeRefShape(b *strings.Builder, r *types.Reference) {
	if r == nil {
		b.WriteString("nil")
		return
	}
	switch r.Kind {
	case types.RefObject:
		for i, n := range r.Names() {
			if i > 0 {
				b.WriteString(".")
			}
			b.WriteString(strings.ToLower(n))
		}
		for o := r.Owner; o != nil; o = o.Owner {
			if o.Alias != "" {
				b.WriteString("@" + o.Alias)
			}
		}
	case types.RefFunction:
		b.WriteString(strings.ToLower(r.Name) + "(")
		writeRefShape(b, r.Arg)
		b.WriteString("," + strconv.Itoa(len(r.Args)) + ")")
	case types.RefMath:
		b.WriteString("math" + r.Op.String() + "(")
		writeOperandShape(b, r.Left)
		b.WriteString(",")
		writeOperandShape(b, r.Right)
		b.WriteString(")")
	default:
		b.WriteString(r.String())
	}
	if r.Alias != "" {
		b.WriteString(" as " + r.Alias)
	}
}

// Hash is the hex SHA-256 of e's shape.
func Hash(e *types.Expression) string {
	sum := sha256.Sum256([]byte(Shape(e)))
	return hex.EncodeToString(sum[:])
}

// Values lists the literals of e in the order the formatters allocate
// parameters for them.
func Values(e *types.Expression) []any {
	var out []any
	collectValues(e, &out)
	return out
}

func collectValues(e *types.Expression, out *[]any) {
	if e.IsEmpty() {
		return
	}
	switch e.Type {
	case types.And, types.Or:
		collectValues(e.LeftExpr(), out)
		collectValues(e.RightExpr(), out)
	case types.Not:
		collectValues(e.LeftExpr(), out)
	default:
		collectOperand(e.Left, out)
		collectOperand(e.Right, out)
	}
}

func collectOperand(v any, out *[]any) {
	switch x := v.(type) {
	case *types.Expression:
		collectValues(x, out)
	case *types.Reference:
		collectRef(x, out)
	default:
		*out = append(*out, v)
	}
}

func collectRef(r *types.Reference, out *[]any) {
	if r == nil {
		return
	}
	switch r.Kind {
	case types.RefFunction:
		collectRef(r.Arg, out)
		*out = append(*out, r.Args...)
	case types.RefMath:
		collectOperand(r.Left, out)
		collectOperand(r.Right, out)
	}
}

package types

// Expression is a node of a predicate tree. Comparison nodes hold a
// *Reference on the left and a *Reference, literal, Range or slice on the
// right. And/Or hold two *Expression operands, Not holds one in Left.
type Expression struct {
	Left  any
	Right any
	Type  ExprType
}

// Empty is the identity expression for And and Or.
var Empty = &Expression{Type: ExprEmpty}

// IsEmpty reports whether e is nil or the empty expression.
func (e *Expression) IsEmpty() bool {
	return e == nil || e.Type == ExprEmpty
}

// AndExpr conjoins a and b, eliminating Empty operands.
func AndExpr(a, b *Expression) *Expression {
	switch {
	case a.IsEmpty() && b.IsEmpty():
		return Empty
	case a.IsEmpty():
		return b
	case b.IsEmpty():
		return a
	}
	return &Expression{Left: a, Right: b, Type: And}
}

// OrExpr disjoins a and b, eliminating Empty operands.
func OrExpr(a, b *Expression) *Expression {
	switch {
	case a.IsEmpty() && b.IsEmpty():
		return Empty
	case a.IsEmpty():
		return b
	case b.IsEmpty():
		return a
	}
	return &Expression{Left: a, Right: b, Type: Or}
}

// NotExpr negates e. Negating Empty yields Empty.
func NotExpr(e *Expression) *Expression {
	if e.IsEmpty() {
		return Empty
	}
	return &Expression{Left: e, Type: Not}
}

// Compare builds a comparison node.
func Compare(left *Reference, t ExprType, right any) *Expression {
	return &Expression{Left: left, Right: right, Type: t}
}

// Operand accessors.

func (e *Expression) LeftExpr() *Expression {
	x, _ := e.Left.(*Expression)
	return x
}

func (e *Expression) RightExpr() *Expression {
	x, _ := e.Right.(*Expression)
	return x
}

func (e *Expression) LeftRef() *Reference {
	x, _ := e.Left.(*Reference)
	return x
}

// References returns every object reference in the tree, in traversal order,
// including the arguments of functions and the operands of math.
func (e *Expression) References() []*Reference {
	var refs []*Reference
	e.walkRefs(func(r *Reference) { refs = append(refs, r) })
	return refs
}

func (e *Expression) walkRefs(fn func(*Reference)) {
	if e.IsEmpty() {
		return
	}
	for _, operand := range []any{e.Left, e.Right} {
		switch v := operand.(type) {
		case *Expression:
			v.walkRefs(fn)
		case *Reference:
			WalkObjects(v, fn)
		}
	}
}

// WalkObjects calls fn for each object reference reachable from r.
func WalkObjects(r *Reference, fn func(*Reference)) {
	if r == nil {
		return
	}
	switch r.Kind {
	case RefObject:
		fn(r)
	case RefFunction:
		WalkObjects(r.Arg, fn)
	case RefMath:
		if x, ok := r.Left.(*Reference); ok {
			WalkObjects(x, fn)
		}
		if x, ok := r.Right.(*Reference); ok {
			WalkObjects(x, fn)
		}
	}
}

// Equal compares two trees structurally, ignoring literal values.
func (e *Expression) Equal(o *Expression) bool {
	if e.IsEmpty() || o.IsEmpty() {
		return e.IsEmpty() == o.IsEmpty()
	}
	if e.Type != o.Type {
		return false
	}
	return operandShapeEqual(e.Left, o.Left) && operandShapeEqual(e.Right, o.Right)
}

func operandShapeEqual(a, b any) bool {
	switch x := a.(type) {
	case *Expression:
		y, ok := b.(*Expression)
		return ok && x.Equal(y)
	case *Reference:
		y, ok := b.(*Reference)
		return ok && x.Equal(y)
	default:
		switch b.(type) {
		case *Expression, *Reference:
			return false
		}
		return true
	}
}

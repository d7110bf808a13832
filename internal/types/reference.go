package types

import "strings"

// RefKind discriminates the variants of a Reference.
type RefKind uint8

const (
	RefObject     RefKind = iota // table or column, optionally owned and aliased
	RefFunction                  // name(argument, extra...)
	RefMath                      // (left op right)
	RefAllColumns                // table.*
	RefCount                     // COUNT(*)
	RefExists                    // DISTINCT 1
)

func (k RefKind) String() string {
	switch k {
	case RefObject:
		return "object"
	case RefFunction:
		return "function"
	case RefMath:
		return "math"
	case RefAllColumns:
		return "all-columns"
	case RefCount:
		return "count"
	case RefExists:
		return "exists"
	default:
		return "unknown"
	}
}

// MathOp is the operator of a math reference.
type MathOp uint8

const (
	Add MathOp = iota
	Subtract
	Multiply
	Divide
	Modulo
)

func (op MathOp) String() string {
	switch op {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	default:
		return "?"
	}
}

// aggregates lists the function names that trigger grouping.
var aggregates = map[string]bool{
	"sum":           true,
	"avg":           true,
	"average":       true,
	"count":         true,
	"countdistinct": true,
	"min":           true,
	"max":           true,
}

// IsAggregateName reports whether name is a grouping function.
func IsAggregateName(name string) bool {
	return aggregates[strings.ToLower(name)]
}

// Reference is a closed variant over everything a query can point at:
// columns and tables, function calls, math and the special markers.
// Which fields are meaningful depends on Kind.
type Reference struct {
	Kind      RefKind
	Name      string     // object or function name
	Owner     *Reference // owning table/schema for objects, the table for all-columns
	Alias     string
	Arg       *Reference // function argument
	Args      []any      // extra literal function arguments
	Aggregate bool
	Left      any // math operands: *Reference or literal
	Right     any
	Op        MathOp
}

// Object builds an owner chain from outermost to innermost name, so
// Object("dbo", "Users", "Name") is column Name owned by dbo.Users.
func Object(names ...string) *Reference {
	var ref *Reference
	for _, n := range names {
		ref = &Reference{Kind: RefObject, Name: n, Owner: ref}
	}
	return ref
}

// ParseObject splits a dotted path into an object reference.
func ParseObject(path string) *Reference {
	return Object(strings.Split(path, ".")...)
}

// Function wraps arg in a function call.
func Function(name string, arg *Reference, extra ...any) *Reference {
	return &Reference{
		Kind:      RefFunction,
		Name:      name,
		Arg:       arg,
		Args:      extra,
		Aggregate: IsAggregateName(name),
	}
}

// Math builds a math reference.
func Math(left any, op MathOp, right any) *Reference {
	return &Reference{Kind: RefMath, Left: left, Right: right, Op: op}
}

// AllColumns selects every column of table.
func AllColumns(table *Reference) *Reference {
	return &Reference{Kind: RefAllColumns, Owner: table}
}

// CountAll is the COUNT(*) marker.
func CountAll() *Reference { return &Reference{Kind: RefCount} }

// ExistsMarker is the DISTINCT 1 marker used by existence checks.
func ExistsMarker() *Reference { return &Reference{Kind: RefExists} }

// IsSpecial reports whether r is one of the COUNT(*)/DISTINCT 1 markers.
func (r *Reference) IsSpecial() bool {
	return r != nil && (r.Kind == RefCount || r.Kind == RefExists)
}

// GetOwner returns the owner, or nil.
func (r *Reference) GetOwner() *Reference {
	if r == nil {
		return nil
	}
	return r.Owner
}

// AliasOrName returns the alias if set, otherwise the name.
func (r *Reference) AliasOrName() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Name
}

// As returns a copy of r with the given alias.
func (r *Reference) As(alias string) *Reference {
	c := *r
	c.Alias = alias
	return &c
}

// Child returns a reference to name owned by r.
func (r *Reference) Child(name string) *Reference {
	return &Reference{Kind: RefObject, Name: name, Owner: r}
}

// Names returns the owner chain names, outermost first.
func (r *Reference) Names() []string {
	var names []string
	for cur := r; cur != nil; cur = cur.Owner {
		names = append([]string{cur.Name}, names...)
	}
	return names
}

// String renders a diagnostic form such as Users.Orders.Total AS t.
func (r *Reference) String() string {
	if r == nil {
		return "<nil>"
	}
	var s string
	switch r.Kind {
	case RefObject:
		s = strings.Join(r.Names(), ".")
	case RefFunction:
		s = r.Name + "(" + r.Arg.String() + ")"
	case RefMath:
		s = "(" + operandString(r.Left) + " " + r.Op.String() + " " + operandString(r.Right) + ")"
	case RefAllColumns:
		s = r.Owner.String() + ".*"
	case RefCount:
		s = "COUNT(*)"
	case RefExists:
		s = "EXISTS"
	}
	if r.Alias != "" {
		s += " AS " + r.Alias
	}
	return s
}

// Equal compares references structurally. Object names compare
// case-insensitively, aliases exactly.
func (r *Reference) Equal(o *Reference) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Kind != o.Kind || r.Alias != o.Alias {
		return false
	}
	switch r.Kind {
	case RefObject:
		return strings.EqualFold(r.Name, o.Name) && r.Owner.Equal(o.Owner)
	case RefFunction:
		if !strings.EqualFold(r.Name, o.Name) || len(r.Args) != len(o.Args) {
			return false
		}
		return r.Arg.Equal(o.Arg)
	case RefMath:
		return r.Op == o.Op && operandEqual(r.Left, o.Left) && operandEqual(r.Right, o.Right)
	case RefAllColumns:
		return r.Owner.Equal(o.Owner)
	default:
		return true
	}
}

func operandString(v any) string {
	if ref, ok := v.(*Reference); ok {
		return ref.String()
	}
	return "?"
}

func operandEqual(a, b any) bool {
	ra, aok := a.(*Reference)
	rb, bok := b.(*Reference)
	if aok != bok {
		return false
	}
	if aok {
		return ra.Equal(rb)
	}
	return true
}

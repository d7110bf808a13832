package types

// ExprType is the operator tag of an Expression node.
type ExprType uint8

const (
	ExprEmpty ExprType = iota
	Equal
	NotEqual
	GreaterThan
	LessThan
	GreaterOrEqual
	LessOrEqual
	Like
	ILike
	And
	Or
	Not
)

func (t ExprType) String() string {
	switch t {
	case ExprEmpty:
		return "empty"
	case Equal:
		return "eq"
	case NotEqual:
		return "ne"
	case GreaterThan:
		return "gt"
	case LessThan:
		return "lt"
	case GreaterOrEqual:
		return "ge"
	case LessOrEqual:
		return "le"
	case Like:
		return "like"
	case ILike:
		return "ilike"
	case And:
		return "and"
	case Or:
		return "or"
	case Not:
		return "not"
	default:
		return "unknown"
	}
}

// IsComparison reports whether t compares two operands.
func (t ExprType) IsComparison() bool {
	return t >= Equal && t <= ILike
}

// Operators holds the SQL tokens a dialect uses for comparisons and math.
// An empty token means the dialect cannot express that operator.
type Operators struct {
	Equal          string
	NotEqual       string
	GreaterThan    string
	LessThan       string
	GreaterOrEqual string
	LessOrEqual    string
	Like           string
	NotLike        string
	ILike          string // empty: LOWER() both sides of LIKE
	NotILike       string
	Add            string
	Subtract       string
	Multiply       string
	Divide         string
	Modulo         string
}

// StandardOperators are the ANSI tokens.
var StandardOperators = Operators{
	Equal:          "=",
	NotEqual:       "<>",
	GreaterThan:    ">",
	LessThan:       "<",
	GreaterOrEqual: ">=",
	LessOrEqual:    "<=",
	Like:           "LIKE",
	NotLike:        "NOT LIKE",
	Add:            "+",
	Subtract:       "-",
	Multiply:       "*",
	Divide:         "/",
	Modulo:         "%",
}

// Comparison returns the token for a comparison type.
func (o Operators) Comparison(t ExprType) string {
	switch t {
	case Equal:
		return o.Equal
	case NotEqual:
		return o.NotEqual
	case GreaterThan:
		return o.GreaterThan
	case LessThan:
		return o.LessThan
	case GreaterOrEqual:
		return o.GreaterOrEqual
	case LessOrEqual:
		return o.LessOrEqual
	case Like:
		return o.Like
	case ILike:
		return o.ILike
	default:
		return ""
	}
}

// Math returns the token for a math operator.
func (o Operators) Math(op MathOp) string {
	switch op {
	case Add:
		return o.Add
	case Subtract:
		return o.Subtract
	case Multiply:
		return o.Multiply
	case Divide:
		return o.Divide
	case Modulo:
		return o.Modulo
	default:
		return ""
	}
}

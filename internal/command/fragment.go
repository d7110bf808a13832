package command

import (
	"strconv"
	"strings"
)

// PartKind discriminates the parts of a Fragment.
type PartKind uint8

const (
	PartText PartKind = iota
	PartParam
	PartComparison
)

// Comparison is an equality or inequality against a bound parameter whose
// SQL form depends on the value: = for scalars, IS NULL for nil, BETWEEN for
// ranges and IN for lists.
type Comparison struct {
	Left     string // rendered left operand
	Operator string // scalar token, = or <> in most dialects
	Negated  bool
}

// Part is literal text, a single-value parameter slot or a Comparison.
// Param indexes the builder's parameters for the latter two.
type Part struct {
	Kind  PartKind
	Text  string
	Param int
	Cmp   *Comparison
}

// Fragment is a piece of SQL that may contain parameter slots.
type Fragment []Part

// Text wraps literal SQL.
func Text(s string) Fragment {
	return Fragment{{Kind: PartText, Text: s}}
}

// Concat joins fragments.
func Concat(fs ...Fragment) Fragment {
	var out Fragment
	for _, f := range fs {
		out = append(out, f...)
	}
	return out
}

// Join joins fragments with a separator.
func Join(fs []Fragment, sep string) Fragment {
	var out Fragment
	for i, f := range fs {
		if i > 0 {
			out = append(out, Part{Kind: PartText, Text: sep})
		}
		out = append(out, f...)
	}
	return out
}

// Wrap encloses f in prefix and suffix text.
func Wrap(prefix string, f Fragment, suffix string) Fragment {
	return Concat(Text(prefix), f, Text(suffix))
}

// Key renders f with slots shown by parameter index. Indexes are unique
// within a builder, so equal keys mean equal SQL.
func (f Fragment) Key() string {
	var b strings.Builder
	for _, p := range f {
		switch p.Kind {
		case PartText:
			b.WriteString(p.Text)
		case PartParam:
			b.WriteString("{" + strconv.Itoa(p.Param) + "}")
		case PartComparison:
			b.WriteString(p.Cmp.Left)
			if p.Cmp.Negated {
				b.WriteString(" !")
			} else {
				b.WriteString(" ")
			}
			b.WriteString("{" + strconv.Itoa(p.Param) + "}")
		}
	}
	return b.String()
}

func (f Fragment) String() string { return f.Key() }

// IsText reports whether f has no parameter slots.
func (f Fragment) IsText() bool {
	for _, p := range f {
		if p.Kind != PartText {
			return false
		}
	}
	return true
}

// TrimSpace trims leading space of the first part and trailing space of the
// last, when those are text.
func (f Fragment) TrimSpace() Fragment {
	if len(f) == 0 {
		return f
	}
	out := make(Fragment, len(f))
	copy(out, f)
	if out[0].Kind == PartText {
		out[0].Text = strings.TrimLeft(out[0].Text, " \t\n")
	}
	if last := len(out) - 1; out[last].Kind == PartText {
		out[last].Text = strings.TrimRight(out[last].Text, " \t\n")
	}
	return out
}

// HasPrefixFold reports whether f starts with text prefix, ignoring case.
func (f Fragment) HasPrefixFold(prefix string) bool {
	if len(f) == 0 || f[0].Kind != PartText || len(f[0].Text) < len(prefix) {
		return false
	}
	return strings.EqualFold(f[0].Text[:len(prefix)], prefix)
}

// TrimPrefix removes n bytes from the leading text part.
func (f Fragment) TrimPrefix(n int) Fragment {
	if len(f) == 0 || f[0].Kind != PartText {
		return f
	}
	out := make(Fragment, len(f))
	copy(out, f)
	out[0].Text = out[0].Text[n:]
	return out
}

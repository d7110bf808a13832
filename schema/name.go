package schema

import (
	"strings"
	"unicode"
)

// ObjectName identifies a table or procedure. Equality ignores case.
type ObjectName struct {
	Schema string
	Name   string
}

// NewObjectName returns an ObjectName.
func NewObjectName(schema, name string) ObjectName {
	return ObjectName{Schema: schema, Name: name}
}

// Equal reports whether two names match ignoring case.
func (n ObjectName) Equal(o ObjectName) bool {
	return strings.EqualFold(n.Schema, o.Schema) && strings.EqualFold(n.Name, o.Name)
}

func (n ObjectName) String() string {
	if n.Schema == "" {
		return n.Name
	}
	return n.Schema + "." + n.Name
}

// Homogenize folds case and strips everything but letters and digits, so
// "User_Id", "userid" and "USER-ID" compare equal.
func Homogenize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

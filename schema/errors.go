package schema

import "fmt"

const noMatchHint = "no matching object found, or insufficient permissions"

// UnresolvableObjectError is returned when a table, column or procedure
// name matches nothing under any resolution strategy.
type UnresolvableObjectError struct {
	Name string
	Hint string
}

func (e UnresolvableObjectError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("unresolvable object %q: %s", e.Name, e.Hint)
	}
	return fmt.Sprintf("unresolvable object %q", e.Name)
}

// MalformedNameError is returned for names with more than one schema separator.
type MalformedNameError struct {
	Name string
}

func (e MalformedNameError) Error() string {
	return fmt.Sprintf("could not parse object name %q", e.Name)
}

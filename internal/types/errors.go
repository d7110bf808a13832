package types

import "fmt"

// InvalidQueryError reports a query that cannot be translated: a with
// clause without a join path, or a reference variant the formatter does
// not handle.
type InvalidQueryError struct {
	Reason string
}

func (e InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}

// NewInvalidQueryError formats an InvalidQueryError.
func NewInvalidQueryError(format string, args ...any) error {
	return InvalidQueryError{Reason: fmt.Sprintf(format, args...)}
}

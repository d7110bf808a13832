package dynql

import (
	"errors"
	"fmt"

	"github.com/zoobzio/dynql/internal/render"
	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

// ErrorKind classifies failures so callers can tell a misspelt name from
// an unsupported query or a database error.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnresolvable
	KindInvalidQuery
	KindMalformedName
	KindExecution
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnresolvable:
		return "unresolvable object"
	case KindInvalidQuery:
		return "invalid query"
	case KindMalformedName:
		return "malformed name"
	case KindExecution:
		return "execution failure"
	default:
		return "unknown"
	}
}

// ExecutionError wraps a driver error with the statement that caused it.
type ExecutionError struct {
	SQL  string
	Args []any
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %q: %v", e.SQL, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// NewExecutionError wraps err with cmd's text and arguments. A nil err
// stays nil.
func NewExecutionError(cmd *Command, err error) error {
	if err == nil {
		return nil
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return err
	}
	return &ExecutionError{SQL: cmd.Text, Args: cmd.Values(), Err: err}
}

// KindOf returns the kind of err, looking through wrapping.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var (
		ue schema.UnresolvableObjectError
		me schema.MalformedNameError
		iq types.InvalidQueryError
		ee *ExecutionError
	)
	switch {
	case errors.As(err, &ee):
		return KindExecution
	case errors.As(err, &ue):
		return KindUnresolvable
	case errors.As(err, &me):
		return KindMalformedName
	case errors.As(err, &iq), render.IsUnsupported(err):
		return KindInvalidQuery
	default:
		return KindUnknown
	}
}

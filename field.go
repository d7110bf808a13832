package dynql

import (
	"fmt"
	"strings"

	"github.com/zoobzio/dynql/internal/types"
)

// TryCol parses a dotted column path such as "Users.Name" or
// "Customers.Orders.Total", returning an error if a segment is empty.
func TryCol(path string) (*Reference, error) {
	if err := validatePath(path); err != nil {
		return nil, fmt.Errorf("invalid column: %w", err)
	}
	return types.ParseObject(path), nil
}

// Col parses a dotted column path. A single name is resolved against the
// query's table.
func Col(path string) *Reference {
	ref, err := TryCol(path)
	if err != nil {
		panic(err)
	}
	return ref
}

// Column builds a reference from a table reference and a column name.
func Column(table *Reference, name string) *Reference {
	return table.Child(name)
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	for _, seg := range strings.Split(path, ".") {
		if strings.TrimSpace(seg) == "" {
			return fmt.Errorf("empty segment in %q", path)
		}
	}
	return nil
}

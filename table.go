package dynql

import (
	"fmt"

	"github.com/zoobzio/dynql/internal/types"
)

// TryTable parses a table path such as "Orders", "dbo.Orders" or the
// relation path "Customers.Orders", returning an error if invalid.
func TryTable(path string, alias ...string) (*Reference, error) {
	if err := validatePath(path); err != nil {
		return nil, fmt.Errorf("invalid table: %w", err)
	}
	ref := types.ParseObject(path)
	if len(alias) > 0 && alias[0] != "" {
		ref = ref.As(alias[0])
	}
	return ref, nil
}

// Table parses a table path, optionally aliased.
func Table(path string, alias ...string) *Reference {
	ref, err := TryTable(path, alias...)
	if err != nil {
		panic(err)
	}
	return ref
}

// All selects every column of table.
func All(table *Reference) *Reference {
	return types.AllColumns(table)
}

// CountAll is the COUNT(*) projection.
func CountAll() *Reference {
	return types.CountAll()
}

// ExistsMarker is the DISTINCT 1 projection used by existence checks.
func ExistsMarker() *Reference {
	return types.ExistsMarker()
}

package render

// RowLockingLevel indicates the level of row-level locking support.
type RowLockingLevel int

const (
	RowLockingNone       RowLockingLevel = iota // No row locking
	RowLockingBasic                             // FOR UPDATE
	RowLockingSkipLocked                        // + SKIP LOCKED
)

// PagingStyle is how a dialect limits and offsets a result.
type PagingStyle int

const (
	PagingLimitOffset PagingStyle = iota // LIMIT n OFFSET m
	PagingRowNumber                      // TOP n / ROW_NUMBER() window
)

func (p PagingStyle) String() string {
	if p == PagingRowNumber {
		return "row_number"
	}
	return "limit_offset"
}

// Capabilities describes the SQL features supported by a dialect.
type Capabilities struct {
	Paging          PagingStyle
	RowLocking      RowLockingLevel
	NamedParameters bool // @name placeholders, otherwise positional ?
}

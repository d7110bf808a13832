package schema

// RelationType is the cardinality between two tables, seen from the first.
type RelationType uint8

const (
	NoRelation RelationType = iota
	OneToMany
	ManyToOne
)

func (r RelationType) String() string {
	switch r {
	case OneToMany:
		return "one-to-many"
	case ManyToOne:
		return "many-to-one"
	default:
		return "none"
	}
}

// Key is an ordered list of column names.
type Key []string

// ForeignKey links columns of DetailTable to the unique columns of
// MasterTable.
type ForeignKey struct {
	Name          string
	DetailTable   ObjectName
	Columns       Key
	MasterTable   ObjectName
	UniqueColumns Key
}

// Column is a table column.
type Column struct {
	ActualName  string
	DbType      DbType
	MaxLength   int
	IsIdentity  bool
	IsWriteable bool
	IsBinary    bool

	table *Table
}

// Table returns the owning table.
func (c *Column) Table() *Table { return c.table }

// HomogenizedName is the comparison form of the column name.
func (c *Column) HomogenizedName() string { return Homogenize(c.ActualName) }

// QuotedName is the dialect-quoted column name.
func (c *Column) QuotedName() string { return c.table.quote(c.ActualName) }

// QualifiedName is the quoted table name followed by the quoted column.
func (c *Column) QualifiedName() string {
	return c.table.QualifiedName() + "." + c.QuotedName()
}

// Table is a table or view with its columns and keys.
type Table struct {
	ActualName string
	Schema     string
	Type       TableType

	columns    []*Column
	byName     map[string]*Column
	primaryKey Key
	masters    []*ForeignKey // keys on this table
	details    []*ForeignKey // keys on other tables referencing this one
	quote      func(string) string
}

func newTable(info TableInfo, quote func(string) string) *Table {
	return &Table{
		ActualName: info.Name,
		Schema:     info.Schema,
		Type:       info.Type,
		byName:     make(map[string]*Column),
		quote:      quote,
	}
}

func (t *Table) addColumn(info ColumnInfo) {
	key := Homogenize(info.Name)
	if _, dup := t.byName[key]; dup {
		return
	}
	c := &Column{
		ActualName:  info.Name,
		DbType:      info.DbType,
		MaxLength:   info.MaxLength,
		IsIdentity:  info.IsIdentity,
		IsWriteable: !info.IsIdentity && !info.IsComputed,
		IsBinary:    info.DbType == Binary,
		table:       t,
	}
	t.columns = append(t.columns, c)
	t.byName[key] = c
}

// Name returns the table's ObjectName.
func (t *Table) Name() ObjectName { return ObjectName{Schema: t.Schema, Name: t.ActualName} }

// HomogenizedName is the comparison form of the table name.
func (t *Table) HomogenizedName() string { return Homogenize(t.ActualName) }

// QualifiedName is the quoted schema and table name.
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.quote(t.ActualName)
	}
	return t.quote(t.Schema) + "." + t.quote(t.ActualName)
}

// Columns returns the columns in declaration order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// TryFindColumn looks a column up by homogenized name.
func (t *Table) TryFindColumn(name string) (*Column, bool) {
	c, ok := t.byName[Homogenize(name)]
	return c, ok
}

// HasColumn reports whether the table has a column called name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.TryFindColumn(name)
	return ok
}

// FindColumn looks a column up by homogenized name.
func (t *Table) FindColumn(name string) (*Column, error) {
	if c, ok := t.TryFindColumn(name); ok {
		return c, nil
	}
	return nil, UnresolvableObjectError{Name: t.ActualName + "." + name, Hint: "no matching column found"}
}

// PrimaryKey returns the primary key column names.
func (t *Table) PrimaryKey() Key { return t.primaryKey }

// ForeignKeys returns the keys declared on this table.
func (t *Table) ForeignKeys() []*ForeignKey { return t.masters }

// GetMaster returns the key by which t references to, or nil.
func (t *Table) GetMaster(to *Table) *ForeignKey {
	for _, fk := range t.masters {
		if fk.MasterTable.Equal(to.Name()) {
			return fk
		}
	}
	return nil
}

// GetDetail returns the key by which to references t, or nil.
func (t *Table) GetDetail(to *Table) *ForeignKey {
	for _, fk := range t.details {
		if fk.DetailTable.Equal(to.Name()) {
			return fk
		}
	}
	return nil
}

// RelationTo returns ManyToOne when t references to, OneToMany when to
// references t, and NoRelation otherwise.
func (t *Table) RelationTo(to *Table) RelationType {
	if t.GetMaster(to) != nil {
		return ManyToOne
	}
	if t.GetDetail(to) != nil {
		return OneToMany
	}
	return NoRelation
}

// Procedure is a stored procedure.
type Procedure struct {
	ActualName string
	Schema     string
	Parameters []ParameterInfo

	quote func(string) string
}

// Name returns the procedure's ObjectName.
func (p *Procedure) Name() ObjectName { return ObjectName{Schema: p.Schema, Name: p.ActualName} }

// HomogenizedName is the comparison form of the procedure name.
func (p *Procedure) HomogenizedName() string { return Homogenize(p.ActualName) }

// QualifiedName is the quoted schema and procedure name.
func (p *Procedure) QualifiedName() string {
	if p.Schema == "" {
		return p.quote(p.ActualName)
	}
	return p.quote(p.Schema) + "." + p.quote(p.ActualName)
}

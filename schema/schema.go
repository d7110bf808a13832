// Package schema models database structure and resolves loosely specified
// table, column and procedure names against it.
//
// Names resolve case-insensitively with punctuation ignored, and fall back
// to plural and singular forms, so "user", "Users" and "USERS" all find the
// same table. Metadata is read once, on first use, from a Provider.
package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DatabaseSchema is the loaded structure of one database.
type DatabaseSchema struct {
	provider   Provider
	dialect    Dialect
	pluralizer Pluralizer

	once       sync.Once
	loadErr    error
	tables     collection[*Table]
	procedures collection[*Procedure]
}

// Option configures a DatabaseSchema.
type Option func(*DatabaseSchema)

// WithPluralizer replaces the English pluralizer. Passing nil disables the
// plural and singular fallbacks.
func WithPluralizer(p Pluralizer) Option {
	return func(s *DatabaseSchema) {
		s.pluralizer = p
	}
}

// New returns a schema that loads from provider on first use.
func New(provider Provider, dialect Dialect, opts ...Option) *DatabaseSchema {
	s := &DatabaseSchema{
		provider:   provider,
		dialect:    dialect,
		pluralizer: DefaultPluralizer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect returns the dialect the schema quotes names with.
func (s *DatabaseSchema) Dialect() Dialect { return s.dialect }

// DefaultSchema is the provider's default schema name, possibly empty.
func (s *DatabaseSchema) DefaultSchema() string { return s.provider.DefaultSchema() }

// QuoteObjectName quotes one identifier.
func (s *DatabaseSchema) QuoteObjectName(name string) string {
	return s.dialect.QuoteObjectName(name)
}

// Load reads all metadata. Only the first call does any work; later calls
// return its result.
func (s *DatabaseSchema) Load(ctx context.Context) error {
	s.once.Do(func() {
		s.loadErr = s.load(ctx)
	})
	return s.loadErr
}

func (s *DatabaseSchema) ensure() error {
	return s.Load(context.Background())
}

func (s *DatabaseSchema) load(ctx context.Context) error {
	quote := s.dialect.QuoteObjectName

	infos, err := s.provider.Tables(ctx)
	if err != nil {
		return fmt.Errorf("loading tables: %w", err)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Schema != infos[j].Schema {
			return infos[i].Schema < infos[j].Schema
		}
		return infos[i].Name < infos[j].Name
	})

	tables := make([]*Table, 0, len(infos))
	for _, info := range infos {
		t := newTable(info, quote)
		cols, err := s.provider.Columns(ctx, info)
		if err != nil {
			return fmt.Errorf("loading columns of %s: %w", t.Name(), err)
		}
		for _, c := range cols {
			t.addColumn(c)
		}
		pk, err := s.provider.PrimaryKey(ctx, info)
		if err != nil {
			return fmt.Errorf("loading primary key of %s: %w", t.Name(), err)
		}
		t.primaryKey = Key(pk)
		tables = append(tables, t)
	}
	s.tables = collection[*Table]{items: tables, pluralizer: s.pluralizer}

	for i, info := range infos {
		fks, err := s.provider.ForeignKeys(ctx, info)
		if err != nil {
			return fmt.Errorf("loading foreign keys of %s: %w", tables[i].Name(), err)
		}
		for _, fk := range fks {
			detail := tables[i]
			master, ok := s.tables.tryFind(ObjectName{Schema: fk.MasterSchema, Name: fk.MasterTable})
			if !ok {
				continue
			}
			key := &ForeignKey{
				Name:          fk.Name,
				DetailTable:   detail.Name(),
				Columns:       Key(fk.Columns),
				MasterTable:   master.Name(),
				UniqueColumns: Key(fk.MasterColumns),
			}
			detail.masters = append(detail.masters, key)
			master.details = append(master.details, key)
		}
	}

	procInfos, err := s.provider.Procedures(ctx)
	if err != nil {
		return fmt.Errorf("loading procedures: %w", err)
	}
	procs := make([]*Procedure, 0, len(procInfos))
	for _, info := range procInfos {
		params, err := s.provider.Parameters(ctx, info)
		if err != nil {
			return fmt.Errorf("loading parameters of %s.%s: %w", info.Schema, info.Name, err)
		}
		procs = append(procs, &Procedure{
			ActualName: info.Name,
			Schema:     info.Schema,
			Parameters: params,
			quote:      quote,
		})
	}
	s.procedures = collection[*Procedure]{items: procs, pluralizer: s.pluralizer}
	return nil
}

// BuildObjectName splits "schema.name" into an ObjectName. A name without a
// dot gets the default schema; more than one dot is a MalformedNameError.
func (s *DatabaseSchema) BuildObjectName(text string) (ObjectName, error) {
	if text == "" {
		return ObjectName{}, MalformedNameError{Name: text}
	}
	parts := strings.Split(text, ".")
	switch len(parts) {
	case 1:
		return ObjectName{Schema: s.DefaultSchema(), Name: text}, nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return ObjectName{}, MalformedNameError{Name: text}
		}
		return ObjectName{Schema: parts[0], Name: parts[1]}, nil
	default:
		return ObjectName{}, MalformedNameError{Name: text}
	}
}

// Tables returns every table in load order.
func (s *DatabaseSchema) Tables() ([]*Table, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s.tables.all(), nil
}

// Procedures returns every procedure in load order.
func (s *DatabaseSchema) Procedures() ([]*Procedure, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s.procedures.all(), nil
}

// FindTable resolves a table name, optionally schema-qualified.
func (s *DatabaseSchema) FindTable(name string) (*Table, error) {
	on, err := s.BuildObjectName(name)
	if err != nil {
		return nil, err
	}
	return s.FindTableName(on)
}

// FindTableName resolves an ObjectName to a table.
func (s *DatabaseSchema) FindTableName(on ObjectName) (*Table, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	if t, ok := s.tables.tryFind(on); ok {
		return t, nil
	}
	return nil, UnresolvableObjectError{Name: on.String(), Hint: noMatchHint}
}

// TryFindTable is FindTable without an error.
func (s *DatabaseSchema) TryFindTable(name string) (*Table, bool) {
	t, err := s.FindTable(name)
	return t, err == nil
}

// IsTable reports whether name resolves to a table.
func (s *DatabaseSchema) IsTable(name string) bool {
	_, ok := s.TryFindTable(name)
	return ok
}

// FindProcedure resolves a procedure name with the table precedence rules.
func (s *DatabaseSchema) FindProcedure(name string) (*Procedure, error) {
	on, err := s.BuildObjectName(name)
	if err != nil {
		return nil, err
	}
	return s.FindProcedureName(on)
}

// FindProcedureName resolves an ObjectName to a procedure.
func (s *DatabaseSchema) FindProcedureName(on ObjectName) (*Procedure, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	if p, ok := s.procedures.tryFind(on); ok {
		return p, nil
	}
	return nil, UnresolvableObjectError{Name: on.String(), Hint: noMatchHint}
}

// IsProcedure reports whether name resolves to a procedure.
func (s *DatabaseSchema) IsProcedure(name string) bool {
	_, err := s.FindProcedure(name)
	return err == nil
}

// GetRelationType resolves both names and returns the relation from the
// first table to the second.
func (s *DatabaseSchema) GetRelationType(from, to string) (RelationType, error) {
	fromTable, err := s.FindTable(from)
	if err != nil {
		return NoRelation, err
	}
	toTable, err := s.FindTable(to)
	if err != nil {
		return NoRelation, err
	}
	return fromTable.RelationTo(toTable), nil
}

package dynql

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zoobzio/dbml"

	"github.com/zoobzio/dynql/internal/format"
	"github.com/zoobzio/dynql/schema"
)

// Database is a handle on one database: its schema, its dialect, an
// executor and the statement templates built so far. It is safe for
// concurrent use.
type Database struct {
	provider  schema.Provider
	dialect   Dialect
	exec      Executor
	log       *logrus.Entry
	functions format.FunctionNames
	registry  *schema.Registry
	key       string
	plural    schema.Pluralizer
	pluralSet bool
	closer    io.Closer

	mu        sync.RWMutex
	schema    *schema.DatabaseSchema
	templates *templateCache
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger. The default logs warnings and errors to
// stderr.
func WithLogger(log *logrus.Entry) Option {
	return func(db *Database) {
		if log != nil {
			db.log = log
		}
	}
}

// WithRegistry shares loaded schemas between handles opened with the same
// connection key.
func WithRegistry(r *schema.Registry) Option {
	return func(db *Database) { db.registry = r }
}

// WithConnectionKey names the connection for the schema registry.
func WithConnectionKey(key string) Option {
	return func(db *Database) { db.key = key }
}

// WithPluralizer replaces the English pluralizer used by name resolution.
// A nil pluralizer turns plural/singular fallback off.
func WithPluralizer(p schema.Pluralizer) Option {
	return func(db *Database) {
		db.plural = p
		db.pluralSet = true
	}
}

// WithFunctionNames adds function renames applied before the dialect's own
// conversion, such as "average" to "avg".
func WithFunctionNames(names map[string]string) Option {
	return func(db *Database) {
		merged := make(format.FunctionNames, len(format.DefaultFunctionNames)+len(names))
		for k, v := range format.DefaultFunctionNames {
			merged[k] = v
		}
		for k, v := range names {
			merged[k] = v
		}
		db.functions = merged
	}
}

// WithCloser hands a connection to the Database; Close closes it.
func WithCloser(c io.Closer) Option {
	return func(db *Database) { db.closer = c }
}

// Open returns a Database. Schema metadata is read from provider on first
// use. exec may be nil for a handle that only builds SQL.
func Open(provider schema.Provider, dialect Dialect, exec Executor, opts ...Option) *Database {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db := &Database{
		provider:  provider,
		dialect:   dialect,
		exec:      exec,
		log:       logrus.NewEntry(logger),
		functions: format.DefaultFunctionNames,
		templates: newTemplateCache(),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.log = db.log.WithField("dialect", dialect.Name())
	db.schema = db.loadSchema()
	return db
}

// OpenDBML returns a Database whose schema is declared by a DBML project.
func OpenDBML(project *dbml.Project, defaultSchema string, dialect Dialect, exec Executor, opts ...Option) (*Database, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}
	return Open(schema.FromDBML(project, defaultSchema), dialect, exec, opts...), nil
}

func (db *Database) loadSchema() *schema.DatabaseSchema {
	build := func() *schema.DatabaseSchema {
		var opts []schema.Option
		if db.pluralSet {
			opts = append(opts, schema.WithPluralizer(db.plural))
		}
		return schema.New(db.provider, db.dialect, opts...)
	}
	if db.registry != nil && db.key != "" {
		return db.registry.Get(db.key, build)
	}
	return build()
}

// Schema returns the schema, loading it if needed.
func (db *Database) Schema() *schema.DatabaseSchema {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.schema
}

// Dialect returns the dialect.
func (db *Database) Dialect() Dialect { return db.dialect }

// Load reads schema metadata now rather than on first use.
func (db *Database) Load(ctx context.Context) error {
	s := db.Schema()
	if err := s.Load(ctx); err != nil {
		db.log.WithError(err).Error("schema load failed")
		return err
	}
	tables, _ := s.Tables()         //nolint:errcheck // loaded above
	procedures, _ := s.Procedures() //nolint:errcheck // loaded above
	db.log.WithFields(logrus.Fields{
		"tables":     len(tables),
		"procedures": len(procedures),
	}).Debug("schema loaded")
	return nil
}

// Reset drops cached templates and schema metadata. The next call reloads
// the schema from the provider.
func (db *Database) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.registry != nil && db.key != "" {
		db.registry.Remove(db.key)
	}
	db.schema = db.loadSchema()
	db.templates = newTemplateCache()
	db.log.Debug("caches reset")
}

// Close closes the connection passed with WithCloser, if any.
func (db *Database) Close() error {
	if db.closer == nil {
		return nil
	}
	return db.closer.Close()
}

func (db *Database) cache() *templateCache {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.templates
}

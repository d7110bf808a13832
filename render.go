package dynql

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zoobzio/dynql/internal/command"
	"github.com/zoobzio/dynql/internal/format"
	"github.com/zoobzio/dynql/internal/query"
	"github.com/zoobzio/dynql/internal/render"
	"github.com/zoobzio/dynql/internal/types"
)

// templateCache holds one template per table and criteria shape. A race to
// build the same key is settled by the first store; the loser's work is
// dropped.
type templateCache struct {
	tables sync.Map // lowercase table -> *sync.Map of key -> *command.CommandTemplate
}

func newTemplateCache() *templateCache {
	return &templateCache{}
}

func (c *templateCache) lookup(table, key string) (*command.CommandTemplate, bool) {
	m, ok := c.tables.Load(strings.ToLower(table))
	if !ok {
		return nil, false
	}
	t, ok := m.(*sync.Map).Load(key)
	if !ok {
		return nil, false
	}
	return t.(*command.CommandTemplate), true
}

func (c *templateCache) store(table, key string, t *command.CommandTemplate) *command.CommandTemplate {
	m, _ := c.tables.LoadOrStore(strings.ToLower(table), &sync.Map{})
	actual, _ := m.(*sync.Map).LoadOrStore(key, t)
	return actual.(*command.CommandTemplate)
}

func (c *templateCache) size() int {
	n := 0
	c.tables.Range(func(_, m any) bool {
		m.(*sync.Map).Range(func(_, _ any) bool {
			n++
			return true
		})
		return true
	})
	return n
}

// projection is the select list of a cached lookup.
type projection uint8

const (
	projectAll projection = iota
	projectExists
	projectCount
)

func (p projection) String() string {
	switch p {
	case projectExists:
		return "exists"
	case projectCount:
		return "count"
	default:
		return "find"
	}
}

func (db *Database) newBuilder(bulkIndex int) *query.Builder {
	return query.NewBuilder(db.Schema(), db.dialect, db.functions, bulkIndex)
}

// Build renders q. Skip, Take and ForUpdate are not applied; they come back
// in Result.Unhandled.
func (db *Database) Build(q Query) (*Result, error) {
	res, err := db.newBuilder(-1).Build(q)
	if err != nil {
		return nil, err
	}
	return newResult(res)
}

// template returns the cached statement for table and criteria, building it
// on a miss, together with the values to bind.
func (db *Database) template(table string, criteria *Expression, p projection) (*command.CommandTemplate, []any, error) {
	canonical := format.Canonical(criteria)
	key := p.String() + ":" + format.Hash(canonical)
	values := format.Values(canonical)
	log := db.log.WithFields(logrus.Fields{"table": table, "shape": key})

	cache := db.cache()
	if t, ok := cache.lookup(table, key); ok {
		log.Debug("template cache hit")
		return t, values, nil
	}

	q := types.NewQuery(table).Where(canonical)
	switch p {
	case projectExists:
		q = q.Select(types.ExistsMarker())
	case projectCount:
		q = q.Select(types.CountAll())
	}
	res, err := db.newBuilder(-1).Build(q)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("template cache miss")
	return cache.store(table, key, res.Command.GetCommandTemplate(res.Table)), values, nil
}

// bind renders a cached lookup with values.
func (db *Database) bind(table string, criteria *Expression, p projection) (*Command, error) {
	t, values, err := db.template(table, criteria, p)
	if err != nil {
		return nil, err
	}
	return t.Bind(values)
}

// applyUnhandled lets the dialect apply the clauses the builder returned.
func (db *Database) applyUnhandled(sql string, clauses []Clause) (string, error) {
	skip, take := 0, -1
	paged := false
	var lock *ForUpdateClause
	for _, c := range clauses {
		switch c := c.(type) {
		case SkipClause:
			skip, paged = c.Count, true
		case TakeClause:
			take, paged = c.Count, true
		case ForUpdateClause:
			lock = &c
		}
	}

	caps := db.dialect.Capabilities()
	var err error
	if paged {
		if sql, err = db.dialect.ApplyPaging(sql, skip, take); err != nil {
			return "", err
		}
		db.log.WithFields(logrus.Fields{"skip": skip, "take": take, "style": caps.Paging}).Debug("paging applied")
	}
	if lock != nil {
		if lock.SkipLocked && caps.RowLocking == render.RowLockingBasic {
			return "", render.NewUnsupportedFeatureError(db.dialect.Name(), "FOR UPDATE SKIP LOCKED",
				"use ForUpdate(false)")
		}
		if sql, err = db.dialect.ApplyLock(sql, *lock); err != nil {
			return "", err
		}
	}
	return sql, nil
}

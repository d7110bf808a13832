package dynql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/zoobzio/dynql/internal/query"
	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

// ErrNoExecutor is returned by operations on a handle opened without an
// Executor.
var ErrNoExecutor = errors.New("dynql: no executor configured")

// Find returns the rows of table matching criteria. The statement is
// cached per criteria shape.
func (db *Database) Find(ctx context.Context, table string, criteria *Expression) ([]Row, error) {
	cmd, err := db.bind(table, criteria, projectAll)
	if err != nil {
		return nil, err
	}
	return db.queryRows(ctx, cmd)
}

// FindOne returns the first row of table matching criteria.
func (db *Database) FindOne(ctx context.Context, table string, criteria *Expression) (Row, bool, error) {
	cmd, err := db.bind(table, criteria, projectAll)
	if err != nil {
		return Row{}, false, err
	}
	cmd.Text = db.dialect.OptimizeFindOne(cmd.Text)
	rows, err := db.queryRows(ctx, cmd)
	if err != nil || len(rows) == 0 {
		return Row{}, false, err
	}
	return rows[0], true, nil
}

// Exists reports whether any row of table matches criteria.
func (db *Database) Exists(ctx context.Context, table string, criteria *Expression) (bool, error) {
	cmd, err := db.bind(table, criteria, projectExists)
	if err != nil {
		return false, err
	}
	rows, err := db.queryRows(ctx, cmd)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Count returns the number of rows of table matching criteria.
func (db *Database) Count(ctx context.Context, table string, criteria *Expression) (int64, error) {
	cmd, err := db.bind(table, criteria, projectCount)
	if err != nil {
		return 0, err
	}
	rows, err := db.queryRows(ctx, cmd)
	if err != nil {
		return 0, err
	}
	return scalarCount(rows)
}

// Query builds q, applies its paging and locking clauses and returns the
// rows.
func (db *Database) Query(ctx context.Context, q Query) ([]Row, error) {
	cmd, err := db.queryCommand(q)
	if err != nil {
		return nil, err
	}
	return db.queryRows(ctx, cmd)
}

func (db *Database) queryCommand(q Query) (*Command, error) {
	res, err := db.Build(q)
	if err != nil {
		return nil, err
	}
	text, err := db.applyUnhandled(res.SQL, res.Unhandled)
	if err != nil {
		return nil, err
	}
	cmd := res.Command()
	cmd.Text = text
	return cmd, nil
}

// Insert inserts one row. Keys of data are matched to columns loosely;
// identity and computed columns are skipped.
func (db *Database) Insert(ctx context.Context, table string, data map[string]any) (int64, error) {
	res, err := db.newBuilder(-1).Insert(table, data)
	if err != nil {
		return 0, err
	}
	return db.execBuilt(ctx, res.Command.Build)
}

// InsertMany inserts rows one statement each, with parameter names
// suffixed by row index.
func (db *Database) InsertMany(ctx context.Context, table string, rows []map[string]any) (int64, error) {
	var total int64
	for i, data := range rows {
		res, err := db.newBuilder(i).Insert(table, data)
		if err != nil {
			return total, fmt.Errorf("row %d: %w", i, err)
		}
		n, err := db.execBuilt(ctx, res.Command.Build)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Update sets data on the rows of table matching criteria.
func (db *Database) Update(ctx context.Context, table string, data map[string]any, criteria *Expression) (int64, error) {
	res, err := db.newBuilder(-1).Update(table, data, criteria)
	if err != nil {
		return 0, err
	}
	return db.execBuilt(ctx, res.Command.Build)
}

// UpdateByKey updates the row identified by the primary key values in data.
func (db *Database) UpdateByKey(ctx context.Context, table string, data map[string]any) (int64, error) {
	res, err := db.newBuilder(-1).UpdateByKey(table, data)
	if err != nil {
		return 0, err
	}
	return db.execBuilt(ctx, res.Command.Build)
}

// UpdateAll sets data on every row of table.
func (db *Database) UpdateAll(ctx context.Context, table string, data map[string]any) (int64, error) {
	return db.Update(ctx, table, data, Empty)
}

// Upsert updates the rows of table matching criteria, or inserts data when
// none match. Columns compared in criteria are not updated, and when data
// holds nothing else the matching rows are left as they are. It returns the
// rows affected and whether data was inserted.
func (db *Database) Upsert(ctx context.Context, table string, data map[string]any, criteria *Expression) (int64, bool, error) {
	found, err := db.Exists(ctx, table, criteria)
	if err != nil {
		return 0, false, err
	}
	if !found {
		n, err := db.Insert(ctx, table, data)
		if err != nil {
			return 0, false, err
		}
		return n, true, nil
	}

	skip := query.CriteriaColumns(criteria)
	update := make(map[string]any, len(data))
	for k, v := range data {
		if !skip[schema.Homogenize(k)] {
			update[k] = v
		}
	}
	if len(update) == 0 {
		return 0, false, nil
	}
	n, err := db.Update(ctx, table, update, criteria)
	return n, false, err
}

// UpsertByKey is Upsert with criteria taken from the primary key values in
// data.
func (db *Database) UpsertByKey(ctx context.Context, table string, data map[string]any) (int64, bool, error) {
	t, err := db.Schema().FindTable(table)
	if err != nil {
		return 0, false, err
	}
	key := t.PrimaryKey()
	if len(key) == 0 {
		return 0, false, types.NewInvalidQueryError("table %s has no primary key", t.ActualName)
	}
	values := make(map[string]any, len(data))
	for k, v := range data {
		values[schema.Homogenize(k)] = v
	}
	pairs := make([]Pair, 0, len(key))
	for _, k := range key {
		v, ok := values[schema.Homogenize(k)]
		if !ok {
			return 0, false, types.NewInvalidQueryError("data for %s is missing key column %s", t.ActualName, k)
		}
		pairs = append(pairs, P(k, v))
	}
	return db.Upsert(ctx, table, data, Criteria(table, pairs...))
}

// Delete removes the rows of table matching criteria. Empty criteria
// removes every row.
func (db *Database) Delete(ctx context.Context, table string, criteria *Expression) (int64, error) {
	res, err := db.newBuilder(-1).Delete(table, criteria)
	if err != nil {
		return 0, err
	}
	return db.execBuilt(ctx, res.Command.Build)
}

func (db *Database) queryRows(ctx context.Context, cmd *Command) ([]Row, error) {
	if db.exec == nil {
		return nil, ErrNoExecutor
	}
	rows, err := db.exec.QueryRows(ctx, cmd)
	if err != nil {
		err = NewExecutionError(cmd, err)
		db.log.WithError(err).WithField("sql", cmd.Text).Error("query failed")
		return nil, err
	}
	db.log.WithFields(logrus.Fields{"sql": cmd.Text, "rows": len(rows)}).Debug("query")
	return rows, nil
}

func (db *Database) execBuilt(ctx context.Context, build func() (*Command, error)) (int64, error) {
	cmd, err := build()
	if err != nil {
		return 0, err
	}
	if db.exec == nil {
		return 0, ErrNoExecutor
	}
	n, err := db.exec.Exec(ctx, cmd)
	if err != nil {
		err = NewExecutionError(cmd, err)
		db.log.WithError(err).WithField("sql", cmd.Text).Error("exec failed")
		return 0, err
	}
	db.log.WithFields(logrus.Fields{"sql": cmd.Text, "affected": n}).Debug("exec")
	return n, nil
}

// scalarCount reads a COUNT(*) result whatever numeric type the driver
// returned it as.
func scalarCount(rows []Row) (int64, error) {
	if len(rows) == 0 || len(rows[0].Values) == 0 {
		return 0, nil
	}
	switch v := rows[0].Values[0].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("count returned %T", v)
	}
}

// Package integration runs dynql against real databases.
package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoobzio/dynql"
)

// text normalizes driver values; MySQL returns strings as []byte.
func text(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

// reset empties the fixture tables and seeds three users, three posts and
// three orders through dynql itself. It returns user ids by username.
func reset(ctx context.Context, t *testing.T, db *dynql.Database) map[string]any {
	t.Helper()

	for _, table := range []string{"orders", "posts", "users"} {
		_, err := db.Delete(ctx, table, dynql.Empty)
		require.NoError(t, err, "emptying %s", table)
	}

	_, err := db.InsertMany(ctx, "users", []map[string]any{
		{"username": "alice", "email": "alice@example.com", "age": 30, "active": true},
		{"username": "bob", "email": "bob@example.com", "age": 25, "active": true},
		{"username": "carol", "email": "carol@example.com", "age": 35, "active": false},
	})
	require.NoError(t, err)

	rows, err := db.Find(ctx, "users", dynql.Empty)
	require.NoError(t, err)
	ids := make(map[string]any, len(rows))
	for _, r := range rows {
		name, _ := r.Get("username")
		id, _ := r.Get("id")
		ids[text(name)] = id
	}
	require.Len(t, ids, 3)

	_, err = db.InsertMany(ctx, "posts", []map[string]any{
		{"user_id": ids["alice"], "title": "Go tips", "views": 150},
		{"user_id": ids["alice"], "title": "SQL", "views": 50},
		{"user_id": ids["bob"], "title": "Hello", "views": 10},
	})
	require.NoError(t, err)

	_, err = db.InsertMany(ctx, "orders", []map[string]any{
		{"user_id": ids["alice"], "total": 100.0, "status": "pending"},
		{"user_id": ids["alice"], "total": 250.5, "status": "shipped"},
		{"user_id": ids["bob"], "total": 75.0, "status": "pending"},
	})
	require.NoError(t, err)
	return ids
}

// runSuite exercises the operations every dialect supports against the
// users/posts/orders fixture.
func runSuite(t *testing.T, db *dynql.Database) {
	ctx := context.Background()

	t.Run("Count", func(t *testing.T) {
		reset(ctx, t, db)
		n, err := db.Count(ctx, "users", dynql.Empty)
		require.NoError(t, err)
		require.EqualValues(t, 3, n)

		n, err = db.Count(ctx, "users", dynql.Eq(dynql.Col("users.active"), true))
		require.NoError(t, err)
		require.EqualValues(t, 2, n)
	})

	t.Run("FindRangeAndList", func(t *testing.T) {
		reset(ctx, t, db)
		rows, err := db.Find(ctx, "users", dynql.Eq(dynql.Col("users.age"), dynql.To(26, 40)))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		rows, err = db.Find(ctx, "users", dynql.Eq(dynql.Col("users.username"), []string{"alice", "bob", "dave"}))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		rows, err = db.Find(ctx, "users", dynql.Eq(dynql.Col("users.username"), []string{}))
		require.NoError(t, err)
		require.Empty(t, rows)
	})

	t.Run("FindOne", func(t *testing.T) {
		reset(ctx, t, db)
		row, ok, err := db.FindOne(ctx, "User", dynql.Eq(dynql.Col("User.username"), "carol"))
		require.NoError(t, err)
		require.True(t, ok)
		age, _ := row.Get("AGE")
		require.Equal(t, "35", text(age))

		_, ok, err = db.FindOne(ctx, "users", dynql.Eq(dynql.Col("users.username"), "nobody"))
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("Exists", func(t *testing.T) {
		reset(ctx, t, db)
		ok, err := db.Exists(ctx, "posts", dynql.Gt(dynql.Col("posts.views"), 100))
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = db.From("posts").Where(dynql.Gt(dynql.Col("posts.views"), 1000)).Exists(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("ImplicitJoin", func(t *testing.T) {
		reset(ctx, t, db)
		rows, err := db.From("users").Where(dynql.Gt(dynql.Col("users.posts.views"), 100)).All(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		name, _ := rows[0].Get("username")
		require.Equal(t, "alice", text(name))
	})

	t.Run("WithMany", func(t *testing.T) {
		reset(ctx, t, db)
		rows, err := db.From("users").With(dynql.Col("users.posts")).All(ctx)
		require.NoError(t, err)
		// alice twice, bob once, carol with no posts once
		require.Len(t, rows, 4)
		_, ok := rows[0].Get("__withn__posts__title")
		require.True(t, ok, "columns: %v", rows[0].Columns)
	})

	t.Run("Paging", func(t *testing.T) {
		reset(ctx, t, db)
		rows, err := db.From("users").OrderBy(dynql.Col("users.username")).Skip(1).Take(1).All(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		name, _ := rows[0].Get("username")
		require.Equal(t, "bob", text(name))

		rows, err = db.From("users").OrderByDescending(dynql.Col("users.age")).Take(2).All(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		name, _ = rows[0].Get("username")
		require.Equal(t, "carol", text(name))

		rows, err = db.From("users").OrderBy(dynql.Col("users.username")).Skip(2).All(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})

	t.Run("Aggregate", func(t *testing.T) {
		reset(ctx, t, db)
		rows, err := db.From("orders").
			Select(dynql.Col("orders.status"), dynql.Count(dynql.Col("orders.id")).As("n")).
			OrderBy(dynql.Col("orders.status")).
			All(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		n, _ := rows[0].Get("n")
		require.Equal(t, "2", text(n))
	})

	t.Run("Writes", func(t *testing.T) {
		ids := reset(ctx, t, db)

		n, err := db.Update(ctx, "users", map[string]any{"active": false}, dynql.Eq(dynql.Col("users.username"), "bob"))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		n, err = db.UpdateByKey(ctx, "users", map[string]any{"id": ids["alice"], "age": 31})
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		row, ok, err := db.FindOne(ctx, "users", dynql.Eq(dynql.Col("users.id"), ids["alice"]))
		require.NoError(t, err)
		require.True(t, ok)
		age, _ := row.Get("age")
		require.Equal(t, "31", text(age))

		n, err = db.Delete(ctx, "orders", dynql.Eq(dynql.Col("orders.status"), "pending"))
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		count, err := db.Count(ctx, "orders", dynql.Empty)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	})

	t.Run("Unresolvable", func(t *testing.T) {
		_, err := db.Find(ctx, "invoices", dynql.Empty)
		require.Error(t, err)
		require.Equal(t, dynql.KindUnresolvable, dynql.KindOf(err))
	})
}

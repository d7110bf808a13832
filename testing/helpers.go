// Package testing provides test utilities for dynql.
package testing

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/dbml"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/schema"
)

// Project returns the fixture schema: users, posts, comments and orders.
// Every table has an id primary key.
func Project() *dbml.Project {
	project := dbml.NewProject("test")

	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("username", "varchar"))
	users.AddColumn(dbml.NewColumn("email", "varchar"))
	users.AddColumn(dbml.NewColumn("age", "int"))
	users.AddColumn(dbml.NewColumn("active", "boolean"))
	project.AddTable(users)

	posts := dbml.NewTable("posts")
	posts.AddColumn(dbml.NewColumn("id", "bigint"))
	posts.AddColumn(dbml.NewColumn("user_id", "bigint"))
	posts.AddColumn(dbml.NewColumn("title", "varchar"))
	posts.AddColumn(dbml.NewColumn("views", "int"))
	project.AddTable(posts)

	comments := dbml.NewTable("comments")
	comments.AddColumn(dbml.NewColumn("id", "bigint"))
	comments.AddColumn(dbml.NewColumn("post_id", "bigint"))
	comments.AddColumn(dbml.NewColumn("body", "text"))
	project.AddTable(comments)

	orders := dbml.NewTable("orders")
	orders.AddColumn(dbml.NewColumn("id", "bigint"))
	orders.AddColumn(dbml.NewColumn("user_id", "bigint"))
	orders.AddColumn(dbml.NewColumn("total", "numeric"))
	orders.AddColumn(dbml.NewColumn("status", "varchar"))
	project.AddTable(orders)

	return project
}

// Provider declares Project in the given default schema with its foreign
// keys: posts and orders belong to users, comments to posts.
func Provider(defaultSchema string) *schema.StaticProvider {
	p := schema.FromDBML(Project(), defaultSchema)
	p.AddForeignKey("posts", []string{"user_id"}, "users", []string{"id"})
	p.AddForeignKey("orders", []string{"user_id"}, "users", []string{"id"})
	p.AddForeignKey("comments", []string{"post_id"}, "posts", []string{"id"})
	return p
}

// Recorder is an Executor that records commands and answers with canned
// results.
type Recorder struct {
	mu       sync.Mutex
	commands []*dynql.Command

	Rows     []dynql.Row
	Affected int64
	Err      error
}

func (r *Recorder) QueryRows(_ context.Context, cmd *dynql.Command) ([]dynql.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.Rows, r.Err
}

func (r *Recorder) Exec(_ context.Context, cmd *dynql.Command) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.Affected, r.Err
}

// Commands returns every command run so far.
func (r *Recorder) Commands() []*dynql.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*dynql.Command(nil), r.commands...)
}

// Last returns the most recent command, or nil.
func (r *Recorder) Last() *dynql.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.commands) == 0 {
		return nil
	}
	return r.commands[len(r.commands)-1]
}

// TestDatabase opens the fixture schema in the public schema with a
// Recorder as executor.
func TestDatabase(t testing.TB, dialect dynql.Dialect, opts ...dynql.Option) (*dynql.Database, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	db := dynql.Open(Provider("public"), dialect, rec, opts...)
	if err := db.Load(context.Background()); err != nil {
		t.Fatalf("loading fixture schema: %v", err)
	}
	return db, rec
}

// AssertSQL compares expected and actual SQL.
func AssertSQL(t testing.TB, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("SQL mismatch:\nExpected: %s\nActual:   %s", expected, actual)
	}
}

// AssertArgs checks the parameter values of cmd in placeholder order.
func AssertArgs(t testing.TB, cmd *dynql.Command, expected ...any) {
	t.Helper()
	if cmd == nil {
		t.Fatal("command is nil")
	}
	if diff := cmp.Diff(expected, cmd.Values()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

// AssertParamNames checks the parameter names of cmd in placeholder order.
func AssertParamNames(t testing.TB, cmd *dynql.Command, expected ...string) {
	t.Helper()
	names := make([]string, len(cmd.Params))
	for i, p := range cmd.Params {
		names[i] = p.Name
	}
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Errorf("param names mismatch (-want +got):\n%s", diff)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertErrorContains checks that the error message contains substr.
func AssertErrorContains(t testing.TB, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error containing %q but got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("Expected error containing %q, got: %v", substr, err)
	}
}

// AssertKind checks the classification of err.
func AssertKind(t testing.TB, err error, kind dynql.ErrorKind) {
	t.Helper()
	if got := dynql.KindOf(err); got != kind {
		t.Errorf("KindOf(%v) = %v, want %v", err, got, kind)
	}
}

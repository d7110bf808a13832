package dynql_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zoobzio/dynql"
)

func TestFind(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		criteria *dynql.Expression
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "scalar",
			criteria: dynql.Eq(dynql.Col("Users.Name"), "bob"),
			wantSQL:  usersSelect + " WHERE [dbo].[Users].[Name] = @p1",
			wantArgs: []any{"bob"},
		},
		{
			name:     "null",
			criteria: dynql.Eq(dynql.Col("Users.Name"), nil),
			wantSQL:  usersSelect + " WHERE [dbo].[Users].[Name] IS NULL",
			wantArgs: []any{},
		},
		{
			name:     "range",
			criteria: dynql.Eq(dynql.Col("Users.Age"), dynql.To(18, 65)),
			wantSQL:  usersSelect + " WHERE [dbo].[Users].[Age] BETWEEN @p1_start AND @p1_end",
			wantArgs: []any{18, 65},
		},
		{
			name:     "list",
			criteria: dynql.Eq(dynql.Col("Users.Id"), []int{1, 2, 3}),
			wantSQL:  usersSelect + " WHERE [dbo].[Users].[Id] IN (@p1_0,@p1_1,@p1_2)",
			wantArgs: []any{1, 2, 3},
		},
		{
			name:     "map criteria",
			criteria: dynql.CriteriaFromMap("Users", map[string]any{"Id": 5}),
			wantSQL:  usersSelect + " WHERE [dbo].[Users].[Id] = @p1",
			wantArgs: []any{5},
		},
		{
			name:     "no criteria",
			criteria: dynql.Empty,
			wantSQL:  usersSelect,
			wantArgs: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, rec := openTest()
			if _, err := db.Find(ctx, "Users", tt.criteria); err != nil {
				t.Fatalf("Find() error: %v", err)
			}
			cmd := rec.last()
			if cmd.Text != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", cmd.Text, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, cmd.Values()); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFind_TemplateReuse(t *testing.T) {
	ctx := context.Background()
	db, rec := openTest()

	if _, err := db.Find(ctx, "Users", dynql.Eq(dynql.Col("Users.Name"), "bob")); err != nil {
		t.Fatal(err)
	}
	first := rec.last()
	if _, err := db.Find(ctx, "users", dynql.Eq(dynql.Col("Users.Name"), "alice")); err != nil {
		t.Fatal(err)
	}
	second := rec.last()

	if first.Text != second.Text {
		t.Errorf("SQL changed between lookups: %q vs %q", first.Text, second.Text)
	}
	if diff := cmp.Diff([]any{"alice"}, second.Values()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}

	if n := db.CachedTemplates(); n != 1 {
		t.Errorf("CachedTemplates() = %d after one shape, want 1", n)
	}

	// A nil value is a different shape.
	if _, err := db.Find(ctx, "Users", dynql.Eq(dynql.Col("Users.Name"), nil)); err != nil {
		t.Fatal(err)
	}
	if want := usersSelect + " WHERE [dbo].[Users].[Name] IS NULL"; rec.last().Text != want {
		t.Errorf("SQL = %q, want %q", rec.last().Text, want)
	}
	if n := db.CachedTemplates(); n != 2 {
		t.Errorf("CachedTemplates() = %d after two shapes, want 2", n)
	}

	// Same criteria, different projection.
	if _, err := db.Exists(ctx, "Users", dynql.Eq(dynql.Col("Users.Name"), "carol")); err != nil {
		t.Fatal(err)
	}
	if n := db.CachedTemplates(); n != 3 {
		t.Errorf("CachedTemplates() = %d after exists, want 3", n)
	}

	db.Reset()
	if n := db.CachedTemplates(); n != 0 {
		t.Errorf("CachedTemplates() = %d after Reset, want 0", n)
	}
}

func TestFind_ConcurrentSameShape(t *testing.T) {
	ctx := context.Background()
	db, rec := openTest()
	const workers = 16

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := db.Find(ctx, "Users", dynql.Eq(dynql.Col("Users.Age"), i))
			errs <- err
		}(i)
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Find() error: %v", err)
		}
	}

	if n := db.CachedTemplates(); n != 1 {
		t.Errorf("CachedTemplates() = %d, want 1", n)
	}
	want := usersSelect + " WHERE [dbo].[Users].[Age] = @p1"
	seen := make(map[any]bool)
	for _, cmd := range rec.all() {
		if cmd.Text != want {
			t.Errorf("SQL = %q, want %q", cmd.Text, want)
		}
		seen[cmd.Values()[0]] = true
	}
	if len(seen) != workers {
		t.Errorf("distinct bound values = %d, want %d", len(seen), workers)
	}
}

func TestFind_AndOrderIndependent(t *testing.T) {
	ctx := context.Background()
	db, rec := openTest()

	a := dynql.Eq(dynql.Col("Users.Name"), "bob")
	b := dynql.Gt(dynql.Col("Users.Age"), 30)
	if _, err := db.Find(ctx, "Users", dynql.And(a, b)); err != nil {
		t.Fatal(err)
	}
	first := rec.last()
	if _, err := db.Find(ctx, "Users", dynql.And(b, a)); err != nil {
		t.Fatal(err)
	}
	second := rec.last()

	if first.Text != second.Text {
		t.Errorf("SQL differs by AND order: %q vs %q", first.Text, second.Text)
	}
	if diff := cmp.Diff(first.Values(), second.Values()); diff != "" {
		t.Errorf("args differ by AND order (-first +second):\n%s", diff)
	}
}

func TestFindOne(t *testing.T) {
	ctx := context.Background()
	db, rec := openTest()
	rec.rows = []dynql.Row{{Columns: []string{"Id", "Name", "Age"}, Values: []any{int64(1), "bob", int64(40)}}}

	row, ok, err := db.FindOne(ctx, "Users", dynql.Eq(dynql.Col("Users.Id"), 1))
	if err != nil {
		t.Fatalf("FindOne() error: %v", err)
	}
	if !ok {
		t.Fatal("FindOne() found nothing")
	}
	if v, _ := row.Get("name"); v != "bob" {
		t.Errorf("Name = %v, want bob", v)
	}
	want := "select TOP 1 [dbo].[Users].[Id],[dbo].[Users].[Name],[dbo].[Users].[Age] from [dbo].[Users] WHERE [dbo].[Users].[Id] = @p1"
	if rec.last().Text != want {
		t.Errorf("SQL = %q, want %q", rec.last().Text, want)
	}

	rec.rows = nil
	if _, ok, err := db.FindOne(ctx, "Users", dynql.Eq(dynql.Col("Users.Id"), 2)); err != nil || ok {
		t.Errorf("FindOne() = (_, %v, %v), want (_, false, nil)", ok, err)
	}
}

func TestCountAndExists(t *testing.T) {
	ctx := context.Background()
	db, rec := openTest()

	rec.rows = []dynql.Row{{Columns: []string{""}, Values: []any{int64(3)}}}
	n, err := db.Count(ctx, "Users", dynql.Gt(dynql.Col("Users.Age"), 18))
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
	if want := "select COUNT(*) from [dbo].[Users] WHERE [dbo].[Users].[Age] > @p1"; rec.last().Text != want {
		t.Errorf("SQL = %q, want %q", rec.last().Text, want)
	}

	rec.rows = []dynql.Row{{Columns: []string{""}, Values: []any{[]byte("12")}}}
	if n, err := db.Count(ctx, "Users", dynql.Empty); err != nil || n != 12 {
		t.Errorf("Count() = (%d, %v), want (12, nil)", n, err)
	}

	rec.rows = nil
	ok, err := db.Exists(ctx, "Users", dynql.Eq(dynql.Col("Users.Id"), 9))
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if ok {
		t.Error("Exists() = true, want false")
	}
	if want := "select DISTINCT 1 from [dbo].[Users] WHERE [dbo].[Users].[Id] = @p1"; rec.last().Text != want {
		t.Errorf("SQL = %q, want %q", rec.last().Text, want)
	}
}

func TestWrites(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		run      func(*dynql.Database) (int64, error)
		wantSQL  string
		wantArgs []any
	}{
		{
			name: "insert",
			run: func(db *dynql.Database) (int64, error) {
				return db.Insert(ctx, "Users", map[string]any{"name": "bob", "AGE": 40, "Id": 7})
			},
			wantSQL:  "insert into [dbo].[Users] ([Name],[Age]) values (@p1,@p2)",
			wantArgs: []any{"bob", 40},
		},
		{
			name: "update",
			run: func(db *dynql.Database) (int64, error) {
				return db.Update(ctx, "Users", map[string]any{"Age": 41}, dynql.Eq(dynql.Col("Users.Name"), "bob"))
			},
			wantSQL:  "update [dbo].[Users] set [Age] = @p1 WHERE [dbo].[Users].[Name] = @p2",
			wantArgs: []any{41, "bob"},
		},
		{
			name: "update all",
			run: func(db *dynql.Database) (int64, error) {
				return db.UpdateAll(ctx, "Users", map[string]any{"Age": 0})
			},
			wantSQL:  "update [dbo].[Users] set [Age] = @p1",
			wantArgs: []any{0},
		},
		{
			name: "update by key",
			run: func(db *dynql.Database) (int64, error) {
				return db.UpdateByKey(ctx, "Customers", map[string]any{"CustomerId": 4, "Name": "acme"})
			},
			wantSQL:  "update [dbo].[Customers] set [Name] = @p1 WHERE [dbo].[Customers].[CustomerId] = @p2",
			wantArgs: []any{"acme", 4},
		},
		{
			name: "delete",
			run: func(db *dynql.Database) (int64, error) {
				return db.Delete(ctx, "Users", dynql.Eq(dynql.Col("Users.Id"), 7))
			},
			wantSQL:  "delete from [dbo].[Users] WHERE [dbo].[Users].[Id] = @p1",
			wantArgs: []any{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, rec := openTest()
			rec.affected = 1
			n, err := tt.run(db)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if n != 1 {
				t.Errorf("affected = %d, want 1", n)
			}
			if rec.last().Text != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", rec.last().Text, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, rec.last().Values()); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInsertMany(t *testing.T) {
	db, rec := openTest()
	rec.affected = 1

	n, err := db.InsertMany(context.Background(), "Users", []map[string]any{
		{"Name": "a"},
		{"Name": "b"},
	})
	if err != nil {
		t.Fatalf("InsertMany() error: %v", err)
	}
	if n != 2 {
		t.Errorf("affected = %d, want 2", n)
	}
	want := []string{
		"insert into [dbo].[Users] ([Name]) values (@p1_c0)",
		"insert into [dbo].[Users] ([Name]) values (@p1_c1)",
	}
	var got []string
	for _, c := range rec.commands {
		got = append(got, c.Text)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutionError(t *testing.T) {
	db, rec := openTest()
	boom := errors.New("connection reset")
	rec.err = boom

	_, err := db.Find(context.Background(), "Users", dynql.Eq(dynql.Col("Users.Id"), 1))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapping %v", err, boom)
	}
	if k := dynql.KindOf(err); k != dynql.KindExecution {
		t.Errorf("KindOf() = %v, want %v", k, dynql.KindExecution)
	}
	var ee *dynql.ExecutionError
	if !errors.As(err, &ee) {
		t.Fatal("error is not an ExecutionError")
	}
	if diff := cmp.Diff([]any{1}, ee.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
}

func TestNoExecutor(t *testing.T) {
	db := dynql.Open(testProvider(), testDialect{}, nil)
	if _, err := db.Find(context.Background(), "Users", dynql.Empty); !errors.Is(err, dynql.ErrNoExecutor) {
		t.Errorf("Find() error = %v, want ErrNoExecutor", err)
	}
	if _, err := db.Delete(context.Background(), "Users", dynql.Empty); !errors.Is(err, dynql.ErrNoExecutor) {
		t.Errorf("Delete() error = %v, want ErrNoExecutor", err)
	}
}

func TestErrorKinds(t *testing.T) {
	ctx := context.Background()
	db, _ := openTest()

	tests := []struct {
		name string
		run  func() error
		want dynql.ErrorKind
	}{
		{
			name: "unknown table",
			run: func() error {
				_, err := db.Find(ctx, "Widgets", dynql.Empty)
				return err
			},
			want: dynql.KindUnresolvable,
		},
		{
			name: "path with no table",
			run: func() error {
				_, err := db.From("a.b.c").SQL()
				return err
			},
			want: dynql.KindMalformedName,
		},
		{
			name: "unknown column",
			run: func() error {
				_, err := db.Find(ctx, "Users", dynql.Eq(dynql.Col("Users.Shoe"), 1))
				return err
			},
			want: dynql.KindUnresolvable,
		},
		{
			name: "update by key without key",
			run: func() error {
				_, err := db.UpdateByKey(ctx, "Users", map[string]any{"Name": "x"})
				return err
			},
			want: dynql.KindInvalidQuery,
		},
		{
			name: "lock on dialect without locking",
			run: func() error {
				_, err := db.From("Users").ForUpdate(false).SQL()
				return err
			},
			want: dynql.KindInvalidQuery,
		},
		{
			name: "skip locked on dialect with basic locking",
			run: func() error {
				locking := dynql.Open(testProvider(), testDialect{locking: true}, &recorder{})
				_, err := locking.From("Users").ForUpdate(true).SQL()
				return err
			},
			want: dynql.KindInvalidQuery,
		},
		{
			name: "plain error",
			run:  func() error { return errors.New("x") },
			want: dynql.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil {
				t.Fatal("expected error")
			}
			if got := dynql.KindOf(err); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", err, got, tt.want)
			}
		})
	}
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	existing := []dynql.Row{{Columns: []string{"1"}, Values: []any{int64(1)}}}

	tests := []struct {
		name         string
		rows         []dynql.Row
		run          func(*dynql.Database) (int64, bool, error)
		wantInserted bool
		wantAffected int64
		wantCommands int
		wantSQL      string
		wantArgs     []any
	}{
		{
			name: "match updates non-criteria columns",
			rows: existing,
			run: func(db *dynql.Database) (int64, bool, error) {
				return db.Upsert(ctx, "Users", map[string]any{"Name": "bob", "Age": 42}, dynql.Eq(dynql.Col("Users.Name"), "bob"))
			},
			wantAffected: 1,
			wantCommands: 2,
			wantSQL:      "update [dbo].[Users] set [Age] = @p1 WHERE [dbo].[Users].[Name] = @p2",
			wantArgs:     []any{42, "bob"},
		},
		{
			name: "no match inserts",
			run: func(db *dynql.Database) (int64, bool, error) {
				return db.Upsert(ctx, "Users", map[string]any{"Name": "bob", "Age": 42}, dynql.Eq(dynql.Col("Users.Name"), "bob"))
			},
			wantInserted: true,
			wantAffected: 1,
			wantCommands: 2,
			wantSQL:      "insert into [dbo].[Users] ([Name],[Age]) values (@p1,@p2)",
			wantArgs:     []any{"bob", 42},
		},
		{
			name: "match with only criteria columns",
			rows: existing,
			run: func(db *dynql.Database) (int64, bool, error) {
				return db.Upsert(ctx, "Users", map[string]any{"name": "bob"}, dynql.Eq(dynql.Col("Users.Name"), "bob"))
			},
			wantCommands: 1,
			wantSQL:      "select DISTINCT 1 from [dbo].[Users] WHERE [dbo].[Users].[Name] = @p1",
			wantArgs:     []any{"bob"},
		},
		{
			name: "by key",
			rows: existing,
			run: func(db *dynql.Database) (int64, bool, error) {
				return db.UpsertByKey(ctx, "Customers", map[string]any{"customerId": 4, "Name": "acme"})
			},
			wantAffected: 1,
			wantCommands: 2,
			wantSQL:      "update [dbo].[Customers] set [Name] = @p1 WHERE [dbo].[Customers].[CustomerId] = @p2",
			wantArgs:     []any{"acme", 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, rec := openTest()
			rec.rows = tt.rows
			rec.affected = 1

			n, inserted, err := tt.run(db)
			if err != nil {
				t.Fatalf("Upsert() error: %v", err)
			}
			if inserted != tt.wantInserted {
				t.Errorf("inserted = %v, want %v", inserted, tt.wantInserted)
			}
			if n != tt.wantAffected {
				t.Errorf("affected = %d, want %d", n, tt.wantAffected)
			}
			if got := len(rec.all()); got != tt.wantCommands {
				t.Errorf("commands = %d, want %d", got, tt.wantCommands)
			}
			cmd := rec.last()
			if cmd.Text != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", cmd.Text, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, cmd.Values()); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpsertByKey_MissingKey(t *testing.T) {
	db, _ := openTest()
	_, _, err := db.UpsertByKey(context.Background(), "Customers", map[string]any{"Name": "acme"})
	if got := dynql.KindOf(err); got != dynql.KindInvalidQuery {
		t.Errorf("KindOf(%v) = %v, want %v", err, got, dynql.KindInvalidQuery)
	}
}

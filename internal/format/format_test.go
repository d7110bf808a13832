package format

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zoobzio/dynql/internal/command"
	"github.com/zoobzio/dynql/internal/render"
	"github.com/zoobzio/dynql/internal/types"
	"github.com/zoobzio/dynql/schema"
)

type sqlServerish struct {
	ops types.Operators
}

func (sqlServerish) Name() string                       { return "test" }
func (sqlServerish) QuoteObjectName(name string) string { return "[" + name + "]" }
func (sqlServerish) NameParameter(name string) string   { return "@" + name }
func (d sqlServerish) Operators() types.Operators       { return d.ops }
func (sqlServerish) ConvertFunctionName(name string) string {
	if name == "length" {
		return "len"
	}
	return name
}

func newDialect() sqlServerish { return sqlServerish{ops: types.StandardOperators} }

func testSchema() *schema.DatabaseSchema {
	p := schema.NewStaticProvider("dbo")
	p.AddTable("Users",
		schema.ColumnInfo{Name: "Id", DbType: schema.Int32},
		schema.ColumnInfo{Name: "Name", DbType: schema.String},
		schema.ColumnInfo{Name: "Age", DbType: schema.Int32},
		schema.ColumnInfo{Name: "Photo", DbType: schema.Binary},
	)
	p.AddTable("Orders",
		schema.ColumnInfo{Name: "OrderId", DbType: schema.Int32},
		schema.ColumnInfo{Name: "UserId", DbType: schema.Int32},
		schema.ColumnInfo{Name: "Total", DbType: schema.Decimal},
	)
	p.AddForeignKey("Orders", []string{"UserId"}, "Users", []string{"Id"})
	return schema.New(p, newDialect())
}

func formatters(d Dialect) (*command.Builder, *ReferenceFormatter, *ExpressionFormatter) {
	b := command.NewBuilder(d, -1)
	refs := NewReferenceFormatter(testSchema(), b, d, nil)
	return b, refs, NewExpressionFormatter(refs)
}

func bindFragment(t *testing.T, b *command.Builder, f command.Fragment) *command.Command {
	t.Helper()
	b.AppendFragment(f)
	cmd, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return cmd
}

// =============================================================================
// Reference Formatting
// =============================================================================

func TestFormatColumnClause(t *testing.T) {
	tests := []struct {
		name string
		ref  *types.Reference
		want string
	}{
		{"column", types.Object("Users", "Name"), "[dbo].[Users].[Name]"},
		{"schema qualified", types.Object("dbo", "Users", "Name"), "[dbo].[Users].[Name]"},
		{"case insensitive", types.Object("users", "name"), "[dbo].[Users].[Name]"},
		{"aliased column", types.Object("Users", "Name").As("n"), "[dbo].[Users].[Name] AS [n]"},
		{"aliased table", types.Object("Orders").As("o").Child("Total"), "[o].[Total]"},
		{"all columns", types.AllColumns(types.Object("Users")), "[dbo].[Users].*"},
		{"count", types.CountAll(), "COUNT(*)"},
		{"exists", types.ExistsMarker(), "DISTINCT 1"},
		{"sum", types.Function("sum", types.Object("Orders", "Total")).As("t"), "SUM([dbo].[Orders].[Total]) AS [t]"},
		{"length converted", types.Function("length", types.Object("Users", "Name")), "LEN([dbo].[Users].[Name])"},
		{"average renamed", types.Function("average", types.Object("Users", "Age")), "AVG([dbo].[Users].[Age])"},
		{"count distinct", types.Function("countdistinct", types.Object("Users", "Age")), "COUNT(DISTINCT [dbo].[Users].[Age])"},
		{"math refs", types.Math(types.Object("Users", "Age"), types.Multiply, types.Object("Users", "Id")), "([dbo].[Users].[Age] * [dbo].[Users].[Id])"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, refs, _ := formatters(newDialect())
			frag, err := refs.FormatColumnClause(tt.ref)
			if err != nil {
				t.Fatalf("FormatColumnClause() error: %v", err)
			}
			if got := bindFragment(t, b, frag).Text; got != tt.want {
				t.Errorf("FormatColumnClause() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat_LiteralOperandsBecomeParameters(t *testing.T) {
	b, refs, _ := formatters(newDialect())
	frag, err := refs.Format(types.Math(types.Object("Users", "Age"), types.Add, 5))
	if err != nil {
		t.Fatal(err)
	}
	cmd := bindFragment(t, b, frag)
	if cmd.Text != "([dbo].[Users].[Age] + @p1)" {
		t.Errorf("Text = %q", cmd.Text)
	}
	if diff := cmp.Diff([]any{5}, cmd.Values()); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}

	b, refs, _ = formatters(newDialect())
	frag, err = refs.Format(types.Function("substring", types.Object("Users", "Name"), 1, 3))
	if err != nil {
		t.Fatal(err)
	}
	cmd = bindFragment(t, b, frag)
	if cmd.Text != "SUBSTRING([dbo].[Users].[Name],@p1,@p2)" {
		t.Errorf("Text = %q", cmd.Text)
	}
}

func TestFormat_Errors(t *testing.T) {
	_, refs, _ := formatters(newDialect())

	_, err := refs.Format(types.Object("Users", "Nope"))
	var ue schema.UnresolvableObjectError
	if !errors.As(err, &ue) {
		t.Errorf("unknown column: got %v, want UnresolvableObjectError", err)
	}

	_, err = refs.Format(types.Object("Widgets", "Id"))
	if !errors.As(err, &ue) {
		t.Errorf("unknown table: got %v, want UnresolvableObjectError", err)
	}

	_, err = refs.Format(&types.Reference{Kind: types.RefKind(99)})
	var iq types.InvalidQueryError
	if !errors.As(err, &iq) {
		t.Errorf("unknown kind: got %v, want InvalidQueryError", err)
	}

	_, err = refs.Format(types.Object("Name"))
	if !errors.As(err, &iq) {
		t.Errorf("ownerless column: got %v, want InvalidQueryError", err)
	}
}

// =============================================================================
// Expression Formatting
// =============================================================================

func TestExpressionFormatter(t *testing.T) {
	id := types.Object("Users", "Id")
	name := types.Object("Users", "Name")
	tests := []struct {
		name     string
		expr     *types.Expression
		wantSQL  string
		wantVals []any
	}{
		{
			"equal",
			types.Compare(id, types.Equal, 5),
			"[dbo].[Users].[Id] = @p1", []any{5},
		},
		{
			"range",
			types.Compare(id, types.Equal, types.To(1, 10)),
			"[dbo].[Users].[Id] BETWEEN @p1_start AND @p1_end", []any{1, 10},
		},
		{
			"list",
			types.Compare(id, types.Equal, []int{1, 2, 3}),
			"[dbo].[Users].[Id] IN (@p1_0,@p1_1,@p1_2)", []any{1, 2, 3},
		},
		{
			"not in list",
			types.Compare(id, types.NotEqual, []int{1, 2, 3}),
			"[dbo].[Users].[Id] NOT IN (@p1_0,@p1_1,@p1_2)", []any{1, 2, 3},
		},
		{
			"is null",
			types.Compare(name, types.Equal, nil),
			"[dbo].[Users].[Name] IS NULL", nil,
		},
		{
			"and",
			types.AndExpr(types.Compare(id, types.GreaterThan, 1), types.Compare(name, types.Like, "a%")),
			"([dbo].[Users].[Id] > @p1 AND [dbo].[Users].[Name] LIKE @p2)", []any{1, "a%"},
		},
		{
			"or",
			types.OrExpr(types.Compare(id, types.LessOrEqual, 1), types.Compare(id, types.GreaterOrEqual, 9)),
			"([dbo].[Users].[Id] <= @p1 OR [dbo].[Users].[Id] >= @p2)", []any{1, 9},
		},
		{
			"not like",
			types.NotExpr(types.Compare(name, types.Like, "a%")),
			"[dbo].[Users].[Name] NOT LIKE @p1", []any{"a%"},
		},
		{
			"ilike without operator",
			types.Compare(name, types.ILike, "A%"),
			"LOWER([dbo].[Users].[Name]) LIKE LOWER(@p1)", []any{"A%"},
		},
		{
			"not ilike without operator",
			types.NotExpr(types.Compare(name, types.ILike, "A%")),
			"LOWER([dbo].[Users].[Name]) NOT LIKE LOWER(@p1)", []any{"A%"},
		},
		{
			"not",
			types.NotExpr(types.Compare(id, types.LessThan, 3)),
			"NOT ([dbo].[Users].[Id] < @p1)", []any{3},
		},
		{
			"column to column",
			types.Compare(types.Object("Orders", "UserId"), types.Equal, id),
			"[dbo].[Orders].[UserId] = [dbo].[Users].[Id]", nil,
		},
		{
			"function left",
			types.Compare(types.Function("length", name), types.GreaterThan, 3),
			"LEN([dbo].[Users].[Name]) > @p1", []any{3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, exprs := formatters(newDialect())
			frag, err := exprs.Format(tt.expr)
			if err != nil {
				t.Fatalf("Format() error: %v", err)
			}
			cmd := bindFragment(t, b, frag)
			if cmd.Text != tt.wantSQL {
				t.Errorf("Text = %q, want %q", cmd.Text, tt.wantSQL)
			}
			got := cmd.Values()
			if len(got) == 0 {
				got = nil
			}
			if diff := cmp.Diff(tt.wantVals, got); diff != "" {
				t.Errorf("Values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpressionFormatter_Empty(t *testing.T) {
	_, _, exprs := formatters(newDialect())
	frag, err := exprs.Format(types.Empty)
	if err != nil || len(frag) != 0 {
		t.Errorf("Format(Empty) = %v, %v; want empty fragment", frag, err)
	}
}

func TestExpressionFormatter_ILikeOperator(t *testing.T) {
	d := newDialect()
	d.ops.ILike, d.ops.NotILike = "ILIKE", "NOT ILIKE"
	name := types.Object("Users", "Name")
	tests := map[string]struct {
		expr *types.Expression
		want string
	}{
		"ilike":     {types.Compare(name, types.ILike, "a%"), "[dbo].[Users].[Name] ILIKE @p1"},
		"not ilike": {types.NotExpr(types.Compare(name, types.ILike, "a%")), "[dbo].[Users].[Name] NOT ILIKE @p1"},
	}
	for label, tt := range tests {
		t.Run(label, func(t *testing.T) {
			b, _, exprs := formatters(d)
			frag, err := exprs.Format(tt.expr)
			if err != nil {
				t.Fatalf("Format() error: %v", err)
			}
			if cmd := bindFragment(t, b, frag); cmd.Text != tt.want {
				t.Errorf("Text = %q, want %q", cmd.Text, tt.want)
			}
		})
	}
}

func TestHash_ILikeDiffersFromLike(t *testing.T) {
	name := types.Object("Users", "Name")
	if Hash(types.Compare(name, types.Like, "a%")) == Hash(types.Compare(name, types.ILike, "a%")) {
		t.Error("expected ILIKE and LIKE to hash differently")
	}
}

func TestExpressionFormatter_UnsupportedOperator(t *testing.T) {
	d := newDialect()
	d.ops.Like = ""
	_, _, exprs := formatters(d)
	_, err := exprs.Format(types.Compare(types.Object("Users", "Name"), types.Like, "a%"))
	var uf render.UnsupportedFeatureError
	if !errors.As(err, &uf) {
		t.Fatalf("expected UnsupportedFeatureError, got %v", err)
	}
	if uf.Dialect != "test" {
		t.Errorf("Dialect = %q, want test", uf.Dialect)
	}
}

// =============================================================================
// Hashing
// =============================================================================

func TestHash_SameShapeDifferentValues(t *testing.T) {
	a := types.Compare(types.Object("Users", "Id"), types.Equal, 1)
	b := types.Compare(types.Object("users", "id"), types.Equal, 2)
	if Hash(a) != Hash(b) {
		t.Error("expected equal hashes for same shape")
	}
	c := types.Compare(types.Object("Users", "Id"), types.NotEqual, 1)
	if Hash(a) == Hash(c) {
		t.Error("expected operator to change the hash")
	}
}

func TestCanonical_AndOrderIndependent(t *testing.T) {
	x := types.Compare(types.Object("Users", "Name"), types.Equal, "bob")
	y := types.Compare(types.Object("Users", "Age"), types.Equal, 30)
	z := types.Compare(types.Object("Users", "Id"), types.GreaterThan, 4)

	ab := Canonical(types.AndExpr(types.AndExpr(x, y), z))
	ba := Canonical(types.AndExpr(z, types.AndExpr(y, x)))
	if Shape(ab) != Shape(ba) {
		t.Errorf("shapes differ:\n%s\n%s", Shape(ab), Shape(ba))
	}
	if Hash(ab) != Hash(ba) {
		t.Error("expected equal hashes after canonicalization")
	}

	or1 := Canonical(types.OrExpr(x, y))
	or2 := Canonical(types.OrExpr(y, x))
	if Hash(or1) == Hash(or2) {
		t.Error("OR operands should stay ordered")
	}
}

func TestValues_MatchesParameterOrder(t *testing.T) {
	expr := Canonical(types.AndExpr(
		types.Compare(types.Object("Users", "Name"), types.Like, "a%"),
		types.AndExpr(
			types.Compare(types.Math(types.Object("Users", "Age"), types.Add, 1), types.GreaterThan, 20),
			types.Compare(types.Object("Users", "Id"), types.Equal, []int{1, 2}),
		),
	))
	b, _, exprs := formatters(newDialect())
	frag, err := exprs.Format(expr)
	if err != nil {
		t.Fatal(err)
	}
	b.AppendFragment(frag)
	if diff := cmp.Diff(b.Values(), Values(expr)); diff != "" {
		t.Errorf("Values() disagrees with builder order (-builder +values):\n%s", diff)
	}
}

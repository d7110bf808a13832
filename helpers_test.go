package dynql_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/schema"
)

// testDialect quotes with brackets and pages with LIMIT/OFFSET.
type testDialect struct {
	locking bool
}

func (testDialect) Name() string                           { return "test" }
func (testDialect) QuoteObjectName(name string) string     { return "[" + name + "]" }
func (testDialect) NameParameter(name string) string       { return "@" + name }
func (testDialect) Operators() dynql.Operators             { return dynql.StandardOperators }
func (testDialect) ConvertFunctionName(name string) string { return name }

func (d testDialect) Capabilities() dynql.Capabilities {
	c := dynql.Capabilities{Paging: dynql.PagingLimitOffset, NamedParameters: true}
	if d.locking {
		c.RowLocking = dynql.RowLockingBasic
	}
	return c
}

func (testDialect) ApplyPaging(sql string, skip, take int) (string, error) {
	if take >= 0 {
		sql += fmt.Sprintf(" LIMIT %d", take)
	}
	if skip > 0 {
		sql += fmt.Sprintf(" OFFSET %d", skip)
	}
	return sql, nil
}

func (d testDialect) ApplyLock(sql string, _ dynql.ForUpdateClause) (string, error) {
	if !d.locking {
		return "", dynql.NewUnsupportedFeatureError("test", "FOR UPDATE")
	}
	return sql + " FOR UPDATE", nil
}

func (testDialect) OptimizeFindOne(sql string) string {
	return strings.Replace(sql, "select ", "select TOP 1 ", 1)
}

// recorder captures every command and answers with canned rows.
type recorder struct {
	mu       sync.Mutex
	commands []*dynql.Command
	rows     []dynql.Row
	affected int64
	err      error
}

func (r *recorder) QueryRows(_ context.Context, cmd *dynql.Command) ([]dynql.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.rows, r.err
}

func (r *recorder) Exec(_ context.Context, cmd *dynql.Command) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.affected, r.err
}

func (r *recorder) all() []*dynql.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*dynql.Command(nil), r.commands...)
}

func (r *recorder) last() *dynql.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.commands) == 0 {
		return nil
	}
	return r.commands[len(r.commands)-1]
}

func testProvider() *schema.StaticProvider {
	p := schema.NewStaticProvider("dbo")
	p.AddTable("Users",
		schema.ColumnInfo{Name: "Id", DbType: schema.Int32, IsIdentity: true},
		schema.ColumnInfo{Name: "Name", DbType: schema.String},
		schema.ColumnInfo{Name: "Age", DbType: schema.Int32},
	)
	p.SetPrimaryKey("Users", "Id")
	p.AddTable("Customers",
		schema.ColumnInfo{Name: "CustomerId", DbType: schema.Int32},
		schema.ColumnInfo{Name: "Name", DbType: schema.String},
	)
	p.SetPrimaryKey("Customers", "CustomerId")
	p.AddTable("Orders",
		schema.ColumnInfo{Name: "OrderId", DbType: schema.Int32},
		schema.ColumnInfo{Name: "CustomerId", DbType: schema.Int32},
		schema.ColumnInfo{Name: "Total", DbType: schema.Decimal},
	)
	p.SetPrimaryKey("Orders", "OrderId")
	p.AddForeignKey("Orders", []string{"CustomerId"}, "Customers", []string{"CustomerId"})
	return p
}

func openTest(opts ...dynql.Option) (*dynql.Database, *recorder) {
	rec := &recorder{}
	return dynql.Open(testProvider(), testDialect{}, rec, opts...), rec
}

const usersSelect = "select [dbo].[Users].[Id],[dbo].[Users].[Name],[dbo].[Users].[Age] from [dbo].[Users]"

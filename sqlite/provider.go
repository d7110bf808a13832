package sqlite

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/zoobzio/dynql/schema"
	"github.com/zoobzio/dynql/sqlexec"
)

// Provider reads table metadata from sqlite_master and the table pragmas.
// SQLite has no stored procedures.
type Provider struct {
	conn sqlexec.Conn
}

// NewProvider returns a Provider reading from conn.
func NewProvider(conn sqlexec.Conn) *Provider {
	return &Provider{conn: conn}
}

func (p *Provider) Tables(ctx context.Context) ([]schema.TableInfo, error) {
	rows, err := p.conn.QueryContext(ctx,
		`SELECT name, type FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying sqlite_master")
	}
	defer rows.Close()

	var out []schema.TableInfo
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, errors.Wrap(err, "scanning table")
		}
		info := schema.TableInfo{Name: name}
		if kind == "view" {
			info.Type = schema.View
		}
		out = append(out, info)
	}
	return out, errors.Wrap(rows.Err(), "reading tables")
}

type columnRow struct {
	name   string
	typ    string
	pkSlot int
}

func (p *Provider) tableInfo(ctx context.Context, table string) ([]columnRow, error) {
	rows, err := p.conn.QueryContext(ctx, `SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, errors.Wrapf(err, "reading columns of %s", table)
	}
	defer rows.Close()

	var out []columnRow
	for rows.Next() {
		var c columnRow
		if err := rows.Scan(&c.name, &c.typ, &c.pkSlot); err != nil {
			return nil, errors.Wrap(err, "scanning column")
		}
		out = append(out, c)
	}
	return out, errors.Wrapf(rows.Err(), "reading columns of %s", table)
}

func (p *Provider) Columns(ctx context.Context, table schema.TableInfo) ([]schema.ColumnInfo, error) {
	cols, err := p.tableInfo(ctx, table.Name)
	if err != nil {
		return nil, err
	}

	pkCount := 0
	for _, c := range cols {
		if c.pkSlot > 0 {
			pkCount++
		}
	}

	out := make([]schema.ColumnInfo, 0, len(cols))
	for _, c := range cols {
		out = append(out, schema.ColumnInfo{
			Name:   c.name,
			DbType: schema.ParseDbType(c.typ),
			// A lone INTEGER PRIMARY KEY aliases the rowid.
			IsIdentity: pkCount == 1 && c.pkSlot == 1 && strings.EqualFold(c.typ, "integer"),
		})
	}
	return out, nil
}

func (p *Provider) PrimaryKey(ctx context.Context, table schema.TableInfo) ([]string, error) {
	cols, err := p.tableInfo(ctx, table.Name)
	if err != nil {
		return nil, err
	}
	var keyed []columnRow
	for _, c := range cols {
		if c.pkSlot > 0 {
			keyed = append(keyed, c)
		}
	}
	sort.Slice(keyed, func(i, j int) bool { return keyed[i].pkSlot < keyed[j].pkSlot })

	out := make([]string, len(keyed))
	for i, c := range keyed {
		out[i] = c.name
	}
	return out, nil
}

func (p *Provider) ForeignKeys(ctx context.Context, table schema.TableInfo) ([]schema.ForeignKeyInfo, error) {
	rows, err := p.conn.QueryContext(ctx,
		`SELECT id, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "reading foreign keys of %s", table.Name)
	}
	defer rows.Close()

	var (
		out    []schema.ForeignKeyInfo
		lastID = -1
		// Keys declared without target columns reference the master's
		// primary key; those are filled in after the scan.
		implicit []int
	)
	for rows.Next() {
		var (
			id           int
			master, from string
			to           sql.NullString
		)
		if err := rows.Scan(&id, &master, &from, &to); err != nil {
			return nil, errors.Wrap(err, "scanning foreign key")
		}
		if id != lastID {
			out = append(out, schema.ForeignKeyInfo{
				Name:        table.Name + "_fk" + strconv.Itoa(id),
				MasterTable: master,
			})
			lastID = id
		}
		fk := &out[len(out)-1]
		fk.Columns = append(fk.Columns, from)
		if to.Valid {
			fk.MasterColumns = append(fk.MasterColumns, to.String)
		} else if len(implicit) == 0 || implicit[len(implicit)-1] != len(out)-1 {
			implicit = append(implicit, len(out)-1)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading foreign keys of %s", table.Name)
	}
	rows.Close()

	for _, i := range implicit {
		pk, err := p.PrimaryKey(ctx, schema.TableInfo{Name: out[i].MasterTable})
		if err != nil {
			return nil, err
		}
		out[i].MasterColumns = pk
	}
	return out, nil
}

func (p *Provider) Procedures(_ context.Context) ([]schema.ProcedureInfo, error) {
	return nil, nil
}

func (p *Provider) Parameters(_ context.Context, _ schema.ProcedureInfo) ([]schema.ParameterInfo, error) {
	return nil, nil
}

// DefaultSchema is empty; SQLite names are unqualified.
func (p *Provider) DefaultSchema() string { return "" }

// Package mssql provides the SQL Server dialect for dynql.
package mssql

import (
	"strconv"
	"strings"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/internal/render"
)

// rowNumber is the window column added when paging with a skip.
const rowNumber = "[_#_]"

// Dialect implements dynql.Dialect for SQL Server.
type Dialect struct{}

// New creates a new SQL Server dialect.
func New() *Dialect {
	return &Dialect{}
}

func (d *Dialect) Name() string { return "mssql" }

// QuoteObjectName quotes a SQL Server identifier with brackets.
func (d *Dialect) QuoteObjectName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *Dialect) NameParameter(name string) string { return "@" + name }

func (d *Dialect) Operators() dynql.Operators { return dynql.StandardOperators }

func (d *Dialect) ConvertFunctionName(name string) string {
	switch strings.ToLower(name) {
	case "length", "char_length":
		return "len"
	case "substr":
		return "substring"
	default:
		return name
	}
}

// ApplyPaging limits with TOP when nothing is skipped. A skip wraps the
// select in a __Data CTE numbered with ROW_NUMBER() over the query's own
// ORDER BY, or over its first column when it has none.
func (d *Dialect) ApplyPaging(sql string, skip, take int) (string, error) {
	if skip <= 0 {
		if take < 0 {
			return sql, nil
		}
		return insertTop(sql, take)
	}
	return pageRowNumber(sql, skip, take)
}

// ApplyLock always fails. SQL Server locks rows with table hints, which a
// trailing clause cannot express.
func (d *Dialect) ApplyLock(_ string, _ dynql.ForUpdateClause) (string, error) {
	return "", render.NewUnsupportedFeatureError("mssql", "FOR UPDATE",
		"use WITH (UPDLOCK, ROWLOCK) table hints inside a transaction")
}

func (d *Dialect) OptimizeFindOne(sql string) string {
	if out, err := insertTop(sql, 1); err == nil {
		return out
	}
	return sql
}

// Capabilities returns the SQL features supported by SQL Server.
func (d *Dialect) Capabilities() render.Capabilities {
	return render.Capabilities{
		Paging:          render.PagingRowNumber,
		RowLocking:      render.RowLockingNone,
		NamedParameters: true,
	}
}

// insertTop places TOP n after the select keyword and any DISTINCT.
func insertTop(sql string, n int) (string, error) {
	head, ok := cutPrefixFold(sql, "select ")
	if !ok {
		return "", render.NewUnsupportedFeatureError("mssql", "paging a statement that is not a select")
	}
	prefix := sql[:len(sql)-len(head)]
	if rest, ok := cutPrefixFold(head, "distinct "); ok {
		prefix += head[:len(head)-len(rest)]
		head = rest
	}
	return prefix + "TOP " + strconv.Itoa(n) + " " + head, nil
}

func pageRowNumber(sql string, skip, take int) (string, error) {
	body, ok := cutPrefixFold(sql, "select ")
	if !ok {
		return "", render.NewUnsupportedFeatureError("mssql", "paging a statement that is not a select")
	}
	if _, distinct := cutPrefixFold(body, "distinct "); distinct {
		return "", render.NewUnsupportedFeatureError("mssql", "Skip with Distinct",
			"ROW_NUMBER() numbers rows before DISTINCT removes duplicates")
	}

	from := indexTopLevel(body, " from ", false)
	if from < 0 {
		return "", render.NewUnsupportedFeatureError("mssql", "paging a select without FROM")
	}
	columns := body[:from]
	rest := body[from+len(" from "):]

	var orderBy string
	if i := indexTopLevel(rest, " ORDER BY ", true); i >= 0 {
		orderBy = strings.TrimSpace(rest[i:])
		rest = rest[:i]
	}

	cols := splitTopLevel(columns)
	if orderBy == "" {
		first, _ := splitAlias(cols[0])
		orderBy = "ORDER BY " + first
	}

	outer := make([]string, len(cols))
	for i, c := range cols {
		name, ok := outerName(c)
		if !ok {
			return "", render.NewUnsupportedFeatureError("mssql", "Skip over an unnamed expression",
				"alias computed columns so the paged result can name them")
		}
		outer[i] = name
	}

	var b strings.Builder
	b.WriteString("WITH __Data AS (SELECT ")
	b.WriteString(columns)
	b.WriteString(", ROW_NUMBER() OVER(")
	b.WriteString(orderBy)
	b.WriteString(") AS " + rowNumber + " FROM ")
	b.WriteString(rest)
	b.WriteString(") SELECT ")
	b.WriteString(strings.Join(outer, ","))
	b.WriteString(" FROM __Data WHERE " + rowNumber)
	if take >= 0 {
		b.WriteString(" BETWEEN " + strconv.Itoa(skip+1) + " AND " + strconv.Itoa(skip+take))
	} else {
		b.WriteString(" > " + strconv.Itoa(skip))
	}
	b.WriteString(" ORDER BY " + rowNumber)
	return b.String(), nil
}

// outerName is how the CTE exposes a select column: its alias, or the last
// segment of a qualified column name.
func outerName(col string) (string, bool) {
	expr, alias := splitAlias(col)
	if alias != "" {
		return alias, true
	}
	if strings.ContainsAny(expr, "()") || !strings.HasSuffix(expr, "]") {
		return "", false
	}
	if i := strings.LastIndex(expr, ".["); i >= 0 {
		return expr[i+1:], true
	}
	return expr, true
}

func splitAlias(col string) (expr, alias string) {
	if i := indexTopLevel(col, " AS ", true); i >= 0 {
		return col[:i], strings.TrimSpace(col[i+len(" AS "):])
	}
	return col, ""
}

// splitTopLevel splits a select list at commas outside parentheses and
// brackets.
func splitTopLevel(s string) []string {
	var (
		out     []string
		depth   int
		bracket bool
		start   int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case bracket:
			if c == ']' {
				bracket = false
			}
		case c == '[':
			bracket = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

// indexTopLevel finds token outside parentheses and brackets, ignoring
// case. With last set it returns the final match.
func indexTopLevel(s, token string, last bool) int {
	var (
		depth   int
		bracket bool
		found   = -1
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case bracket:
			if c == ']' {
				bracket = false
			}
			continue
		case c == '[':
			bracket = true
			continue
		case c == '(':
			depth++
			continue
		case c == ')':
			depth--
			continue
		}
		if depth == 0 && i+len(token) <= len(s) && strings.EqualFold(s[i:i+len(token)], token) {
			if !last {
				return i
			}
			found = i
		}
	}
	return found
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

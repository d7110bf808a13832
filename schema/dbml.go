package schema

import (
	"sort"
	"strings"

	"github.com/zoobzio/dbml"
)

// FromDBML declares every table and column of a DBML project in a new
// StaticProvider. Keys are not part of the conversion; declare them on the
// returned provider.
//
// Columns named "id" are marked as identity primary keys.
func FromDBML(project *dbml.Project, defaultSchema string) *StaticProvider {
	p := NewStaticProvider(defaultSchema)

	var tables []*dbml.Table
	for _, t := range project.Tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })

	for _, t := range tables {
		var cols []ColumnInfo
		var pk []string
		for _, c := range t.Columns {
			info := ColumnInfo{Name: c.Name, DbType: ParseDbType(c.Type)}
			if strings.EqualFold(c.Name, "id") {
				info.IsIdentity = true
				pk = append(pk, c.Name)
			}
			cols = append(cols, info)
		}
		p.AddTable(t.Name, cols...)
		if len(pk) > 0 {
			p.SetPrimaryKey(t.Name, pk...)
		}
	}
	return p
}

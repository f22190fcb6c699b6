// Package query provides a projection map and a fluent SQL builder for
// parameterized PostgreSQL queries.
package query

import (
	"fmt"
	"strings"
)

type projection struct {
	column string
	view   string
}

// ProjectionMap maps view field names onto the aliased columns of a table.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns []projection
	index   map[string]string
}

// NewProjectionMap creates an empty projection for schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema: schema,
		table:  table,
		alias:  alias,
		index:  make(map[string]string),
	}
}

// Project registers a column under a view name. Projection order is preserved
// in Columns and ColumnList, so scanners must follow it.
func (p *ProjectionMap) Project(column, view string) *ProjectionMap {
	qualified := fmt.Sprintf("%s.%s", p.alias, column)
	p.columns = append(p.columns, projection{column: qualified, view: view})
	p.index[view] = qualified
	return p
}

// Alias returns the table alias.
func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table returns the aliased table reference used in FROM clauses.
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Column resolves a view name to its qualified column.
// Unknown names are returned unchanged.
func (p *ProjectionMap) Column(view string) string {
	if col, ok := p.index[view]; ok {
		return col
	}
	return view
}

// Columns returns the comma-separated select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.ColumnList(), ", ")
}

// ColumnList returns the qualified columns in projection order.
func (p *ProjectionMap) ColumnList() []string {
	cols := make([]string, len(p.columns))
	for i, c := range p.columns {
		cols[i] = c.column
	}
	return cols
}

package sqldsl

// TableExpr is the interface for table expressions in FROM clauses.
// Types that can be used as table sources implement this interface.
type TableExpr interface {
	// TableSQL returns the SQL for use in a FROM clause.
	TableSQL() string
	// TableAlias returns the alias if any (empty string if none).
	TableAlias() string
}

// TableRef wraps a raw table name for use as a TableExpr.
// Oracle rejects AS before a table alias, so the alias follows the name directly.
type TableRef struct {
	Name  string
	Alias string
}

// TableSQL implements TableExpr.
func (t TableRef) TableSQL() string {
	if t.Alias != "" {
		return t.Name + " " + t.Alias
	}
	return t.Name
}

// TableAlias implements TableExpr.
func (t TableRef) TableAlias() string {
	return t.Alias
}

// TableAs creates a table reference with an alias.
func TableAs(name, alias string) TableRef {
	return TableRef{Name: name, Alias: alias}
}

// Table creates a table reference without an alias.
func Table(name string) TableRef {
	return TableRef{Name: name}
}

// Subquery wraps a query as an inline view.
type Subquery struct {
	Query SQLer
	Alias string
}

// TableSQL implements TableExpr.
func (s Subquery) TableSQL() string {
	out := "(\n" + IndentLines(s.Query.SQL(), "    ") + "\n)"
	if s.Alias != "" {
		out += " " + s.Alias
	}
	return out
}

// TableAlias implements TableExpr.
func (s Subquery) TableAlias() string {
	return s.Alias
}

// RawTable is an escape hatch for table sources the DSL does not model,
// such as JSON_TABLE projections.
type RawTable struct {
	SQL   string
	Alias string
}

// TableSQL implements TableExpr.
func (r RawTable) TableSQL() string {
	if r.Alias != "" {
		return r.SQL + " " + r.Alias
	}
	return r.SQL
}

// TableAlias implements TableExpr.
func (r RawTable) TableAlias() string {
	return r.Alias
}

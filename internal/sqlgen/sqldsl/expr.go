package sqldsl

import (
	"fmt"
	"strings"
)

// Expr is the interface that all SQL expression types implement.
type Expr interface {
	SQL() string
}

// Bind represents a named bind placeholder (e.g., :dcid, :days_back).
// The value is supplied separately; it never appears in the SQL text.
type Bind string

// SQL renders the placeholder.
func (b Bind) SQL() string {
	return ":" + string(b)
}

// Name returns the bind name without the leading colon.
func (b Bind) Name() string {
	return string(b)
}

// Col represents a table column reference (e.g., msi.organization_id).
// Outer marks the column with the Oracle (+) outer join operator.
type Col struct {
	Table  string
	Column string
	Outer  bool
}

// SQL renders the column reference.
func (c Col) SQL() string {
	s := c.Column
	if c.Table != "" {
		s = c.Table + "." + c.Column
	}
	if c.Outer {
		s += "(+)"
	}
	return s
}

// OuterCol creates a column carrying the (+) outer join marker.
func OuterCol(table, column string) Col {
	return Col{Table: table, Column: column, Outer: true}
}

// Lit represents a literal string value (auto-quoted with single quotes).
type Lit string

// SQL renders the literal with single quotes.
func (l Lit) SQL() string {
	// Escape single quotes by doubling them
	escaped := strings.ReplaceAll(string(l), "'", "''")
	return "'" + escaped + "'"
}

// Raw is an escape hatch for arbitrary SQL expressions.
type Raw string

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string {
	return string(r)
}

// Int represents an integer literal.
type Int int

// SQL renders the integer.
func (i Int) SQL() string {
	return fmt.Sprintf("%d", i)
}

// Null represents SQL NULL.
type Null struct{}

// SQL renders NULL.
func (Null) SQL() string {
	return "NULL"
}

// Common Oracle pseudo-columns.
var (
	Sysdate      = Raw("SYSDATE")
	TruncSysdate = Raw("TRUNC(SYSDATE)")
)

// Func represents a SQL function call.
type Func struct {
	Name string
	Args []Expr
}

// SQL renders the function call.
func (f Func) SQL() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.SQL()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// Upper wraps an expression in UPPER().
func Upper(e Expr) Func {
	return Func{Name: "UPPER", Args: []Expr{e}}
}

// Trunc wraps an expression in TRUNC().
func Trunc(e Expr) Func {
	return Func{Name: "TRUNC", Args: []Expr{e}}
}

// Nvl renders NVL(expr, fallback).
func Nvl(e, fallback Expr) Func {
	return Func{Name: "NVL", Args: []Expr{e, fallback}}
}

// ToChar wraps an expression in TO_CHAR().
func ToChar(e Expr) Func {
	return Func{Name: "TO_CHAR", Args: []Expr{e}}
}

// Alias wraps an expression with a column alias. Oracle accepts the
// alias without AS, which is the form used throughout the ERP queries.
type Alias struct {
	Expr Expr
	Name string
}

// SQL renders the aliased expression.
func (a Alias) SQL() string {
	return a.Expr.SQL() + " " + a.Name
}

// Concat represents SQL string concatenation (||).
type Concat struct {
	Parts []Expr
}

// SQL renders the concatenation.
func (c Concat) SQL() string {
	if len(c.Parts) == 0 {
		return "''"
	}
	parts := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		parts[i] = p.SQL()
	}
	return strings.Join(parts, " || ")
}

// Contains renders the '%' || expr || '%' pattern used for substring
// matching against a bound value.
func Contains(e Expr) Concat {
	return Concat{Parts: []Expr{Lit("%"), e, Lit("%")}}
}

// ScalarSubquery wraps a single-value subquery used as a column or operand.
type ScalarSubquery struct {
	Query SQLer
}

// SQL renders the subquery in parentheses.
func (s ScalarSubquery) SQL() string {
	return "(\n" + IndentLines(s.Query.SQL(), "    ") + "\n)"
}

// SelectAs creates an aliased column expression (expr alias).
// Shorthand for Alias{Expr: expr, Name: alias}.
func SelectAs(expr Expr, alias string) Alias {
	return Alias{Expr: expr, Name: alias}
}

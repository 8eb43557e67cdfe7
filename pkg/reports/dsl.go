// This file re-exports the SQL DSL so report templates read as SQL.

package reports

import "github.com/atdtech/dcdash/internal/sqlgen/sqldsl"

// Expressions
type (
	Expr           = sqldsl.Expr
	Col            = sqldsl.Col
	Lit            = sqldsl.Lit
	Raw            = sqldsl.Raw
	Int            = sqldsl.Int
	Null           = sqldsl.Null
	Func           = sqldsl.Func
	Alias          = sqldsl.Alias
	Concat         = sqldsl.Concat
	ScalarSubquery = sqldsl.ScalarSubquery
)

// Operators
type (
	Eq        = sqldsl.Eq
	Ne        = sqldsl.Ne
	Gt        = sqldsl.Gt
	Gte       = sqldsl.Gte
	Add       = sqldsl.Add
	Sub       = sqldsl.Sub
	Between   = sqldsl.Between
	Like      = sqldsl.Like
	NotLike   = sqldsl.NotLike
	In        = sqldsl.In
	NotIn     = sqldsl.NotIn
	NotExists = sqldsl.NotExists
	IsNull    = sqldsl.IsNull
	CaseWhen  = sqldsl.CaseWhen
	CaseExpr  = sqldsl.CaseExpr
)

// Statements
type (
	TableExpr  = sqldsl.TableExpr
	SelectStmt = sqldsl.SelectStmt
	CTEDef     = sqldsl.CTEDef
	WithCTE    = sqldsl.WithCTE
	QueryBlock = sqldsl.QueryBlock
	Union      = sqldsl.Union
	Subquery   = sqldsl.Subquery
	RawTable   = sqldsl.RawTable
	SQLer      = sqldsl.SQLer
)

// Functions
var (
	And      = sqldsl.And
	TableAs  = sqldsl.TableAs
	Table    = sqldsl.Table
	OuterCol = sqldsl.OuterCol
	SelectAs = sqldsl.SelectAs
	Upper    = sqldsl.Upper
	Trunc    = sqldsl.Trunc
	Nvl      = sqldsl.Nvl
	ToChar   = sqldsl.ToChar
	Contains = sqldsl.Contains
)

// Oracle pseudo-columns
var (
	Sysdate      = sqldsl.Sysdate
	TruncSysdate = sqldsl.TruncSysdate
)

func col(table, column string) Col { return Col{Table: table, Column: column} }

func outer(table, column string) Col { return OuterCol(table, column) }

func eq(left, right Expr) Eq { return Eq{Left: left, Right: right} }

func like(e, pattern Expr) Like { return Like{Expr: e, Pattern: pattern} }

func fn(name string, args ...Expr) Func { return Func{Name: name, Args: args} }

func as(e Expr, name string) Alias { return SelectAs(e, name) }

func concat(parts ...Expr) Concat { return Concat{Parts: parts} }

func scalar(q SQLer) ScalarSubquery { return ScalarSubquery{Query: q} }

func caseWhen(cond, result, otherwise Expr) CaseExpr {
	return CaseExpr{Whens: []CaseWhen{{Cond: cond, Result: result}}, Else: otherwise}
}

// countOf renders (SELECT COUNT(1) FROM table WHERE where).
func countOf(table string, where Expr) ScalarSubquery {
	return scalar(SelectStmt{
		ColumnExprs: []Expr{fn("COUNT", Int(1))},
		From:        []TableExpr{Table(table)},
		Where:       where,
	})
}

// flag renders CASE WHEN cond THEN 'Y' ELSE 'N' END.
func flag(cond Expr) CaseExpr {
	return caseWhen(cond, Lit("Y"), Lit("N"))
}

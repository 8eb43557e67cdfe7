// Package sqldsl provides a typed DSL for building Oracle reporting queries.
//
// # Overview
//
// Rather than constructing SQL strings through concatenation, this package
// provides typed building blocks that compose together to form complete
// queries. Values supplied by callers never appear in the SQL text: they
// travel as named binds rendered as :name placeholders.
//
// # Core Interfaces
//
// All DSL types implement one of two interfaces:
//
//   - Expr: Represents SQL expressions (columns, literals, operators, function calls)
//   - SQLer: Represents complete SQL statements (SELECT, WITH, UNION)
//
// Both interfaces define a SQL() method that renders Oracle syntax.
//
// # Expression Types
//
// Basic expressions:
//
//	Bind("dcid")                      // Named bind placeholder: :dcid
//	Col{Table: "msi", Column: "id"}   // Column reference: msi.id
//	OuterCol("wdd", "source_line_id") // Legacy outer join column: wdd.source_line_id(+)
//	Lit("Y")                          // String literal: 'Y'
//	Int(83)                           // Integer literal: 83
//	Null{}                            // NULL literal
//	Raw("TRUNC(SYSDATE)")             // Raw SQL (escape hatch)
//
// Operators:
//
//	Eq{Left: col, Right: Bind("dc")}  // col = :dc
//	Like{Expr: col, Pattern: p}       // col LIKE p
//	NotIn{Expr: col, Values: []string}// col NOT IN ('a', 'b')
//	And(expr1, expr2, expr3)          // (expr1 AND expr2 AND expr3), nils dropped
//	IsNull{Expr: col}                 // col IS NULL
//
// # Statement Types
//
// SELECT statements use Oracle comma joins, aliases without AS:
//
//	SelectStmt{
//	    ColumnExprs: []Expr{Col{Table: "mp", Column: "organization_code"}},
//	    From:        []TableExpr{TableAs("mtl_parameters", "mp")},
//	    Where:       And(condition1, condition2),
//	    OrderBy:     []Expr{Col{Table: "mp", Column: "organization_code"}},
//	}
//
// Common Table Expressions:
//
//	WithCTE{
//	    CTEs:  []CTEDef{{Name: "onhand", Query: cteQuery}},
//	    Query: finalSelect,
//	}
//
// UNION branches:
//
//	Union{All: true, Blocks: []QueryBlock{{Query: branch1}, {Query: branch2}}}
package sqldsl

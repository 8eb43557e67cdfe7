package sqldsl

import "strings"

// SelectStmt represents a SELECT query.
//
// From lists the comma-joined sources in the order they appear; Oracle's
// (+) operator on Col expresses the legacy outer joins inside Where.
type SelectStmt struct {
	ColumnExprs []Expr
	From        []TableExpr
	Where       Expr
	GroupBy     []Expr
	OrderBy     []Expr
}

// SQL renders the SELECT statement.
func (s SelectStmt) SQL() string {
	lines := []string{"SELECT " + s.columnsSQL()}
	if from := s.fromSQL(); from != "" {
		lines = append(lines, from)
	}
	if where := s.whereSQL(); where != "" {
		lines = append(lines, where)
	}
	if len(s.GroupBy) > 0 {
		lines = append(lines, "GROUP BY "+joinExprList(s.GroupBy, ", "))
	}
	if len(s.OrderBy) > 0 {
		lines = append(lines, "ORDER BY "+joinExprList(s.OrderBy, ", "))
	}
	return strings.Join(lines, "\n")
}

func (s SelectStmt) columnsSQL() string {
	if len(s.ColumnExprs) == 0 {
		return "1"
	}
	return joinExprList(s.ColumnExprs, ",\n       ")
}

func (s SelectStmt) fromSQL() string {
	if len(s.From) == 0 {
		return ""
	}
	parts := make([]string, len(s.From))
	for i, t := range s.From {
		parts[i] = t.TableSQL()
	}
	return "FROM " + strings.Join(parts, ",\n     ")
}

// whereSQL renders a top-level conjunction one predicate per line.
func (s SelectStmt) whereSQL() string {
	if s.Where == nil {
		return ""
	}
	if and, ok := s.Where.(AndExpr); ok {
		if len(and.Exprs) == 0 {
			return ""
		}
		return "WHERE " + joinExprList(and.Exprs, "\n  AND ")
	}
	return "WHERE " + s.Where.SQL()
}

func joinExprList(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, sep)
}

// =============================================================================
// Query Blocks (for UNION queries)
// =============================================================================

// SQLer is an interface for types that can render SQL.
// SelectStmt, WithCTE, Union and Raw all implement this interface.
type SQLer interface {
	SQL() string
}

// QueryBlock represents a query with optional comments.
// Used to build UNION queries with descriptive comments for each branch.
type QueryBlock struct {
	Comments []string // Comment lines (without -- prefix)
	Query    SQLer
}

// RenderUnionBlocks renders query blocks joined with UNION.
func RenderUnionBlocks(blocks []QueryBlock) string {
	return renderBlocks(blocks, "UNION")
}

// RenderUnionAllBlocks renders query blocks joined with UNION ALL.
func RenderUnionAllBlocks(blocks []QueryBlock) string {
	return renderBlocks(blocks, "UNION ALL")
}

func renderBlocks(blocks []QueryBlock, op string) string {
	if len(blocks) == 0 {
		return ""
	}
	parts := make([]string, len(blocks))
	for i, block := range blocks {
		parts[i] = renderSingleBlock(block)
	}
	return strings.Join(parts, "\n"+op+"\n")
}

// renderSingleBlock renders a single query block with comments.
func renderSingleBlock(block QueryBlock) string {
	var lines []string
	for _, comment := range block.Comments {
		lines = append(lines, "-- "+comment)
	}
	lines = append(lines, strings.TrimSpace(block.Query.SQL()))
	return strings.Join(lines, "\n")
}

// Union combines query blocks with UNION or UNION ALL. OrderBy applies to
// the combined result and may reference output columns by position.
type Union struct {
	All     bool
	Blocks  []QueryBlock
	OrderBy []Expr
}

// SQL renders the compound query.
func (u Union) SQL() string {
	var body string
	if u.All {
		body = RenderUnionAllBlocks(u.Blocks)
	} else {
		body = RenderUnionBlocks(u.Blocks)
	}
	if len(u.OrderBy) > 0 {
		body += "\nORDER BY " + joinExprList(u.OrderBy, ", ")
	}
	return body
}

// IndentLines adds the given indent prefix to each line of input.
func IndentLines(input, indent string) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(input), "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

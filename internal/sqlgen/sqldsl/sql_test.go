package sqldsl

import (
	"strings"
	"testing"
)

func TestExprRendering(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"bind", Bind("dcid"), ":dcid"},
		{"column", Col{Table: "msi", Column: "segment1"}, "msi.segment1"},
		{"unqualified column", Col{Column: "dc"}, "dc"},
		{"outer column", OuterCol("wdd", "source_line_id"), "wdd.source_line_id(+)"},
		{"literal escapes quotes", Lit("O'Brien"), "'O''Brien'"},
		{"int", Int(83), "83"},
		{"null", Null{}, "NULL"},
		{"alias without AS", SelectAs(Col{Table: "mp", Column: "organization_code"}, "dc"), "mp.organization_code dc"},
		{"func", Nvl(Col{Column: "qty"}, Int(0)), "NVL(qty, 0)"},
		{"upper", Upper(Bind("order_type")), "UPPER(:order_type)"},
		{"contains", Contains(Upper(Bind("customer"))), "'%' || UPPER(:customer) || '%'"},
		{"eq", Eq{Left: Col{Table: "ooh", Column: "order_number"}, Right: Bind("order_number")}, "ooh.order_number = :order_number"},
		{"gte", Gte{Left: Col{Column: "d"}, Right: Sub{Left: TruncSysdate, Right: Bind("days_back")}}, "d >= TRUNC(SYSDATE) - :days_back"},
		{"like", Like{Expr: Col{Column: "c"}, Pattern: Lit("DC%")}, "c LIKE 'DC%'"},
		{"not like", NotLike{Expr: Col{Column: "c"}, Pattern: Lit("%CLOSED%")}, "c NOT LIKE '%CLOSED%'"},
		{"between", Between{Expr: Col{Column: "d"}, Low: Bind("lo"), High: Bind("hi")}, "d BETWEEN :lo AND :hi"},
		{"in", In{Expr: Col{Column: "s"}, Values: []string{"B", "R"}}, "s IN ('B', 'R')"},
		{"empty in", In{Expr: Col{Column: "s"}}, "1 = 0"},
		{"empty not in", NotIn{Expr: Col{Column: "s"}}, "1 = 1"},
		{"and drops nils", And(Eq{Left: Col{Column: "a"}, Right: Int(1)}, nil), "a = 1"},
		{"empty and", And(), "1 = 1"},
		{"and of two", And(IsNull{Expr: Col{Column: "a"}}, Ne{Left: Col{Column: "b"}, Right: Int(0)}), "(a IS NULL AND b <> 0)"},
		{"not exists", NotExists{Query: Raw("SELECT 1 FROM dual")}, "NOT EXISTS (\n    SELECT 1 FROM dual\n)"},
		{
			"case",
			CaseExpr{
				Whens: []CaseWhen{{Cond: Eq{Left: Col{Column: "released_status"}, Right: Lit("Y")}, Result: Col{Column: "picked"}}},
				Else:  Int(0),
			},
			"CASE WHEN released_status = 'Y' THEN picked ELSE 0 END",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.SQL(); got != tt.want {
				t.Errorf("SQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectStmt_SQL(t *testing.T) {
	stmt := SelectStmt{
		ColumnExprs: []Expr{
			SelectAs(Col{Table: "mp", Column: "organization_code"}, "organization_code"),
			Col{Table: "mp", Column: "organization_id"},
		},
		From: []TableExpr{
			TableAs("mtl_parameters", "mp"),
			TableAs("hr_locations", "hl"),
		},
		Where: And(
			Eq{Left: Col{Table: "mp", Column: "organization_id"}, Right: Bind("dcid")},
			Eq{Left: Col{Table: "hl", Column: "inventory_organization_id"}, Right: OuterCol("mp", "organization_id")},
		),
		OrderBy: []Expr{Col{Table: "mp", Column: "organization_code"}},
	}

	want := strings.Join([]string{
		"SELECT mp.organization_code organization_code,",
		"       mp.organization_id",
		"FROM mtl_parameters mp,",
		"     hr_locations hl",
		"WHERE mp.organization_id = :dcid",
		"  AND hl.inventory_organization_id = mp.organization_id(+)",
		"ORDER BY mp.organization_code",
	}, "\n")

	if got := stmt.SQL(); got != want {
		t.Errorf("SelectStmt.SQL() =\n%s\nwant\n%s", got, want)
	}
}

func TestSelectStmt_MinimalAndGroupBy(t *testing.T) {
	got := SelectStmt{
		ColumnExprs: []Expr{Col{Column: "trip_id"}, Raw("COUNT(*) noofopenlines")},
		From:        []TableExpr{Table("openlinetrips")},
		GroupBy:     []Expr{Col{Column: "trip_id"}},
	}.SQL()

	want := "SELECT trip_id,\n       COUNT(*) noofopenlines\nFROM openlinetrips\nGROUP BY trip_id"
	if got != want {
		t.Errorf("SelectStmt.SQL() = %q, want %q", got, want)
	}

	if got := (SelectStmt{}).SQL(); got != "SELECT 1" {
		t.Errorf("empty SelectStmt.SQL() = %q, want %q", got, "SELECT 1")
	}
}

func TestUnion_SQL(t *testing.T) {
	u := Union{
		All: true,
		Blocks: []QueryBlock{
			{Comments: []string{"released to warehouse"}, Query: Raw("SELECT 1 n FROM dual")},
			{Query: Raw("SELECT 2 n FROM dual")},
		},
		OrderBy: []Expr{Int(1)},
	}
	want := "-- released to warehouse\nSELECT 1 n FROM dual\nUNION ALL\nSELECT 2 n FROM dual\nORDER BY 1"
	if got := u.SQL(); got != want {
		t.Errorf("Union.SQL() = %q, want %q", got, want)
	}

	plain := Union{Blocks: []QueryBlock{{Query: Raw("SELECT 1 FROM dual")}, {Query: Raw("SELECT 2 FROM dual")}}}
	if got := plain.SQL(); !strings.Contains(got, "\nUNION\n") || strings.Contains(got, "UNION ALL") {
		t.Errorf("Union.SQL() = %q, want plain UNION", got)
	}
}

func TestTableExprs(t *testing.T) {
	tests := []struct {
		name  string
		table TableExpr
		want  string
		alias string
	}{
		{"plain", Table("dual"), "dual", ""},
		{"aliased", TableAs("mtl_system_items_b", "msi"), "mtl_system_items_b msi", "msi"},
		{"subquery", Subquery{Query: Raw("SELECT 1 FROM dual"), Alias: "x"}, "(\n    SELECT 1 FROM dual\n) x", "x"},
		{"raw", RawTable{SQL: "JSON_TABLE(d.payload, '$' COLUMNS (id NUMBER PATH '$.id'))", Alias: "jt"}, "JSON_TABLE(d.payload, '$' COLUMNS (id NUMBER PATH '$.id')) jt", "jt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.table.TableSQL(); got != tt.want {
				t.Errorf("TableSQL() = %q, want %q", got, tt.want)
			}
			if got := tt.table.TableAlias(); got != tt.alias {
				t.Errorf("TableAlias() = %q, want %q", got, tt.alias)
			}
		})
	}
}

package sqldsl

import (
	"strings"
	"testing"
)

func TestCTEDef_SQL(t *testing.T) {
	tests := []struct {
		name     string
		cte      CTEDef
		contains []string
	}{
		{
			name: "simple CTE without columns",
			cte: CTEDef{
				Name:  "iteminfo",
				Query: Raw("SELECT 1 FROM dual"),
			},
			contains: []string{"iteminfo AS (", "    SELECT 1 FROM dual"},
		},
		{
			name: "CTE with columns",
			cte: CTEDef{
				Name:    "onhand",
				Columns: []string{"inventory_item_id", "qty"},
				Query:   Raw("SELECT inventory_item_id, SUM(transaction_quantity) FROM mtl_onhand_quantities_detail GROUP BY inventory_item_id"),
			},
			contains: []string{"onhand(inventory_item_id, qty) AS (", "SUM(transaction_quantity)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cte.SQL()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("CTEDef.SQL() = %q, want to contain %q", got, want)
				}
			}
		})
	}
}

func TestWithCTE_SQL(t *testing.T) {
	tests := []struct {
		name     string
		cte      WithCTE
		contains []string
		excludes []string
	}{
		{
			name: "single CTE",
			cte: WithCTE{
				CTEs:  []CTEDef{{Name: "opentrips", Query: Raw("SELECT trip_id FROM wsh_trips")}},
				Query: Raw("SELECT * FROM opentrips"),
			},
			contains: []string{
				"WITH opentrips AS (",
				"SELECT trip_id FROM wsh_trips",
				")\nSELECT * FROM opentrips",
			},
			excludes: []string{"RECURSIVE"},
		},
		{
			name: "multiple CTEs",
			cte: WithCTE{
				CTEs: []CTEDef{
					{Name: "invlinedata", Query: Raw("SELECT 1 x FROM dual")},
					{Name: "invlinetaxdata", Query: Raw("SELECT 2 x FROM dual")},
				},
				Query: Raw("SELECT x FROM invlinedata UNION SELECT x FROM invlinetaxdata"),
			},
			contains: []string{
				"WITH invlinedata AS (",
				"),\ninvlinetaxdata AS (",
				"SELECT x FROM invlinedata UNION",
			},
		},
		{
			name:     "no CTEs renders the final query only",
			cte:      WithCTE{Query: Raw("SELECT 1 FROM dual")},
			contains: []string{"SELECT 1 FROM dual"},
			excludes: []string{"WITH"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cte.SQL()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("WithCTE.SQL() = %q, want to contain %q", got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("WithCTE.SQL() = %q, should not contain %q", got, bad)
				}
			}
		})
	}
}

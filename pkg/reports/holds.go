package reports

import (
	"context"
	"time"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/rowmap"
)

// HoldHistoryEntry is one hold applied to an order or one of its lines.
type HoldHistoryEntry struct {
	HeldBy            *string    `json:"held_by"`
	HoldName          *string    `json:"hold_name"`
	HoldLevel         *string    `json:"hold_level"`
	AppliedDate       *time.Time `json:"applied_date"`
	AppliedBy         *string    `json:"applied_by"`
	ReleasedFlag      *string    `json:"released_flag"`
	ReleasedDate      *time.Time `json:"released_date"`
	ReleasedBy        *string    `json:"released_by"`
	ReleaseReasonCode *string    `json:"release_reason_code"`
	ReleaseComment    *string    `json:"release_comment"`
}

// HoldHistoryParams selects the holds of an order header and, when LineID
// is non-zero, of one of its lines as well.
type HoldHistoryParams struct {
	HeaderID int64
	LineID   int64
}

func (p HoldHistoryParams) filters() query.FilterSet {
	fs := query.FilterSet{"header_id": p.HeaderID}
	if p.LineID != 0 {
		fs["line_id"] = p.LineID
	}
	return fs
}

// holdsOf selects hold history rows of the header matching line.
func holdsOf(b *query.Builder, line Expr) SelectStmt {
	return SelectStmt{
		ColumnExprs: []Expr{
			Col{Column: "held_by"},
			Col{Column: "hold_name"},
			as(Col{Column: "HOLD_ENTITY_CODE_VALUE"}, "holdlevel"),
			Col{Column: "APPLIED_DATE"},
			Col{Column: "APPLIED_BY"},
			Col{Column: "RELEASED_FLAG"},
			Col{Column: "RELEASED_DATE"},
			Col{Column: "RELEASED_BY"},
			Col{Column: "RELEASE_REASON_CODE"},
			Col{Column: "RELEASE_COMMENT"},
		},
		From:  []TableExpr{Table("oe_holds_history_v")},
		Where: b.Filtered(eq(Col{Column: "header_id"}, b.Bind("header_id")), line),
	}
}

var holdHistory = definition[HoldHistoryEntry]{
	tmpl: query.Template{
		ID: "hold-history",
		Filters: []query.Filter{
			{Name: "header_id", Kind: query.KindInt, Required: true, Min: 1},
			{Name: "line_id", Kind: query.KindInt, Min: 1},
		},
		Render: func(b *query.Builder) SQLer {
			appliedDate := []Expr{Col{Column: "APPLIED_DATE"}}
			header := holdsOf(b, IsNull{Expr: Col{Column: "line_id"}})
			if !b.Has("line_id") {
				header.OrderBy = appliedDate
				return header
			}
			return Union{
				Blocks: []QueryBlock{
					{Comments: []string{"Header level holds"}, Query: header},
					{Comments: []string{"Line level holds"}, Query: holdsOf(b, eq(Col{Column: "line_id"}, b.Bind("line_id")))},
				},
				OrderBy: appliedDate,
			}
		},
	},
	shape: rowmap.Shape[HoldHistoryEntry]{
		Name: "hold_history_entry",
		Fields: []rowmap.Field[HoldHistoryEntry]{
			rowmap.Opt("held_by", rowmap.Text, func(r *HoldHistoryEntry) **string { return &r.HeldBy }),
			rowmap.Opt("hold_name", rowmap.Text, func(r *HoldHistoryEntry) **string { return &r.HoldName }),
			rowmap.Opt("holdlevel", rowmap.Text, func(r *HoldHistoryEntry) **string { return &r.HoldLevel }),
			rowmap.Opt("applied_date", rowmap.Time, func(r *HoldHistoryEntry) **time.Time { return &r.AppliedDate }),
			rowmap.Opt("applied_by", rowmap.Text, func(r *HoldHistoryEntry) **string { return &r.AppliedBy }),
			rowmap.Opt("released_flag", rowmap.Text, func(r *HoldHistoryEntry) **string { return &r.ReleasedFlag }),
			rowmap.Opt("released_date", rowmap.Time, func(r *HoldHistoryEntry) **time.Time { return &r.ReleasedDate }),
			rowmap.Opt("released_by", rowmap.Text, func(r *HoldHistoryEntry) **string { return &r.ReleasedBy }),
			rowmap.Opt("release_reason_code", rowmap.Text, func(r *HoldHistoryEntry) **string { return &r.ReleaseReasonCode }),
			rowmap.Opt("release_comment", rowmap.Text, func(r *HoldHistoryEntry) **string { return &r.ReleaseComment }),
		},
	},
	echo: []string{"header_id", "line_id"},
}

// HoldHistory reports the hold history of an order header, ordered by
// application date. A line id adds that line's holds.
func (s *Service) HoldHistory(ctx context.Context, p HoldHistoryParams) (Envelope[HoldHistoryEntry], error) {
	return holdHistory.execute(ctx, s, p.filters())
}

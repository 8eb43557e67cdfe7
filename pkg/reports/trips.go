package reports

import (
	"context"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/rowmap"
)

// TripException is a trip created today that the routing feed has not
// processed, with its open lines and any staging error.
type TripException struct {
	NoOfOpenLines    int64   `json:"noofopenlines"`
	RouteID          *int64  `json:"route_id"`
	TripID           int64   `json:"trip_id"`
	IssueOrder       *string `json:"issueorder"`
	MDSProcessStatus *string `json:"mdsprocessstatus"`
	MDSProcessMsg    *string `json:"mdsprocessmsg"`
	RouteDescription *string `json:"route_description"`
	Driver1          *string `json:"driver1"`
	TractionStatus   *string `json:"tractionstatus"`
	TractionMsg      *string `json:"tractionmsg"`
}

// Line types whose lines never block a trip.
var nonBlockingLineTypes = []string{"G", "W", "B", "N"}

func openTripsCTE(b *query.Builder) CTEDef {
	return CTEDef{
		Name: "opentrips",
		Query: SelectStmt{
			ColumnExprs: []Expr{
				Col{Column: "route_id"},
				Col{Column: "trip_id"},
				Col{Column: "PROCESS_MESSAGE"},
				Col{Column: "process_status"},
			},
			From: []TableExpr{Table("xxatdwsh_mds_trip_Data_tab")},
			Where: b.Filtered(
				eq(Col{Column: "organization_id"}, b.Bind("org_id")),
				eq(Trunc(Col{Column: "creation_date"}), TruncSysdate),
				NotIn{Expr: Col{Column: "PROCESS_STATUS"}, Values: []string{"S"}},
			),
		},
	}
}

// openLineTripsCTE counts the open lines of each open trip and lists them
// as order-line.shipment.
func openLineTripsCTE() CTEDef {
	return CTEDef{
		Name: "openlinetrips",
		Query: SelectStmt{
			ColumnExprs: []Expr{
				as(fn("COUNT", Int(1)), "openlines"),
				col("xts", "trip_id"),
				as(Raw("LISTAGG(DISTINCT order_number || '-' || line_number || '.' || shipment_number, ', ') "+
					"WITHIN GROUP (ORDER BY order_number, line_number, shipment_number)"), "issueorder"),
			},
			From: []TableExpr{
				TableAs("oe_order_lines_v", "oel"),
				TableAs("xxatdwms.xxatdwms_trip_seq_hist", "xts"),
				Table("opentrips"),
			},
			Where: And(
				eq(col("oel", "header_id"), col("xts", "header_id")),
				eq(col("oel", "line_id"), col("xts", "line_id")),
				Ne{Left: col("oel", "flow_status_code"), Right: Lit("CLOSED")},
				NotExists{Query: SelectStmt{
					ColumnExprs: []Expr{Lit("X")},
					From:        []TableExpr{TableAs("oe_transaction_types", "ott")},
					Where: And(
						eq(col("ott", "transaction_type_id"), col("oel", "line_type_id")),
						In{Expr: Nvl(Col{Column: "attribute1"}, Lit("x1x")), Values: nonBlockingLineTypes},
					),
				}},
				eq(col("opentrips", "trip_id"), col("xts", "trip_id")),
			),
			GroupBy: []Expr{col("xts", "trip_id")},
		},
	}
}

var openTripExceptions = definition[TripException]{
	tmpl: query.Template{
		ID: "trip-exceptions",
		Filters: []query.Filter{
			{Name: "org_id", Kind: query.KindInt, Required: true, Min: 1},
		},
		Render: func(b *query.Builder) SQLer {
			return WithCTE{
				CTEs: []CTEDef{openTripsCTE(b), openLineTripsCTE()},
				Query: SelectStmt{
					ColumnExprs: []Expr{
						as(Nvl(Col{Column: "openlines"}, Int(0)), "noofopenlines"),
						col("b", "route_id"),
						col("b", "trip_id"),
						Col{Column: "issueorder"},
						as(col("b", "process_status"), "mdsprocessstatus"),
						as(col("b", "PROCESS_MESSAGE"), "mdsprocessmsg"),
						col("xsi", "ROUTE_DESCRIPTION"),
						Col{Column: "DRIVER1"},
						as(col("xsi", "PROCESS_STATUS"), "tractionstatus"),
						as(col("xsi", "PROCESS_MESSAGE"), "tractionmsg"),
					},
					From: []TableExpr{
						TableAs("openlinetrips", "a"),
						TableAs("opentrips", "b"),
						TableAs("xxatdwsh_staged_route", "xsi"),
					},
					Where: And(
						eq(outer("a", "trip_id"), col("b", "trip_id")),
						eq(outer("xsi", "trip_id"), col("b", "trip_id")),
						like(outer("xsi", "PROCESS_STATUS"), Lit("%E")),
					),
				},
			}
		},
	},
	shape: rowmap.Shape[TripException]{
		Name: "trip_exception",
		Fields: []rowmap.Field[TripException]{
			rowmap.Req("noofopenlines", rowmap.Int, func(r *TripException) *int64 { return &r.NoOfOpenLines }),
			rowmap.Opt("route_id", rowmap.Int, func(r *TripException) **int64 { return &r.RouteID }),
			rowmap.Req("trip_id", rowmap.Int, func(r *TripException) *int64 { return &r.TripID }),
			rowmap.Opt("issueorder", rowmap.Text, func(r *TripException) **string { return &r.IssueOrder }),
			rowmap.Opt("mdsprocessstatus", rowmap.Text, func(r *TripException) **string { return &r.MDSProcessStatus }),
			rowmap.Opt("mdsprocessmsg", rowmap.Text, func(r *TripException) **string { return &r.MDSProcessMsg }),
			rowmap.Opt("route_description", rowmap.Text, func(r *TripException) **string { return &r.RouteDescription }),
			rowmap.Opt("driver1", rowmap.Text, func(r *TripException) **string { return &r.Driver1 }),
			rowmap.Opt("tractionstatus", rowmap.Text, func(r *TripException) **string { return &r.TractionStatus }),
			rowmap.Opt("tractionmsg", rowmap.Text, func(r *TripException) **string { return &r.TractionMsg }),
		},
	},
	echo: []string{"org_id"},
}

// OpenTripExceptions reports today's unprocessed trips for an
// organization.
func (s *Service) OpenTripExceptions(ctx context.Context, orgID int64) (Envelope[TripException], error) {
	return openTripExceptions.execute(ctx, s, query.FilterSet{"org_id": orgID})
}

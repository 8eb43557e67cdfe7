package reports

import (
	"context"
	"time"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/rowmap"
)

// RoutePlanStop is one order line on a stop of a route planned today.
type RoutePlanStop struct {
	RouteID        int64      `json:"route_id"`
	RouteName      *string    `json:"route_name"`
	ScheduleKey    *string    `json:"schedule_key"`
	DriverKey      *string    `json:"driver_key"`
	TruckKey       *string    `json:"truck_key"`
	ProcessCode    *string    `json:"process_code"`
	TripID         *int64     `json:"trip_id"`
	RouteStartDate *time.Time `json:"route_start_date"`
	LocationKey    *string    `json:"location_key"`
	LocationType   *string    `json:"location_type"`
	LocationName   *string    `json:"location_name"`
	StopNumber     *int64     `json:"stop_number"`
	OrderNumber    *int64     `json:"order_number"`
	LineNum        *string    `json:"linenum"`
	OrderType      *string    `json:"order_type"`
	DeliveryID     *string    `json:"delivery_id"`
	OrderedItem    *string    `json:"ordered_item"`
	Quantity       *float64   `json:"quantity"`
	OrderKey       *string    `json:"order_key"`
	ProductKey     *string    `json:"product_key"`
	BackOrderFlag  *string    `json:"back_order_flag"`
}

var routePlans = definition[RoutePlanStop]{
	tmpl: query.Template{
		ID: "route-plans",
		Filters: []query.Filter{
			{Name: "dcid", Kind: query.KindInt, Required: true, Min: 1},
		},
		Render: func(b *query.Builder) SQLer {
			return SelectStmt{
				ColumnExprs: []Expr{
					col("hdr", "route_id"),
					Col{Column: "route_name"},
					Col{Column: "schedule_key"},
					Col{Column: "driver_key"},
					Col{Column: "truck_key"},
					col("hdr", "process_code"),
					Col{Column: "trip_id"},
					Col{Column: "route_start_date"},
					Col{Column: "location_key"},
					Col{Column: "location_type"},
					Col{Column: "location_name"},
					Col{Column: "stop_number"},
					col("ool", "order_number"),
					as(concat(ToChar(Col{Column: "line_number"}), Lit("."), ToChar(Col{Column: "shipment_number"})), "linenum"),
					as(caseWhen(like(Col{Column: "order_key"}, Lit("%R")), Lit("Return"), Lit("Order")), "order_type"),
					as(ToChar(Col{Column: "delivery_id"}), "delivery_id"),
					Col{Column: "ordered_item"},
					Col{Column: "quantity"},
					Col{Column: "order_key"},
					Col{Column: "product_key"},
					Col{Column: "back_order_flag"},
				},
				From: []TableExpr{
					TableAs("Xxatdwms_routeplan_route_ib", "hdr"),
					TableAs("XXATDWMS_ROUTEPLAN_ORDER_IB", "xro"),
					TableAs("oe_order_lines_v", "ool"),
					TableAs("XXATDWMS_ROUTEPLAN_STOP_IB", "xrs"),
				},
				Where: b.Filtered(
					eq(col("hdr", "SHIP_FROM_ORG_ID"), b.Bind("dcid")),
					Gt{Left: col("hdr", "creation_date"), Right: TruncSysdate},
					eq(col("hdr", "route_id"), col("xro", "route_id")),
					eq(col("ool", "line_id"), Col{Column: "order_line_id"}),
					eq(col("xrs", "route_id"), col("xro", "route_id")),
					eq(col("xrs", "RP_STOP_ID"), col("xro", "RP_STOP_ID")),
				),
				OrderBy: []Expr{Col{Column: "route_start_date"}, Col{Column: "stop_number"}},
			}
		},
	},
	shape: rowmap.Shape[RoutePlanStop]{
		Name: "route_plan_stop",
		Fields: []rowmap.Field[RoutePlanStop]{
			rowmap.Req("route_id", rowmap.Int, func(r *RoutePlanStop) *int64 { return &r.RouteID }),
			rowmap.Opt("route_name", rowmap.Text, func(r *RoutePlanStop) **string { return &r.RouteName }),
			rowmap.Opt("schedule_key", rowmap.Text, func(r *RoutePlanStop) **string { return &r.ScheduleKey }),
			rowmap.Opt("driver_key", rowmap.Text, func(r *RoutePlanStop) **string { return &r.DriverKey }),
			rowmap.Opt("truck_key", rowmap.Text, func(r *RoutePlanStop) **string { return &r.TruckKey }),
			rowmap.Opt("process_code", rowmap.Text, func(r *RoutePlanStop) **string { return &r.ProcessCode }),
			rowmap.Opt("trip_id", rowmap.Int, func(r *RoutePlanStop) **int64 { return &r.TripID }),
			rowmap.Opt("route_start_date", rowmap.Time, func(r *RoutePlanStop) **time.Time { return &r.RouteStartDate }),
			rowmap.Opt("location_key", rowmap.Text, func(r *RoutePlanStop) **string { return &r.LocationKey }),
			rowmap.Opt("location_type", rowmap.Text, func(r *RoutePlanStop) **string { return &r.LocationType }),
			rowmap.Opt("location_name", rowmap.Text, func(r *RoutePlanStop) **string { return &r.LocationName }),
			rowmap.Opt("stop_number", rowmap.Int, func(r *RoutePlanStop) **int64 { return &r.StopNumber }),
			rowmap.Opt("order_number", rowmap.Int, func(r *RoutePlanStop) **int64 { return &r.OrderNumber }),
			rowmap.Opt("linenum", rowmap.Text, func(r *RoutePlanStop) **string { return &r.LineNum }),
			rowmap.Opt("order_type", rowmap.Text, func(r *RoutePlanStop) **string { return &r.OrderType }),
			rowmap.Opt("delivery_id", rowmap.Text, func(r *RoutePlanStop) **string { return &r.DeliveryID }),
			rowmap.Opt("ordered_item", rowmap.Text, func(r *RoutePlanStop) **string { return &r.OrderedItem }),
			rowmap.Opt("quantity", rowmap.Float, func(r *RoutePlanStop) **float64 { return &r.Quantity }),
			rowmap.Opt("order_key", rowmap.Text, func(r *RoutePlanStop) **string { return &r.OrderKey }),
			rowmap.Opt("product_key", rowmap.Text, func(r *RoutePlanStop) **string { return &r.ProductKey }),
			rowmap.Opt("back_order_flag", rowmap.Text, func(r *RoutePlanStop) **string { return &r.BackOrderFlag }),
		},
	},
	echo: []string{"dcid"},
}

// RoutePlans reports the stops and order lines of routes planned today
// from one DC, in route start and stop order.
func (s *Service) RoutePlans(ctx context.Context, dcid int64) (Envelope[RoutePlanStop], error) {
	return routePlans.execute(ctx, s, query.FilterSet{"dcid": dcid})
}

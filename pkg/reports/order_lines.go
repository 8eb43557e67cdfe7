package reports

import (
	"context"
	"time"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/rowmap"
)

// OpenOrderLine is one open sales order line shipping from a DC, or a
// line whose delivery was confirmed today.
type OpenOrderLine struct {
	OrderedDate          *time.Time `json:"ordered_date"`
	LineCategoryCode     *string    `json:"line_category_code"`
	OrderedItem          *string    `json:"ordered_item"`
	OrderCategory        *string    `json:"order_category"`
	InventoryItemID      *int64     `json:"inventory_item_id"`
	OrigSysDocumentRef   *string    `json:"orig_sys_document_ref"`
	OrderNumber          *int64     `json:"order_number"`
	LineID               *int64     `json:"line_id"`
	ShippingInstructions *string    `json:"shipping_instructions"`
	Line                 *string    `json:"line"`
	ScheduleShipDate     *time.Time `json:"schedule_ship_date"`
	OrderedQuantity      *int64     `json:"ordered_quantity"`
	ReservedQty          *int64     `json:"reserved_qty"`
	ShippingMethodCode   *string    `json:"shipping_method_code"`
	ISO                  *string    `json:"iso"`
	FulfillmentType      *string    `json:"fulfillment_type"`
	OrderType            *string    `json:"order_type"`
	PriceList            *string    `json:"price_list"`
	SoldTo               *string    `json:"sold_to"`
	DC                   *string    `json:"dc"`
	ShipTo               *string    `json:"ship_to"`
	ShipToAddress1       *string    `json:"ship_to_address1"`
	ShipToAddress5       *string    `json:"ship_to_address5"`
	SetName              *string    `json:"set_name"`
	HeaderID             *int64     `json:"header_id"`
	ShipToAddressee      *string    `json:"ship_to_addressee"`
	DeliveryID           *int64     `json:"delivery_id"`
	OriginalLineStatus   *string    `json:"original_line_status"`
	HoldApplied          *string    `json:"hold_applied"`
	HoldReleased         *string    `json:"hold_released"`
	Routed               *string    `json:"routed"`
	ProductGroup         *string    `json:"productgrp"`
	Vendor               *string    `json:"vendor"`
	Style                *string    `json:"style"`
	ItemDescription      *string    `json:"item_description"`
	TripID               *int64     `json:"trip_id"`
	LocalPlusQtyExists   *string    `json:"localplusqtyexists"`
	LocalPlusQty         *float64   `json:"localplusqty"`
	// Planned is reserved for the routing acknowledgement flag. No query
	// selects it yet, so it is always null.
	Planned *string `json:"planned"`
}

// OpenOrderLinesParams filters the open order line report. Zero values
// mean absent; DaysBack falls back to 60.
type OpenOrderLinesParams struct {
	DC          int64
	DaysBack    int64
	OrderNumber int64
	OrderedItem string
}

func (p OpenOrderLinesParams) filters() query.FilterSet {
	fs := query.FilterSet{"dc": p.DC}
	if p.DaysBack != 0 {
		fs["days_back"] = p.DaysBack
	}
	if p.OrderNumber != 0 {
		fs["order_number"] = p.OrderNumber
	}
	if p.OrderedItem != "" {
		fs["ordered_item"] = p.OrderedItem
	}
	return fs
}

// Line types that never ship from the DC floor.
var nonShippingLineTypes = []string{
	"ATD Bill Only Line",
	"ATD Vendor Direct Ship Line",
	"ATD STHVendor Direct Ship Line",
}

// orderLineHead lists the columns both branches of opendcopenlines select
// ahead of the reserved quantity.
func orderLineHead() []Expr {
	return []Expr{
		Col{Column: "ORDERED_DATE"},
		Col{Column: "LINE_CATEGORY_CODE"},
		Col{Column: "ORDERED_ITEM"},
		as(caseWhen(eq(Col{Column: "LINE_TYPE"}, Lit("ATD Internal Sales Line")), Lit("INTERNAL ORDER"), Lit("CUSTOMER ORDER")), "order_category"),
		col("a", "inventory_item_id"),
		col("a", "ORIG_SYS_DOCUMENT_REF"),
		Col{Column: "order_number"},
		Col{Column: "line_id"},
		col("a", "SHIPPING_INSTRUCTIONS"),
		as(lineShipment(), "line"),
		col("a", "schedule_ship_date"),
		Col{Column: "ordered_quantity"},
	}
}

// orderLineTail follows the reserved quantity in both branches.
func orderLineTail(tripID Expr) []Expr {
	return []Expr{
		as(Col{Column: "carrier_name"}, "SHIPPING_METHOD_CODE"),
		as(col("a", "attribute8"), "iso"),
		as(Col{Column: "ATTRIBUTE17"}, "fullfilmenttype"),
		as(fn("REPLACE", Col{Column: "LINE_TYPE"}, Lit("Line"), Lit("")), "ordertype"),
		Col{Column: "PRICE_LIST"},
		Col{Column: "SOLD_TO"},
		as(Col{Column: "ship_From"}, "DC"),
		Col{Column: "SHIP_TO"},
		Col{Column: "SHIP_TO_ADDRESS1"},
		Col{Column: "SHIP_TO_ADDRESS5"},
		Col{Column: "SET_NAME"},
		col("a", "header_id"),
		as(Lit(""), "shiptoaddressee"),
		col("wdd", "delivery_id"),
		as(lineStatus(), "ORIGINAL_LINE_STATUS"),
		as(tripID, "trip_id"),
	}
}

func lineShipment() Concat {
	return concat(Col{Column: "line_number"}, Lit("."), Col{Column: "shipment_number"})
}

// lineStatus falls back to the delivery detail release status when the
// line carries no status of its own.
func lineStatus() CaseExpr {
	released := col("wdd1", "released_Status")
	return CaseExpr{
		Whens: []CaseWhen{{
			Cond: IsNull{Expr: Col{Column: "ORIGINAL_LINE_STATUS"}},
			Result: CaseExpr{
				Whens: []CaseWhen{
					{Cond: eq(released, Lit("R")), Result: Lit("Ready to Release")},
					{Cond: eq(released, Lit("B")), Result: Lit("Backordered")},
				},
				Else: Null{},
			},
		}},
		Else: Col{Column: "ORIGINAL_LINE_STATUS"},
	}
}

// orderLineGroupBy lists the grouping keys shared by both branches; extra
// keys are appended per branch.
func orderLineGroupBy(extra ...Expr) []Expr {
	keys := []Expr{
		Col{Column: "ORDERED_DATE"},
		Col{Column: "LINE_CATEGORY_CODE"},
		Col{Column: "ORDERED_ITEM"},
		col("a", "ORIG_SYS_DOCUMENT_REF"),
		Col{Column: "order_number"},
		col("a", "inventory_item_id"),
		Col{Column: "line_id"},
		lineShipment(),
		col("a", "schedule_ship_date"),
		Col{Column: "ordered_quantity"},
		Col{Column: "carrier_name"},
		Col{Column: "ATTRIBUTE17"},
		Col{Column: "LINE_TYPE"},
		Col{Column: "PRICE_LIST"},
		Col{Column: "SOLD_TO"},
		Col{Column: "ship_From"},
		Col{Column: "SHIP_TO"},
		Col{Column: "SHIP_TO_ADDRESS1"},
		Col{Column: "SHIP_TO_ADDRESS5"},
		Col{Column: "SET_NAME"},
		col("a", "SHIPPING_INSTRUCTIONS"),
		col("wdd", "delivery_id"),
		Col{Column: "ORIGINAL_LINE_STATUS"},
		col("a", "attribute8"),
		col("a", "header_id"),
		col("wdd1", "released_Status"),
	}
	return append(keys, extra...)
}

// openLinesBranch selects open lines with their reserved quantity.
func openLinesBranch(b *query.Builder) SelectStmt {
	reserved := caseWhen(
		eq(col("wdd1", "released_Status"), Lit("Y")),
		fn("SUM", Nvl(col("wdd1", "requested_quantity"), Int(0))),
		fn("SUM", Nvl(Col{Column: "RESERVATION_QUANTITY"}, Int(0))),
	)
	columns := append(orderLineHead(), as(reserved, "reservedqty"))
	columns = append(columns, orderLineTail(Null{})...)

	return SelectStmt{
		ColumnExprs: columns,
		From: []TableExpr{
			TableAs("oe_order_lines_v", "a"),
			TableAs("mtl_reservations", "mr"),
			TableAs("apps.wsh_Delivery_Details_oe_V", "wdd"),
			TableAs("apps.wsh_Delivery_Details", "wdd1"),
			Table("OE_SETS"),
			TableAs("wsh_Carriers_v", "wcv"),
		},
		Where: b.Filtered(
			eq(col("a", "ship_from_org_id"), b.Bind("dc")),
			eq(col("a", "open_flag"), Lit("Y")),
			eq(outer("wdd", "source_line_id"), col("a", "line_id")),
			eq(col("wdd1", "source_line_id"), col("a", "line_id")),
			eq(col("wdd1", "delivery_Detail_id"), outer("wdd", "delivery_Detail_id")),
			eq(col("wdd1", "source_code"), Lit("OE")),
			eq(col("a", "SHIP_sET_ID"), outer("", "SET_ID")),
			eq(col("wcv", "freight_code"), col("a", "freight_carrier_code")),
			eq(col("a", "line_id"), outer("mr", "demand_source_line_id")),
			NotIn{Expr: col("a", "line_type"), Values: nonShippingLineTypes},
			Gt{Left: col("a", "ordered_date"), Right: Sub{Left: Sysdate, Right: b.Bind("days_back")}},
		),
		GroupBy: orderLineGroupBy(),
	}
}

// confirmedTodayBranch selects lines whose delivery from the DC was
// confirmed today, with the shipped quantity and trip.
func confirmedTodayBranch(b *query.Builder) SelectStmt {
	columns := append(orderLineHead(), as(col("a", "shipped_quantity"), "reservedqty"))
	columns = append(columns, orderLineTail(Col{Column: "trip_id"})...)

	return SelectStmt{
		ColumnExprs: columns,
		From: []TableExpr{
			TableAs("oe_order_lines_v", "a"),
			TableAs("apps.wsh_Delivery_Details_oe_V", "wdd"),
			TableAs("apps.wsh_Delivery_Details", "wdd1"),
			Table("OE_SETS"),
			TableAs("wsh_Carriers_v", "wcv"),
			TableAs("wsh_new_deliveries", "wnd"),
			TableAs("wsh_trip_deliveries_v", "wtd"),
		},
		Where: b.Filtered(
			eq(col("a", "ship_from_org_id"), b.Bind("dc")),
			eq(col("wdd", "source_line_id"), col("a", "line_id")),
			eq(col("wdd1", "source_line_id"), col("a", "line_id")),
			eq(col("wdd1", "delivery_Detail_id"), col("wdd", "delivery_Detail_id")),
			eq(col("wdd1", "source_code"), Lit("OE")),
			eq(col("a", "SHIP_sET_ID"), outer("", "SET_ID")),
			eq(col("wnd", "delivery_id"), col("wdd", "delivery_id")),
			eq(col("wcv", "freight_code"), col("a", "freight_carrier_code")),
			Between{Expr: col("wnd", "confirm_Date"), Low: TruncSysdate, High: Trunc(Add{Left: Sysdate, Right: Int(1)})},
			eq(col("wnd", "organization_id"), b.Bind("dc")),
			eq(col("wnd", "delivery_id"), col("wtd", "delivery_id")),
			NotIn{Expr: col("a", "line_type"), Values: nonShippingLineTypes},
			Gt{Left: col("a", "ordered_date"), Right: Sub{Left: Sysdate, Right: b.Bind("days_back")}},
		),
		GroupBy: orderLineGroupBy(col("a", "shipped_quantity"), Col{Column: "trip_id"}),
	}
}

// localPlusStock counts Local+ stock of the line's item at the DC.
func localPlusStock(b *query.Builder) ScalarSubquery {
	return countOf("xxatdont_network_inventory", And(
		eq(Col{Column: "inventory_item_id"}, col("c", "inventory_item_id")),
		eq(Col{Column: "organization_id"}, b.Bind("dc")),
		Gt{Left: Col{Column: "localplus_qty"}, Right: Int(0)},
	))
}

// localPlusExists is Y or N for unreserved waiting lines, null otherwise.
func localPlusExists(b *query.Builder) CaseExpr {
	waiting := And(
		In{Expr: Col{Column: "ORIGINAL_LINE_STATUS"}, Values: []string{"Backordered", "Ready to Release"}},
		eq(Col{Column: "reservedqty"}, Int(0)),
	)
	return CaseExpr{
		Whens: []CaseWhen{
			{Cond: And(waiting, Gt{Left: localPlusStock(b), Right: Int(0)}), Result: Lit("Y")},
			{Cond: And(waiting, eq(localPlusStock(b), Int(0))), Result: Lit("N")},
		},
		Else: Null{},
	}
}

var openOrderLines = definition[OpenOrderLine]{
	tmpl: query.Template{
		ID: "order-lines",
		Filters: []query.Filter{
			{Name: "dc", Kind: query.KindInt, Required: true, Min: 1},
			{Name: "days_back", Kind: query.KindInt, Min: 1, Max: 365, Default: int64(60)},
			{
				Name: "order_number", Kind: query.KindInt, Min: 1,
				Predicate: func(b *query.Builder) Expr {
					return eq(Col{Column: "order_number"}, b.Bind("order_number"))
				},
			},
			{
				Name: "ordered_item", Kind: query.KindText, MaxLen: 240, Match: query.MatchContains,
				Predicate: func(b *query.Builder) Expr {
					return like(Upper(Col{Column: "ORDERED_ITEM"}), b.Bind("ordered_item"))
				},
			},
		},
		Render: func(b *query.Builder) SQLer {
			lines := CTEDef{
				Name: "opendcopenlines",
				Query: Union{All: true, Blocks: []QueryBlock{
					{Comments: []string{"Open lines with reservations"}, Query: openLinesBranch(b)},
					{Comments: []string{"Lines on deliveries confirmed today"}, Query: confirmedTodayBranch(b)},
				}},
			}
			return WithCTE{
				CTEs: []CTEDef{itemInfoCTE(), lines},
				Query: SelectStmt{
					ColumnExprs: []Expr{
						Raw("c.*"),
						as(flag(Gt{Left: countOf("OE_HOLDS_HISTORY_V", eq(Col{Column: "header_id"}, col("c", "header_id"))), Right: Int(0)}), "holdapplied"),
						as(flag(Gt{Left: countOf("OE_HOLDS_HISTORY_V", And(
							eq(Col{Column: "header_id"}, col("c", "header_id")),
							eq(Col{Column: "RELEASED_FLAG"}, Lit("Y")),
						)), Right: Int(0)}), "holdreleased"),
						as(flag(Gt{Left: countOf("XXATDMSA_DCARTORDER_OBPAYLOAD", And(
							eq(Col{Column: "order_number"}, col("c", "order_number")),
							like(Col{Column: "line_id"}, Contains(col("c", "line_id"))),
						)), Right: Int(0)}), "routed"),
						as(flexDisplay(Col{Column: "product_group"}, groupValueSet), "productgrp"),
						as(flexDisplay(Col{Column: "vendor"}, vendorValueSet), "vendor"),
						as(itemStyle(col("xie", "inventory_item_id")), "style"),
						as(Col{Column: "DESCRIPTION"}, "item_description"),
						as(localPlusExists(b), "localplusqtyexists"),
						as(scalar(SelectStmt{
							ColumnExprs: []Expr{Col{Column: "localplus_qty"}},
							From:        []TableExpr{Table("xxatdont_network_inventory")},
							Where: And(
								eq(Col{Column: "inventory_item_id"}, col("c", "inventory_item_id")),
								eq(Col{Column: "organization_id"}, b.Bind("dc")),
							),
						}), "localplusqty"),
					},
					From: []TableExpr{
						TableAs("opendcopenlines", "c"),
						TableAs("xxatdmrp_item_elements_v", "xie"),
					},
					Where: And(eq(col("c", "inventory_item_id"), col("xie", "inventory_item_id"))),
				},
			}
		},
	},
	shape: rowmap.Shape[OpenOrderLine]{
		Name: "open_order_line",
		Fields: []rowmap.Field[OpenOrderLine]{
			rowmap.Opt("ordered_date", rowmap.Time, func(r *OpenOrderLine) **time.Time { return &r.OrderedDate }),
			rowmap.Opt("line_category_code", rowmap.Text, func(r *OpenOrderLine) **string { return &r.LineCategoryCode }),
			rowmap.Opt("ordered_item", rowmap.Text, func(r *OpenOrderLine) **string { return &r.OrderedItem }),
			rowmap.Opt("order_category", rowmap.Text, func(r *OpenOrderLine) **string { return &r.OrderCategory }),
			rowmap.Opt("inventory_item_id", rowmap.Int, func(r *OpenOrderLine) **int64 { return &r.InventoryItemID }),
			rowmap.Opt("orig_sys_document_ref", rowmap.Text, func(r *OpenOrderLine) **string { return &r.OrigSysDocumentRef }),
			rowmap.Opt("order_number", rowmap.Int, func(r *OpenOrderLine) **int64 { return &r.OrderNumber }),
			rowmap.Opt("line_id", rowmap.Int, func(r *OpenOrderLine) **int64 { return &r.LineID }),
			rowmap.Opt("shipping_instructions", rowmap.Text, func(r *OpenOrderLine) **string { return &r.ShippingInstructions }),
			rowmap.Opt("line", rowmap.Text, func(r *OpenOrderLine) **string { return &r.Line }),
			rowmap.Opt("schedule_ship_date", rowmap.Time, func(r *OpenOrderLine) **time.Time { return &r.ScheduleShipDate }),
			rowmap.Opt("ordered_quantity", rowmap.Int, func(r *OpenOrderLine) **int64 { return &r.OrderedQuantity }),
			rowmap.Opt("reservedqty", rowmap.Int, func(r *OpenOrderLine) **int64 { return &r.ReservedQty }),
			rowmap.Opt("shipping_method_code", rowmap.Text, func(r *OpenOrderLine) **string { return &r.ShippingMethodCode }),
			rowmap.Opt("iso", rowmap.Text, func(r *OpenOrderLine) **string { return &r.ISO }),
			rowmap.Opt("fullfilmenttype", rowmap.Text, func(r *OpenOrderLine) **string { return &r.FulfillmentType }),
			rowmap.Opt("ordertype", rowmap.Text, func(r *OpenOrderLine) **string { return &r.OrderType }),
			rowmap.Opt("price_list", rowmap.Text, func(r *OpenOrderLine) **string { return &r.PriceList }),
			rowmap.Opt("sold_to", rowmap.Text, func(r *OpenOrderLine) **string { return &r.SoldTo }),
			rowmap.Opt("dc", rowmap.Text, func(r *OpenOrderLine) **string { return &r.DC }),
			rowmap.Opt("ship_to", rowmap.Text, func(r *OpenOrderLine) **string { return &r.ShipTo }),
			rowmap.Opt("ship_to_address1", rowmap.Text, func(r *OpenOrderLine) **string { return &r.ShipToAddress1 }),
			rowmap.Opt("ship_to_address5", rowmap.Text, func(r *OpenOrderLine) **string { return &r.ShipToAddress5 }),
			rowmap.Opt("set_name", rowmap.Text, func(r *OpenOrderLine) **string { return &r.SetName }),
			rowmap.Opt("header_id", rowmap.Int, func(r *OpenOrderLine) **int64 { return &r.HeaderID }),
			rowmap.Opt("shiptoaddressee", rowmap.Text, func(r *OpenOrderLine) **string { return &r.ShipToAddressee }),
			rowmap.Opt("delivery_id", rowmap.Int, func(r *OpenOrderLine) **int64 { return &r.DeliveryID }),
			rowmap.Opt("original_line_status", rowmap.Text, func(r *OpenOrderLine) **string { return &r.OriginalLineStatus }),
			rowmap.Opt("holdapplied", rowmap.Text, func(r *OpenOrderLine) **string { return &r.HoldApplied }),
			rowmap.Opt("holdreleased", rowmap.Text, func(r *OpenOrderLine) **string { return &r.HoldReleased }),
			rowmap.Opt("routed", rowmap.Text, func(r *OpenOrderLine) **string { return &r.Routed }),
			rowmap.Opt("productgrp", rowmap.Text, func(r *OpenOrderLine) **string { return &r.ProductGroup }),
			rowmap.Opt("vendor", rowmap.Text, func(r *OpenOrderLine) **string { return &r.Vendor }),
			rowmap.Opt("style", rowmap.Text, func(r *OpenOrderLine) **string { return &r.Style }),
			rowmap.Opt("item_description", rowmap.Text, func(r *OpenOrderLine) **string { return &r.ItemDescription }),
			rowmap.Opt("trip_id", rowmap.Int, func(r *OpenOrderLine) **int64 { return &r.TripID }),
			rowmap.Opt("localplusqtyexists", rowmap.Text, func(r *OpenOrderLine) **string { return &r.LocalPlusQtyExists }),
			rowmap.Opt("localplusqty", rowmap.Float, func(r *OpenOrderLine) **float64 { return &r.LocalPlusQty }),
		},
	},
	echo: []string{"days_back"},
}

// OpenOrderLines reports open order lines shipping from one DC. The
// optional order number and item filters narrow both the open-line and
// the confirmed-today branch.
func (s *Service) OpenOrderLines(ctx context.Context, p OpenOrderLinesParams) (Envelope[OpenOrderLine], error) {
	return openOrderLines.execute(ctx, s, p.filters())
}

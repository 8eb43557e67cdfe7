package reports

import (
	"context"
	"time"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/rowmap"
)

// InvoiceLine is one invoice line created today for a DC, or the tax
// line attached to it.
type InvoiceLine struct {
	BatchSource       *string    `json:"batchsource"`
	TrxNumber         *string    `json:"trx_number"`
	InvTransType      *string    `json:"invtranstype"`
	ShipMethod        *string    `json:"shipmethod"`
	TrxDate           *time.Time `json:"trx_date"`
	CustomerTrxID     *int64     `json:"customer_trx_id"`
	OrderType         *string    `json:"ordertype"`
	BillCustName      *string    `json:"billcustname"`
	ShipCustName      *string    `json:"shipcustname"`
	ShipLoc           *string    `json:"shiploc"`
	LineNumber        *int64     `json:"line_number"`
	LineType          *string    `json:"line_type"`
	QuantityInvoiced  *float64   `json:"quantity_invoiced"`
	ExtendedAmount    *float64   `json:"extended_amount"`
	UnitSellingPrice  *float64   `json:"unit_selling_price"`
	SalesOrder        *string    `json:"sales_order"`
	SalesOrderLine    *string    `json:"sales_order_line"`
	CustomerTrxLineID *int64     `json:"customer_trx_line_id"`
	ItemNumber        *string    `json:"item_number"`
	ProductGroup      *string    `json:"productgrp"`
	Vendor            *string    `json:"vendor"`
	Style             *string    `json:"style"`
	TaxName           *string    `json:"tax_name"`
	TaxRate           *float64   `json:"tax_rate"`
}

// invoiceLineCTE selects today's item lines invoiced from the DC.
func invoiceLineCTE(b *query.Builder) CTEDef {
	return CTEDef{
		Name: "invlinedata",
		Query: SelectStmt{
			ColumnExprs: []Expr{
				as(Col{Column: "BS_BATCH_SOURCE_NAME"}, "batchsource"),
				col("a", "trx_number"),
				as(Col{Column: "CTT_TYPE_NAME"}, "invtranstype"),
				as(Col{Column: "SHIP_VIA"}, "shipmethod"),
				Col{Column: "trx_date"},
				col("a", "CUSTOMER_TRX_ID"),
				as(col("a", "INTERFACE_HEADER_ATTRIBUTE2"), "ordertype"),
				as(col("a", "RAC_BILL_TO_CUSTOMER_NAME"), "billcustname"),
				as(col("b", "SHIP_TO_CUSTOMER_NAME"), "shipcustname"),
				as(col("b", "SHIP_TO_LOCATION"), "shiploc"),
				col("b", "LINE_NUMBER"),
				col("b", "LINE_TYPE"),
				col("b", "QUANTITY_INVOICED"),
				col("b", "EXTENDED_AMOUNT"),
				col("b", "UNIT_SELLING_PRICE"),
				col("b", "SALES_ORDER"),
				col("b", "SALES_ORDER_LINE"),
				col("b", "customer_trx_line_id"),
				col("xie", "item_number"),
				as(flexDisplay(Col{Column: "product_group"}, groupValueSet), "productgrp"),
				as(flexDisplay(Col{Column: "vendor"}, vendorValueSet), "vendor"),
				as(itemStyle(col("xie", "inventory_item_id")), "style"),
				as(Null{}, "tax_name"),
				as(Null{}, "tax_rate"),
			},
			From: []TableExpr{
				TableAs("RA_CUSTOMER_TRX_RA_V", "a"),
				TableAs("RA_CUSTOMER_TRX_LINES_V", "b"),
				TableAs("xxatdmrp_item_elements_v", "xie"),
			},
			Where: b.Filtered(
				Gte{Left: col("a", "trx_date"), Right: TruncSysdate},
				eq(col("a", "CUSTOMER_TRX_ID"), col("b", "CUSTOMER_TRX_ID")),
				eq(col("b", "WAREHOUSE_ID"), b.Bind("dcid")),
				eq(col("b", "LINE_TYPE"), Lit("LINE")),
				eq(col("b", "inventory_item_id"), col("xie", "inventory_item_id")),
			),
		},
	}
}

// invoiceTaxCTE selects the non-item lines linked to the item lines.
func invoiceTaxCTE() CTEDef {
	return CTEDef{
		Name: "invlinetaxdata",
		Query: SelectStmt{
			ColumnExprs: []Expr{
				col("a", "BS_BATCH_SOURCE_NAME"),
				col("a", "trx_number"),
				col("a", "CTT_TYPE_NAME"),
				col("a", "SHIP_VIA"),
				col("a", "trx_date"),
				col("a", "CUSTOMER_TRX_ID"),
				as(col("a", "INTERFACE_HEADER_ATTRIBUTE2"), "ordertype"),
				as(col("a", "RAC_BILL_TO_CUSTOMER_NAME"), "billcustname"),
				col("c", "shipcustname"),
				col("c", "shiploc"),
				col("b", "LINE_NUMBER"),
				col("b", "LINE_TYPE"),
				col("b", "QUANTITY_INVOICED"),
				col("b", "EXTENDED_AMOUNT"),
				col("b", "UNIT_SELLING_PRICE"),
				col("b", "SALES_ORDER"),
				col("b", "SALES_ORDER_LINE"),
				as(Col{Column: "LINK_TO_CUST_TRX_LINE_ID"}, "customer_trx_line_id"),
				as(Null{}, "item_number"),
				as(Null{}, "productgrp"),
				as(Null{}, "vendor"),
				as(Null{}, "style"),
				as(col("zlv", "TAX_FULL_NAME"), "tax_name"),
				col("zlv", "TAX_RATE"),
			},
			From: []TableExpr{
				TableAs("RA_CUSTOMER_TRX_RA_V", "a"),
				TableAs("RA_CUSTOMER_TRX_LINES_V", "b"),
				TableAs("invlinedata", "c"),
				TableAs("ZX_LINES_V", "zlv"),
			},
			Where: And(
				eq(col("a", "CUSTOMER_TRX_ID"), col("b", "CUSTOMER_TRX_ID")),
				eq(col("a", "CUSTOMER_TRX_ID"), col("c", "CUSTOMER_TRX_ID")),
				Gte{Left: col("a", "trx_date"), Right: TruncSysdate},
				eq(col("c", "customer_trx_line_id"), col("b", "LINK_TO_CUST_TRX_LINE_ID")),
				Ne{Left: col("b", "LINE_TYPE"), Right: Lit("LINE")},
				eq(col("b", "tax_line_id"), outer("zlv", "TAX_LINE_ID")),
			),
		},
	}
}

func selectAll(table string) SelectStmt {
	return SelectStmt{ColumnExprs: []Expr{Raw("*")}, From: []TableExpr{Table(table)}}
}

var invoiceLines = definition[InvoiceLine]{
	tmpl: query.Template{
		ID: "invoice-lines",
		Filters: []query.Filter{
			{Name: "dcid", Kind: query.KindInt, Required: true, Min: 1},
		},
		Render: func(b *query.Builder) SQLer {
			return WithCTE{
				CTEs: []CTEDef{itemInfoCTE(), invoiceLineCTE(b), invoiceTaxCTE()},
				Query: SelectStmt{
					ColumnExprs: []Expr{Raw("*")},
					From: []TableExpr{Subquery{Query: Union{Blocks: []QueryBlock{
						{Query: selectAll("invlinedata")},
						{Query: selectAll("invlinetaxdata")},
					}}}},
					OrderBy: []Expr{
						Col{Column: "trx_number"},
						Col{Column: "customer_trx_line_id"},
						Col{Column: "line_type"},
					},
				},
			}
		},
	},
	shape: rowmap.Shape[InvoiceLine]{
		Name: "invoice_line",
		Fields: []rowmap.Field[InvoiceLine]{
			rowmap.Opt("batchsource", rowmap.Text, func(r *InvoiceLine) **string { return &r.BatchSource }),
			rowmap.Opt("trx_number", rowmap.Text, func(r *InvoiceLine) **string { return &r.TrxNumber }),
			rowmap.Opt("invtranstype", rowmap.Text, func(r *InvoiceLine) **string { return &r.InvTransType }),
			rowmap.Opt("shipmethod", rowmap.Text, func(r *InvoiceLine) **string { return &r.ShipMethod }),
			rowmap.Opt("trx_date", rowmap.Time, func(r *InvoiceLine) **time.Time { return &r.TrxDate }),
			rowmap.Opt("customer_trx_id", rowmap.Int, func(r *InvoiceLine) **int64 { return &r.CustomerTrxID }),
			rowmap.Opt("ordertype", rowmap.Text, func(r *InvoiceLine) **string { return &r.OrderType }),
			rowmap.Opt("billcustname", rowmap.Text, func(r *InvoiceLine) **string { return &r.BillCustName }),
			rowmap.Opt("shipcustname", rowmap.Text, func(r *InvoiceLine) **string { return &r.ShipCustName }),
			rowmap.Opt("shiploc", rowmap.Text, func(r *InvoiceLine) **string { return &r.ShipLoc }),
			rowmap.Opt("line_number", rowmap.Int, func(r *InvoiceLine) **int64 { return &r.LineNumber }),
			rowmap.Opt("line_type", rowmap.Text, func(r *InvoiceLine) **string { return &r.LineType }),
			rowmap.Opt("quantity_invoiced", rowmap.Float, func(r *InvoiceLine) **float64 { return &r.QuantityInvoiced }),
			rowmap.Opt("extended_amount", rowmap.Float, func(r *InvoiceLine) **float64 { return &r.ExtendedAmount }),
			rowmap.Opt("unit_selling_price", rowmap.Float, func(r *InvoiceLine) **float64 { return &r.UnitSellingPrice }),
			rowmap.Opt("sales_order", rowmap.Text, func(r *InvoiceLine) **string { return &r.SalesOrder }),
			rowmap.Opt("sales_order_line", rowmap.Text, func(r *InvoiceLine) **string { return &r.SalesOrderLine }),
			rowmap.Opt("customer_trx_line_id", rowmap.Int, func(r *InvoiceLine) **int64 { return &r.CustomerTrxLineID }),
			rowmap.Opt("item_number", rowmap.Text, func(r *InvoiceLine) **string { return &r.ItemNumber }),
			rowmap.Opt("productgrp", rowmap.Text, func(r *InvoiceLine) **string { return &r.ProductGroup }),
			rowmap.Opt("vendor", rowmap.Text, func(r *InvoiceLine) **string { return &r.Vendor }),
			rowmap.Opt("style", rowmap.Text, func(r *InvoiceLine) **string { return &r.Style }),
			rowmap.Opt("tax_name", rowmap.Text, func(r *InvoiceLine) **string { return &r.TaxName }),
			rowmap.Opt("tax_rate", rowmap.Float, func(r *InvoiceLine) **float64 { return &r.TaxRate }),
		},
	},
	echo: []string{"dcid"},
}

// InvoiceLines reports today's invoice lines for one DC with their tax
// lines, ordered by invoice and line.
func (s *Service) InvoiceLines(ctx context.Context, dcid int64) (Envelope[InvoiceLine], error) {
	return invoiceLines.execute(ctx, s, query.FilterSet{"dcid": dcid})
}

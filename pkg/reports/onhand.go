package reports

import (
	"context"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/rowmap"
)

// OnhandItem is the on-hand quantity of one item at one locator.
type OnhandItem struct {
	InventoryItemID    *int64   `json:"inventory_item_id"`
	ItemNumber         *string  `json:"itemnumber"`
	ItemDescription    *string  `json:"item_description"`
	SubinventoryCode   *string  `json:"subinventory_code"`
	Quantity           *float64 `json:"quantity"`
	Locator            *string  `json:"locator"`
	Aisle              *string  `json:"aisle"`
	CustomSubinventory *string  `json:"customsubinventory"`
	Vendor             *string  `json:"vendor"`
	ProductGroup       *string  `json:"product_group"`
	ProductGroupLabel  *string  `json:"productgrp_display"`
	VendorLabel        *string  `json:"vendor_display"`
	Style              *string  `json:"style"`
}

// onhandCTE sums on-hand detail per item, subinventory and enabled locator.
func onhandCTE(b *query.Builder) CTEDef {
	return CTEDef{
		Name: "onhand",
		Query: SelectStmt{
			ColumnExprs: []Expr{
				col("xie", "inventory_item_id"),
				as(col("msi", "segment1"), "itemnumber"),
				as(col("msi", "description"), "item_description"),
				col("moq", "subinventory_code"),
				as(fn("SUM", Col{Column: "primary_transaction_quantity"}), "quantity"),
				as(Col{Column: "concatenated_segments"}, "locator"),
				as(col("mil", "segment1"), "aisle"),
				col("mil", "attribute7"),
				Col{Column: "vendor"},
				Col{Column: "product_group"},
			},
			From: []TableExpr{
				TableAs("mtl_onhand_quantities_detail", "moq"),
				TableAs("mtl_item_locations_kfv", "mil"),
				TableAs("mtl_system_items_b", "msi"),
				TableAs("xxatdmrp_item_elements_v", "xie"),
			},
			Where: b.Filtered(
				eq(col("moq", "inventory_item_id"), col("xie", "inventory_item_id")),
				eq(col("msi", "organization_id"), b.Bind("dcid")),
				eq(col("moq", "organization_id"), col("mil", "organization_id")),
				eq(col("mil", "inventory_location_id"), col("moq", "locator_id")),
				eq(col("mil", "organization_id"), col("msi", "organization_id")),
				eq(Nvl(col("mil", "enabled_flag"), Lit("N")), Lit("Y")),
				eq(col("msi", "inventory_item_id"), col("moq", "inventory_item_id")),
				eq(col("msi", "organization_id"), col("moq", "organization_id")),
			),
			GroupBy: []Expr{
				col("msi", "segment1"),
				col("msi", "description"),
				col("moq", "subinventory_code"),
				Col{Column: "concatenated_segments"},
				col("mil", "segment1"),
				col("xie", "inventory_item_id"),
				col("mil", "attribute7"),
				Col{Column: "vendor"},
				Col{Column: "product_group"},
			},
		},
	}
}

var dcOnhand = definition[OnhandItem]{
	tmpl: query.Template{
		ID: "onhand",
		Filters: []query.Filter{
			{Name: "dcid", Kind: query.KindInt, Required: true, Min: 1},
		},
		Render: func(b *query.Builder) SQLer {
			return WithCTE{
				CTEs: []CTEDef{itemInfoCTE(), onhandCTE(b)},
				Query: SelectStmt{
					ColumnExprs: []Expr{
						col("onhand", "inventory_item_id"),
						col("onhand", "itemnumber"),
						col("onhand", "item_description"),
						col("onhand", "subinventory_code"),
						col("onhand", "quantity"),
						col("onhand", "locator"),
						col("onhand", "aisle"),
						as(col("onhand", "attribute7"), "customsubinventory"),
						col("onhand", "vendor"),
						col("onhand", "product_group"),
						as(flexDisplay(col("onhand", "product_group"), groupValueSet), "productgrp_display"),
						as(flexDisplay(col("onhand", "vendor"), vendorValueSet), "vendor_display"),
						as(itemStyle(col("onhand", "inventory_item_id")), "style"),
					},
					From: []TableExpr{Table("onhand")},
				},
			}
		},
	},
	shape: rowmap.Shape[OnhandItem]{
		Name: "onhand_item",
		Fields: []rowmap.Field[OnhandItem]{
			rowmap.Opt("inventory_item_id", rowmap.Int, func(r *OnhandItem) **int64 { return &r.InventoryItemID }),
			rowmap.Opt("itemnumber", rowmap.Text, func(r *OnhandItem) **string { return &r.ItemNumber }),
			rowmap.Opt("item_description", rowmap.Text, func(r *OnhandItem) **string { return &r.ItemDescription }),
			rowmap.Opt("subinventory_code", rowmap.Text, func(r *OnhandItem) **string { return &r.SubinventoryCode }),
			rowmap.Opt("quantity", rowmap.Float, func(r *OnhandItem) **float64 { return &r.Quantity }),
			rowmap.Opt("locator", rowmap.Text, func(r *OnhandItem) **string { return &r.Locator }),
			rowmap.Opt("aisle", rowmap.Text, func(r *OnhandItem) **string { return &r.Aisle }),
			rowmap.Opt("customsubinventory", rowmap.Text, func(r *OnhandItem) **string { return &r.CustomSubinventory }),
			rowmap.Opt("vendor", rowmap.Text, func(r *OnhandItem) **string { return &r.Vendor }),
			rowmap.Opt("product_group", rowmap.Text, func(r *OnhandItem) **string { return &r.ProductGroup }),
			rowmap.Opt("productgrp_display", rowmap.Text, func(r *OnhandItem) **string { return &r.ProductGroupLabel }),
			rowmap.Opt("vendor_display", rowmap.Text, func(r *OnhandItem) **string { return &r.VendorLabel }),
			rowmap.Opt("style", rowmap.Text, func(r *OnhandItem) **string { return &r.Style }),
		},
	},
	echo: []string{"dcid"},
}

// DCOnhand reports on-hand inventory by locator for one DC.
func (s *Service) DCOnhand(ctx context.Context, dcid int64) (Envelope[OnhandItem], error) {
	return dcOnhand.execute(ctx, s, query.FilterSet{"dcid": dcid})
}

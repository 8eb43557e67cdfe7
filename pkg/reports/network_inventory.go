package reports

import (
	"context"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/rowmap"
)

// NetworkInventoryItem is the stock of one item at the DC itself (Local)
// or at a DC that backs it up (Local+).
type NetworkInventoryItem struct {
	DC               string   `json:"dc"`
	OrganizationCode *string  `json:"organization_code"`
	LocalQty         *float64 `json:"local_qty"`
}

var networkInventory = definition[NetworkInventoryItem]{
	tmpl: query.Template{
		ID: "network-inventory",
		Filters: []query.Filter{
			{Name: "dcid", Kind: query.KindInt, Required: true, Min: 1},
			{Name: "itemid", Kind: query.KindInt, Required: true, Min: 1},
		},
		Render: func(b *query.Builder) SQLer {
			local := SelectStmt{
				ColumnExprs: []Expr{
					as(Lit("Local"), "dc"),
					as(Col{Column: "location_code"}, "organization_code"),
					Col{Column: "local_qty"},
				},
				From: []TableExpr{
					TableAs("xxatdont_network_inventory", "a"),
					TableAs("hr_locations_all", "mp"),
				},
				Where: b.Filtered(
					eq(col("a", "organization_id"), b.Bind("dcid")),
					eq(col("a", "organization_id"), col("mp", "inventory_organization_id")),
					eq(Col{Column: "inventory_item_id"}, b.Bind("itemid")),
				),
			}
			localPlus := SelectStmt{
				ColumnExprs: []Expr{
					as(Lit("Local+"), "dc"),
					as(Col{Column: "location_code"}, "organization_code"),
					Col{Column: "local_qty"},
				},
				From: []TableExpr{
					TableAs("xxatdont_network_inventory", "a"),
					TableAs("xxatdont_localplus_dc", "b"),
					TableAs("hr_locations_all", "hla"),
				},
				Where: b.Filtered(
					eq(Col{Column: "LOCAL_DC_ID"}, b.Bind("dcid")),
					eq(Col{Column: "LOCALPLUS_DC_ID"}, Col{Column: "organization_id"}),
					eq(Col{Column: "organization_id"}, col("hla", "inventory_organization_id")),
					Gt{Left: Col{Column: "LOCAL_QTY"}, Right: Int(0)},
					eq(Col{Column: "inventory_item_id"}, b.Bind("itemid")),
				),
			}
			return Union{Blocks: []QueryBlock{{Query: local}, {Query: localPlus}}}
		},
	},
	shape: rowmap.Shape[NetworkInventoryItem]{
		Name: "network_inventory_item",
		Fields: []rowmap.Field[NetworkInventoryItem]{
			rowmap.Req("dc", rowmap.Text, func(r *NetworkInventoryItem) *string { return &r.DC }),
			rowmap.Opt("organization_code", rowmap.Text, func(r *NetworkInventoryItem) **string { return &r.OrganizationCode }),
			rowmap.Opt("local_qty", rowmap.Float, func(r *NetworkInventoryItem) **float64 { return &r.LocalQty }),
		},
	},
	echo: []string{"dcid", "itemid"},
}

// NetworkInventory reports an item's stock at a DC and at its Local+
// backup DCs.
func (s *Service) NetworkInventory(ctx context.Context, dcid, itemid int64) (Envelope[NetworkInventoryItem], error) {
	return networkInventory.execute(ctx, s, query.FilterSet{"dcid": dcid, "itemid": itemid})
}

package reports

import (
	"context"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/rowmap"
)

// DCLocation is one warehouse-managed distribution center.
type DCLocation struct {
	OrganizationCode string `json:"organization_code"`
	LocationCode     string `json:"location_code"`
	OrganizationID   int64  `json:"organization_id"`
}

// Location codes that name a WMS organization but not a shipping DC.
var (
	excludedLocationPatterns = []string{"%INACTIVE%", "%WHEELS%", "%EMPLOYEE%", "%VIRTUAL%", "%TIREBUYER%"}

	excludedLocations = []string{
		"997 ADJUSTMENT CENTER POCONO",
		"898 CUSTOMER DIRECT SHIPMENTS",
		"733 ADJUSTMENT CENTER_MCDONOUGH",
		"970 ADJUSTMENT CENTER_ALLIANCE",
		"990 ADJUSTMENT CENTER_ORLANDO",
		"978 ADJUSTMENT CTR_SHAFTER",
		"975 ADJUSTMENT CENTER_East",
		"977 STG COASTAL HOLDING",
		"Y76 SHAFTER MW",
		"972 ADJUSTMENT CTR (MID_WEST",
		"998 HUNTERSVILLE FIELD SUPPORT",
	}
)

var dcLocations = definition[DCLocation]{
	tmpl: query.Template{
		ID: "dc-locations",
		Render: func(b *query.Builder) SQLer {
			where := []Expr{
				eq(col("mp", "organization_id"), col("hl", "inventory_organization_id")),
				eq(col("mp", "wms_enabled_flag"), Lit("Y")),
			}
			for _, p := range excludedLocationPatterns {
				where = append(where, NotLike{Expr: col("hl", "location_code"), Pattern: Lit(p)})
			}
			where = append(where,
				NotIn{Expr: col("hl", "location_code"), Values: excludedLocations},
				eq(col("hl", "style"), Lit("US_GLB")),
			)
			return SelectStmt{
				ColumnExprs: []Expr{
					col("mp", "organization_code"),
					col("hl", "location_code"),
					col("mp", "organization_id"),
				},
				From: []TableExpr{
					TableAs("mtl_parameters", "mp"),
					TableAs("hr_locations_all", "hl"),
				},
				Where:   b.Filtered(where...),
				OrderBy: []Expr{col("mp", "organization_code")},
			}
		},
	},
	shape: rowmap.Shape[DCLocation]{
		Name: "dc_location",
		Fields: []rowmap.Field[DCLocation]{
			rowmap.Req("organization_code", rowmap.Text, func(r *DCLocation) *string { return &r.OrganizationCode }),
			rowmap.Req("location_code", rowmap.Text, func(r *DCLocation) *string { return &r.LocationCode }),
			rowmap.Req("organization_id", rowmap.Int, func(r *DCLocation) *int64 { return &r.OrganizationID }),
		},
	},
}

// DCLocations lists the active distribution centers ordered by
// organization code.
func (s *Service) DCLocations(ctx context.Context) (Envelope[DCLocation], error) {
	return dcLocations.execute(ctx, s, nil)
}

package reports

// Item attribute lookups shared by the onhand, order line and invoice
// reports.

// styleOrganizationID is the item master organization that carries the
// style category assignments.
const styleOrganizationID = 83

// Flex value sets that describe product groups and vendors.
const (
	groupValueSet  = "GROUP_VS"
	vendorValueSet = "VENDOR_VS"
)

// itemInfoCTE lists the currently enabled product group and vendor
// descriptions as iteminfo(flex_value_set_name, flex_value, description).
func itemInfoCTE() CTEDef {
	return CTEDef{
		Name: "iteminfo",
		Query: SelectStmt{
			ColumnExprs: []Expr{
				Col{Column: "flex_value_set_name"},
				Col{Column: "flex_value"},
				col("ffvt", "description"),
			},
			From: []TableExpr{
				TableAs("apps.fnd_flex_values_vl", "ffvt"),
				TableAs("apps.fnd_flex_value_sets", "ffvs"),
			},
			Where: And(
				In{Expr: col("ffvs", "flex_value_set_name"), Values: []string{groupValueSet, vendorValueSet}},
				eq(col("ffvs", "flex_value_set_id"), col("ffvt", "flex_value_set_id")),
				eq(col("ffvt", "enabled_flag"), Lit("Y")),
				Between{
					Expr: TruncSysdate,
					Low:  Trunc(Nvl(col("ffvt", "start_date_active"), Sysdate)),
					High: Trunc(Nvl(col("ffvt", "end_date_active"), Add{Left: Sysdate, Right: Int(1)})),
				},
			),
		},
	}
}

// flexDisplay renders code || '-' || (description of code in valueSet).
// It reads the iteminfo CTE.
func flexDisplay(code Expr, valueSet string) Concat {
	return concat(code, Lit("-"), scalar(SelectStmt{
		ColumnExprs: []Expr{Col{Column: "description"}},
		From:        []TableExpr{Table("iteminfo")},
		Where: And(
			eq(Col{Column: "flex_value_set_name"}, Lit(valueSet)),
			eq(Col{Column: "flex_value"}, code),
		),
	}))
}

// itemStyle renders the style category description of item.
func itemStyle(item Expr) ScalarSubquery {
	return scalar(SelectStmt{
		ColumnExprs: []Expr{col("mc", "description")},
		From: []TableExpr{
			TableAs("apps.mtl_item_categories", "mic"),
			TableAs("apps.mtl_categories", "mc"),
			TableAs("apps.mtl_category_sets_vl", "mcst"),
		},
		Where: And(
			eq(col("mcst", "category_set_name"), Lit("VGS_TRIPLE_SEGMENT")),
			eq(col("mic", "inventory_item_id"), item),
			eq(col("mic", "organization_id"), Int(styleOrganizationID)),
			eq(col("mc", "category_id"), col("mic", "category_id")),
			eq(col("mic", "category_set_id"), col("mcst", "category_set_id")),
		),
	})
}

package reports

import (
	"context"
	"time"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/rowmap"
)

// DescartesPayload is one routing payload sent for an order line, or an
// exception payload sent for the whole order in the same message.
type DescartesPayload struct {
	PayloadID      *int64     `json:"payload_id"`
	MsgID          *string    `json:"msg_id"`
	MessagePurpose *string    `json:"message_purpose"`
	EarliestDate   *time.Time `json:"earliest_date"`
	LatestDate     *time.Time `json:"latest_date"`
	ProfitValue    *float64   `json:"profit_value"`
	SendTime       *time.Time `json:"send_time"`
	Qty            *float64   `json:"qty"`
}

// Payload JSON paths of the outbound BOL document.
const (
	bolPayload     = "NVL(xdo.payload_text, xdo.payload_clob)"
	bolPurposePath = `'$.DocFWImport.Request.DocMasterBOL.DocBOL."@MessagePurpose"'`
	bolLinesPath   = `'$.DocFWImport.Request.DocMasterBOL.DocBOL.BOLLine[*]'`
	bolInsertCode  = "1007"
)

// messagePurpose decodes the BOL message purpose code.
func messagePurpose() Alias {
	purpose := Raw("json_value(" + bolPayload + ", " + bolPurposePath + ")")
	return as(caseWhen(eq(purpose, Lit(bolInsertCode)), Lit("Insert/Update"), Lit("Delete")), "message_purpose")
}

func descartesLinesCTE(b *query.Builder) CTEDef {
	lines := RawTable{
		SQL: "Json_Table(" + bolPayload + ", " + bolLinesPath +
			` Columns (line_id1 Varchar2(100) Path '$."@ProductKey"', qty Number Path '$.UDF."@Measure1"'))`,
		Alias: "jt",
	}
	return CTEDef{
		Name: "descartdata",
		Query: SelectStmt{
			ColumnExprs: []Expr{
				Col{Column: "payload_id"},
				Col{Column: "msg_id"},
				messagePurpose(),
				Col{Column: "earliestdate"},
				Col{Column: "latestdate"},
				Col{Column: "profitvalue"},
				Col{Column: "sendtime"},
				Col{Column: "qty"},
				Col{Column: "order_number"},
			},
			From: []TableExpr{TableAs("xxatdmsa_dcartorder_obpayload", "xdo"), lines},
			Where: b.Filtered(
				eq(Col{Column: "order_number"}, b.Bind("order_number")),
				eq(fn("REGEXP_SUBSTR", Col{Column: "line_id1"}, Lit("^[^-]+")), ToChar(b.Bind("line_id"))),
				like(Col{Column: "line_id"}, Contains(ToChar(b.Bind("line_id")))),
			),
		},
	}
}

// descartesExceptionsCTE selects the order level payloads that share a
// message with the line payloads.
func descartesExceptionsCTE(b *query.Builder) CTEDef {
	return CTEDef{
		Name: "exceptions",
		Query: SelectStmt{
			ColumnExprs: []Expr{
				col("xdo", "payload_id"),
				col("xdo", "msg_id"),
				messagePurpose(),
				col("xdo", "earliestdate"),
				col("xdo", "latestdate"),
				col("xdo", "profitvalue"),
				as(Nvl(col("xdo", "sendtime"), Col{Column: "creation_Date"}), "sendtime"),
				as(Null{}, "qty"),
				col("xdo", "order_number"),
			},
			From: []TableExpr{
				TableAs("xxatdmsa_dcartorder_obpayload", "xdo"),
				TableAs("descartdata", "dd"),
			},
			Where: b.Filtered(
				eq(col("dd", "msg_id"), col("xdo", "msg_id")),
				IsNull{Expr: Col{Column: "line_id"}},
				eq(col("xdo", "order_number"), b.Bind("order_number")),
			),
		},
	}
}

var descartesInfo = definition[DescartesPayload]{
	tmpl: query.Template{
		ID: "descartes",
		Filters: []query.Filter{
			{Name: "order_number", Kind: query.KindInt, Required: true, Min: 1},
			{Name: "line_id", Kind: query.KindInt, Required: true, Min: 1},
		},
		Render: func(b *query.Builder) SQLer {
			return WithCTE{
				CTEs: []CTEDef{descartesLinesCTE(b), descartesExceptionsCTE(b)},
				Query: SelectStmt{
					ColumnExprs: []Expr{Raw("*")},
					From: []TableExpr{Subquery{Query: Union{All: true, Blocks: []QueryBlock{
						{Query: selectAll("descartdata")},
						{Query: selectAll("exceptions")},
					}}}},
					OrderBy: []Expr{Int(1)},
				},
			}
		},
	},
	shape: rowmap.Shape[DescartesPayload]{
		Name: "descartes_payload",
		Fields: []rowmap.Field[DescartesPayload]{
			rowmap.Opt("payload_id", rowmap.Int, func(r *DescartesPayload) **int64 { return &r.PayloadID }),
			rowmap.Opt("msg_id", rowmap.Text, func(r *DescartesPayload) **string { return &r.MsgID }),
			rowmap.Opt("message_purpose", rowmap.Text, func(r *DescartesPayload) **string { return &r.MessagePurpose }),
			rowmap.Opt("earliestdate", rowmap.Time, func(r *DescartesPayload) **time.Time { return &r.EarliestDate }),
			rowmap.Opt("latestdate", rowmap.Time, func(r *DescartesPayload) **time.Time { return &r.LatestDate }),
			rowmap.Opt("profitvalue", rowmap.Float, func(r *DescartesPayload) **float64 { return &r.ProfitValue }),
			rowmap.Opt("sendtime", rowmap.Time, func(r *DescartesPayload) **time.Time { return &r.SendTime }),
			rowmap.Opt("qty", rowmap.Float, func(r *DescartesPayload) **float64 { return &r.Qty }),
		},
	},
	echo: []string{"order_number", "line_id"},
}

// DescartesInfo reports the routing payloads sent for one order line.
func (s *Service) DescartesInfo(ctx context.Context, orderNumber, lineID int64) (Envelope[DescartesPayload], error) {
	return descartesInfo.execute(ctx, s, query.FilterSet{"order_number": orderNumber, "line_id": lineID})
}

package reports_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sijms/go-ora/v2/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atdtech/dcdash"
	"github.com/atdtech/dcdash/internal/sqltest"
	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/reports"
	"github.com/atdtech/dcdash/pkg/session"
)

func newService(t *testing.T, stub *sqltest.Stub, opts ...reports.Option) (*reports.Service, *session.Manager) {
	t.Helper()
	restore := session.OverrideSQLOpen(stub.Open)
	t.Cleanup(restore)

	cfg := session.DefaultConfig("oracle://scott:tiger@db:1521/EBS")
	cfg.Target = "db:1521/EBS"
	mgr, err := session.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return reports.NewService(mgr, opts...), mgr
}

type run struct {
	report string
	rows   int
	err    error
}

type recorder struct {
	mu   sync.Mutex
	runs []run
}

func (r *recorder) ReportCompleted(report string, rows int, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run{report: report, rows: rows, err: err})
}

func (r *recorder) all() []run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]run(nil), r.runs...)
}

func TestDCOnhand_NullQuantityIsAbsent(t *testing.T) {
	stub := sqltest.New()
	stub.On("WITH iteminfo", sqltest.Result{
		Columns: []string{"INVENTORY_ITEM_ID", "QUANTITY"},
		Rows:    [][]any{{int64(5), nil}},
	})
	svc, mgr := newService(t, stub)

	env, err := svc.DCOnhand(context.Background(), 84)
	require.NoError(t, err)

	require.Len(t, env.Data, 1)
	require.NotNil(t, env.Data[0].InventoryItemID)
	assert.Equal(t, int64(5), *env.Data[0].InventoryItemID)
	assert.Nil(t, env.Data[0].Quantity)
	assert.Equal(t, 1, env.Total)

	out, err := json.Marshal(env)
	require.NoError(t, err)
	var decoded struct {
		Data  []map[string]any `json:"data"`
		Total int              `json:"total"`
		DCID  int64            `json:"dcid"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded.Data, 1)
	assert.Contains(t, decoded.Data[0], "quantity")
	assert.Nil(t, decoded.Data[0]["quantity"])
	assert.Equal(t, int64(84), decoded.DCID)

	queries := stub.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, map[string]any{"dcid": int64(84)}, queries[0].Args)
	assert.Equal(t, int64(0), mgr.Stats().Open())
}

func TestInvalidFilter_NeverConnects(t *testing.T) {
	stub := sqltest.New()
	rec := &recorder{}
	svc, mgr := newService(t, stub, reports.WithRecorder(rec))

	_, err := svc.Run(context.Background(), "order-lines", query.FilterSet{"dc": 84, "days_back": 400})
	require.Error(t, err)
	assert.True(t, dcdash.IsInvalidFilterErr(err))

	var fe *dcdash.FilterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "days_back", fe.Filter)

	assert.Zero(t, stub.Opens())
	assert.Empty(t, stub.Execs())
	assert.Empty(t, stub.Queries())
	assert.Zero(t, mgr.Stats().Acquired)

	runs := rec.all()
	require.Len(t, runs, 1)
	assert.Equal(t, "order-lines", runs[0].report)
	assert.Error(t, runs[0].err)
}

func TestRun_UnknownReport(t *testing.T) {
	stub := sqltest.New()
	svc, _ := newService(t, stub)

	res, err := svc.Run(context.Background(), "no-such-report", nil)
	assert.Nil(t, res)
	assert.True(t, dcdash.IsInvalidFilterErr(err))
	assert.Zero(t, stub.Opens())
}

func TestOpenOrderLines_Idempotent(t *testing.T) {
	stub := sqltest.New()
	stub.On("opendcopenlines", sqltest.Result{
		Columns: []string{"HEADER_ID", "LINE_ID", "ORDERED_ITEM", "RESERVEDQTY"},
		Rows: [][]any{
			{int64(1), int64(10), "ABC123", float64(4)},
			{int64(1), int64(11), "XYZ", nil},
		},
	})
	svc, _ := newService(t, stub)

	p := reports.OpenOrderLinesParams{DC: 84, OrderedItem: "abc"}
	first, err := svc.OpenOrderLines(context.Background(), p)
	require.NoError(t, err)
	second, err := svc.OpenOrderLines(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, map[string]any{"days_back": int64(60)}, first.Params)

	queries := stub.Queries()
	require.Len(t, queries, 2)
	assert.Equal(t, queries[0].SQL, queries[1].SQL)
	assert.Equal(t, queries[0].Args, queries[1].Args)
	assert.Equal(t, map[string]any{
		"dc":           int64(84),
		"days_back":    int64(60),
		"ordered_item": "%ABC%",
	}, queries[0].Args)
	assert.Equal(t, 2, stub.Opens())
	assert.Equal(t, 2, stub.Closes())
}

func TestDCLocations_MappingErrorReleasesSession(t *testing.T) {
	stub := sqltest.New()
	stub.On("mtl_parameters", sqltest.Result{
		Columns: []string{"ORGANIZATION_CODE", "LOCATION_CODE"},
		Rows:    [][]any{{"084", "084 DC CHARLOTTE"}},
	})
	rec := &recorder{}
	svc, mgr := newService(t, stub, reports.WithRecorder(rec))

	_, err := svc.DCLocations(context.Background())
	require.Error(t, err)
	assert.True(t, dcdash.IsMappingErr(err))

	var me *dcdash.MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "organization_id", me.Column)

	assert.Equal(t, 1, stub.Opens())
	assert.Equal(t, 1, stub.Closes())
	assert.Equal(t, int64(0), mgr.Stats().Open())

	runs := rec.all()
	require.Len(t, runs, 1)
	assert.True(t, dcdash.IsMappingErr(runs[0].err))
}

func TestDCLocations_ExtraColumnsIgnored(t *testing.T) {
	stub := sqltest.New()
	stub.On("mtl_parameters", sqltest.Result{
		Columns: []string{"ORGANIZATION_CODE", "LOCATION_CODE", "ORGANIZATION_ID", "LAST_UPDATE_DATE"},
		Rows:    [][]any{{"084", "084 DC CHARLOTTE", int64(84), time.Now()}},
	})
	svc, _ := newService(t, stub)

	env, err := svc.DCLocations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []reports.DCLocation{{
		OrganizationCode: "084",
		LocationCode:     "084 DC CHARLOTTE",
		OrganizationID:   84,
	}}, env.Data)
	assert.Empty(t, env.Params)
}

func TestInvoiceLines_EngineError(t *testing.T) {
	stub := sqltest.New()
	stub.Fail("RA_CUSTOMER_TRX_LINES_V", &network.OracleError{ErrCode: 942, ErrMsg: "ORA-00942: table or view does not exist"})
	svc, mgr := newService(t, stub)

	_, err := svc.InvoiceLines(context.Background(), 84)
	require.Error(t, err)
	assert.True(t, dcdash.IsEngineQueryErr(err))
	assert.False(t, dcdash.IsBackendUnavailableErr(err))
	assert.Equal(t, 942, dcdash.OracleCode(err))

	assert.Equal(t, int64(0), mgr.Stats().Open())
	assert.Equal(t, stub.Opens(), stub.Closes())
}

func TestSetupFailure_NoQueryRuns(t *testing.T) {
	stub := sqltest.New()
	stub.ExecErr = errors.New("ORA-04063: package body has errors")
	svc, mgr := newService(t, stub)

	_, err := svc.RoutePlans(context.Background(), 84)
	require.Error(t, err)
	assert.True(t, dcdash.IsSessionSetupErr(err))
	assert.True(t, dcdash.IsBackendUnavailableErr(err))

	assert.Empty(t, stub.Queries())
	assert.Equal(t, 1, stub.Closes())
	assert.Equal(t, int64(1), mgr.Stats().SetupFailed)
}

func TestConnectFailure(t *testing.T) {
	stub := sqltest.New()
	stub.ConnectErr = errors.New("ORA-12514: listener does not currently know of service")
	svc, _ := newService(t, stub)

	_, err := svc.OpenTripExceptions(context.Background(), 84)
	require.Error(t, err)
	assert.True(t, dcdash.IsConnectionErr(err))
	assert.Empty(t, stub.Execs())
}

func TestCancelledQueryReleasesSession(t *testing.T) {
	stub := sqltest.New()
	stub.Block = true
	svc, mgr := newService(t, stub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.NetworkInventory(ctx, 84, 12345)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(0), mgr.Stats().Open())
}

func TestHoldHistory_EchoesAbsentLine(t *testing.T) {
	applied := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	stub := sqltest.New()
	stub.On("oe_holds_history_v", sqltest.Result{
		Columns: []string{"HOLD_NAME", "HOLDLEVEL", "APPLIED_DATE"},
		Rows:    [][]any{{"Credit Check Failure", "Order", applied}},
	})
	svc, _ := newService(t, stub)

	env, err := svc.HoldHistory(context.Background(), reports.HoldHistoryParams{HeaderID: 123456})
	require.NoError(t, err)

	out, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, float64(123456), decoded["header_id"])
	assert.Contains(t, decoded, "line_id")
	assert.Nil(t, decoded["line_id"])
	assert.Equal(t, float64(1), decoded["total"])

	rows := decoded["data"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "Order", row["hold_level"])
	assert.Equal(t, "Credit Check Failure", row["hold_name"])
}

func TestRun_ByName(t *testing.T) {
	stub := sqltest.New()
	stub.On("WITH descartdata", sqltest.Result{
		Columns: []string{"PAYLOAD_ID", "MESSAGE_PURPOSE", "QTY"},
		Rows:    [][]any{{int64(1), "Insert/Update", "4"}},
	})
	rec := &recorder{}
	svc, _ := newService(t, stub, reports.WithRecorder(rec))

	res, err := svc.Run(context.Background(), "descartes", query.FilterSet{"order_number": 100001, "line_id": 789012})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count())
	assert.Equal(t, map[string]any{"order_number": int64(100001), "line_id": int64(789012)}, res.Echo())

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"data": [{
			"payload_id": 1,
			"msg_id": null,
			"message_purpose": "Insert/Update",
			"earliest_date": null,
			"latest_date": null,
			"profit_value": null,
			"send_time": null,
			"qty": 4
		}],
		"total": 1,
		"line_id": 789012,
		"order_number": 100001
	}`, string(out))

	assert.Equal(t, []run{{report: "descartes", rows: 1}}, rec.all())
}

func TestEnvelope_EmptyDataIsArray(t *testing.T) {
	out, err := json.Marshal(reports.Envelope[reports.DCLocation]{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"total":0}`, string(out))
}

func TestEnvelope_ParamCollision(t *testing.T) {
	_, err := json.Marshal(reports.Envelope[reports.DCLocation]{Params: map[string]any{"total": 1}})
	assert.Error(t, err)
}

func TestDBHealth(t *testing.T) {
	stub := sqltest.New()
	stub.On("v$version", sqltest.Result{
		Columns: []string{"BANNER"},
		Rows:    [][]any{{"Oracle Database 19c Enterprise Edition Release 19.0.0.0.0"}},
	})
	stub.On("CURRENT_SCHEMA", sqltest.Result{
		Columns: []string{"SCHEMA"},
		Rows:    [][]any{{"APPS"}},
	})
	svc, mgr := newService(t, stub)

	h, err := svc.DBHealth(dcdash.WithRequestID(context.Background(), "abcd1234"))
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Contains(t, h.DatabaseVersion, "19c")
	assert.Equal(t, "db:1521/EBS", h.ConnectionInfo)
	assert.Equal(t, "APPS", h.SessionContext)
	assert.False(t, h.Timestamp.IsZero())

	require.Len(t, stub.Execs(), 1, "health probe runs the session setup")
	assert.Contains(t, stub.Execs()[0].SQL, "CURRENT_SCHEMA = APPS")
	assert.Equal(t, int64(0), mgr.Stats().Open())
}

func TestDBHealth_NoRowsIsUnknown(t *testing.T) {
	stub := sqltest.New()
	svc, _ := newService(t, stub)

	h, err := svc.DBHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Unknown", h.DatabaseVersion)
	assert.Equal(t, "Unknown", h.SessionContext)
}

func TestDBHealth_ProbeFails(t *testing.T) {
	stub := sqltest.New()
	stub.Fail("v$version", errors.New("ORA-00942: table or view does not exist"))
	svc, mgr := newService(t, stub)

	_, err := svc.DBHealth(context.Background())
	require.Error(t, err)
	assert.True(t, dcdash.IsEngineQueryErr(err))
	assert.Equal(t, int64(0), mgr.Stats().Open())
}

package doctor_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atdtech/dcdash/internal/cli"
	"github.com/atdtech/dcdash/internal/doctor"
	"github.com/atdtech/dcdash/internal/sqltest"
	"github.com/atdtech/dcdash/pkg/reports"
	"github.com/atdtech/dcdash/pkg/session"
)

func testConfig() *cli.Config {
	return &cli.Config{
		Oracle: cli.OracleConfig{Host: "db", Port: 1521, Service: "EBS", User: "apps", Password: "pw"},
		Session: cli.SessionConfig{
			Schema:           "APPS",
			ContextProcedure: session.DefaultContextProcedure,
		},
	}
}

func healthyStub(schema string) *sqltest.Stub {
	stub := sqltest.New()
	stub.On("v$version", sqltest.Result{
		Columns: []string{"BANNER"},
		Rows:    [][]any{{"Oracle Database 19c Enterprise Edition"}},
	})
	stub.On("CURRENT_SCHEMA", sqltest.Result{
		Columns: []string{"SCHEMA"},
		Rows:    [][]any{{schema}},
	})
	return stub
}

func run(t *testing.T, stub *sqltest.Stub, cfg *cli.Config) *doctor.Report {
	t.Helper()
	t.Cleanup(session.OverrideSQLOpen(stub.Open))

	report, err := doctor.New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	return report
}

func categories(r *doctor.Report) []string {
	var out []string
	for _, c := range r.Checks {
		if len(out) == 0 || out[len(out)-1] != c.Category {
			out = append(out, c.Category)
		}
	}
	return out
}

func find(r *doctor.Report, category, name string) (doctor.CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Category == category && c.Name == name {
			return c, true
		}
	}
	return doctor.CheckResult{}, false
}

func TestRun_Healthy(t *testing.T) {
	stub := healthyStub("APPS")
	report := run(t, stub, testConfig())

	assert.False(t, report.HasErrors())
	assert.Zero(t, report.Warnings)
	assert.Equal(t, []string{"Configuration", "Connectivity", "Session Context", "Report Templates"}, categories(report))

	schema, ok := find(report, "Session Context", "schema")
	require.True(t, ok)
	assert.Equal(t, doctor.StatusPass, schema.Status)

	var templates int
	for _, c := range report.Checks {
		if c.Category == "Report Templates" {
			templates++
		}
	}
	assert.Equal(t, len(reports.Names()), templates)

	assert.Equal(t, stub.Opens(), stub.Closes(), "every session is released")
}

func TestRun_UnresolvableDSN(t *testing.T) {
	cfg := testConfig()
	cfg.Oracle.Host = ""
	stub := sqltest.New()
	report := run(t, stub, cfg)

	assert.True(t, report.HasErrors())
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, []string{"Configuration", "Report Templates"}, categories(report))
	assert.Zero(t, stub.Opens())

	dsn, ok := find(report, "Configuration", "dsn")
	require.True(t, ok)
	assert.Contains(t, dsn.Details, "oracle.host is required")
}

func TestRun_InvalidSchemaIdentifier(t *testing.T) {
	cfg := testConfig()
	cfg.Session.Schema = "APPS'; --"
	report := run(t, sqltest.New(), cfg)

	check, ok := find(report, "Configuration", "session")
	require.True(t, ok)
	assert.Equal(t, doctor.StatusFail, check.Status)
	_, ok = find(report, "Connectivity", "ping")
	assert.False(t, ok)
}

func TestRun_Unreachable(t *testing.T) {
	stub := sqltest.New()
	stub.ConnectErr = errors.New("ORA-12541: TNS:no listener")
	report := run(t, stub, testConfig())

	ping, ok := find(report, "Connectivity", "ping")
	require.True(t, ok)
	assert.Equal(t, doctor.StatusFail, ping.Status)
	assert.Contains(t, ping.Details, "ORA-12541")
	assert.NotContains(t, categories(report), "Session Context")
}

func TestRun_SetupFails(t *testing.T) {
	stub := healthyStub("APPS")
	stub.ExecErr = errors.New("ORA-06550: PLS-00201: identifier must be declared")
	report := run(t, stub, testConfig())

	setup, ok := find(report, "Connectivity", "setup")
	require.True(t, ok)
	assert.Equal(t, doctor.StatusFail, setup.Status)
	assert.Empty(t, stub.Queries())
}

func TestRun_SchemaMismatch(t *testing.T) {
	report := run(t, healthyStub("SCOTT"), testConfig())

	schema, ok := find(report, "Session Context", "schema")
	require.True(t, ok)
	assert.Equal(t, doctor.StatusFail, schema.Status)
	assert.Contains(t, schema.Message, "expected APPS")
}

func TestRun_NoContextProcedureWarns(t *testing.T) {
	cfg := testConfig()
	cfg.Session.ContextProcedure = ""
	report := run(t, healthyStub("APPS"), cfg)

	assert.False(t, report.HasErrors())
	assert.Equal(t, 1, report.Warnings)
}

func TestRun_UsesGivenManager(t *testing.T) {
	stub := healthyStub("APPS")
	t.Cleanup(session.OverrideSQLOpen(stub.Open))

	sc, err := testConfig().SessionConfig()
	require.NoError(t, err)
	mgr, err := session.Open(sc)
	require.NoError(t, err)
	defer mgr.Close()

	report, err := doctor.New(testConfig(), mgr).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HasErrors())

	// The caller's manager stays usable.
	require.NoError(t, mgr.Ping(context.Background()))
}

func TestReport_Print(t *testing.T) {
	report := &doctor.Report{}
	report.AddCheck(doctor.CheckResult{Category: "Connectivity", Name: "ping", Status: doctor.StatusPass, Message: "Connected to db:1521/EBS"})
	report.AddCheck(doctor.CheckResult{
		Category: "Connectivity",
		Name:     "setup",
		Status:   doctor.StatusFail,
		Message:  "Session setup failed",
		Details:  "ORA-06550",
		FixHint:  "Grant execute on the context procedure",
	})

	var quiet, verbose bytes.Buffer
	report.Print(&quiet, false)
	report.Print(&verbose, true)

	assert.Contains(t, quiet.String(), "✓ Connected to db:1521/EBS")
	assert.Contains(t, quiet.String(), "✗ Session setup failed")
	assert.Contains(t, quiet.String(), "Fix: Grant execute")
	assert.NotContains(t, quiet.String(), "ORA-06550")
	assert.Contains(t, verbose.String(), "ORA-06550")
	assert.Contains(t, quiet.String(), "Summary: 1 passed, 0 warnings, 1 errors")
}

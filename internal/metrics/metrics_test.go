package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atdtech/dcdash/internal/metrics"
	"github.com/atdtech/dcdash/pkg/session"
)

func TestSessionEvents(t *testing.T) {
	m := metrics.New()

	m.SessionAcquired()
	m.SessionAcquired()
	m.SessionReleased(20 * time.Millisecond)
	m.SessionFailed(session.StageConnect)
	m.SessionFailed(session.StageSetup)
	m.SessionFailed(session.StageSetup)

	expected := `
# HELP dcdash_sessions_open Sessions acquired and not yet released.
# TYPE dcdash_sessions_open gauge
dcdash_sessions_open 1
# HELP dcdash_sessions_total Session lifecycle events by outcome.
# TYPE dcdash_sessions_total counter
dcdash_sessions_total{outcome="acquired"} 2
dcdash_sessions_total{outcome="connect_failed"} 1
dcdash_sessions_total{outcome="released"} 1
dcdash_sessions_total{outcome="setup_failed"} 2
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"dcdash_sessions_open", "dcdash_sessions_total")
	require.NoError(t, err)
}

func TestReportCompleted(t *testing.T) {
	m := metrics.New()

	m.ReportCompleted("onhand", 12, 300*time.Millisecond, nil)
	m.ReportCompleted("onhand", 3, 100*time.Millisecond, nil)
	m.ReportCompleted("onhand", 0, time.Millisecond, errors.New("boom"))

	expected := `
# HELP dcdash_report_rows_total Records returned by successful report runs.
# TYPE dcdash_report_rows_total counter
dcdash_report_rows_total{report="onhand"} 15
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "dcdash_report_rows_total"))

	count, err := testutil.GatherAndCount(m.Registry(), "dcdash_report_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per outcome")
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.SessionAcquired()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dcdash_sessions_open 1")
	assert.Contains(t, string(body), "go_goroutines")
}

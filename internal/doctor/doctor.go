// Package doctor provides health checks for a dcdash deployment.
//
// The doctor command validates that the reporting façade can serve requests
// by checking its configuration, database connectivity, the session context
// every connection runs under, and the report templates themselves.
//
// Example usage:
//
//	d := doctor.New(cfg, mgr)
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/atdtech/dcdash/internal/cli"
	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/reports"
	"github.com/atdtech/dcdash/pkg/session"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Connectivity", "Report Templates").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	// Group checks by category
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	// Print each category
	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				// Indent details
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	// Print summary
	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Check categories, in the order they run.
const (
	categoryConfig    = "Configuration"
	categoryConnect   = "Connectivity"
	categoryContext   = "Session Context"
	categoryTemplates = "Report Templates"
)

// Doctor performs health checks on a dcdash deployment.
type Doctor struct {
	cfg *cli.Config
	mgr *session.Manager

	// Populated during Run.
	sessionCfg session.Config
	ownsMgr    bool
}

// New creates a new Doctor instance. mgr may be nil, in which case Run
// opens a manager from cfg once the configuration checks pass.
func New(cfg *cli.Config, mgr *session.Manager) *Doctor {
	return &Doctor{cfg: cfg, mgr: mgr}
}

// Run executes all health checks and returns a report. Database checks
// are skipped when an earlier check makes them meaningless.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if d.checkConfiguration(report) {
		if d.ownsMgr {
			defer d.closeManager()
		}
		if d.checkConnectivity(ctx, report) {
			d.checkSessionContext(ctx, report)
		}
	}
	d.checkTemplates(report)

	return report, ctx.Err()
}

func (d *Doctor) closeManager() {
	if d.mgr != nil {
		_ = d.mgr.Close()
	}
}

// checkConfiguration validates that a DSN can be resolved and that the
// session identifiers are safe to splice into the setup block.
func (d *Doctor) checkConfiguration(report *Report) bool {
	if _, err := d.cfg.DSN(); err != nil {
		report.AddCheck(CheckResult{
			Category: categoryConfig,
			Name:     "dsn",
			Status:   StatusFail,
			Message:  "Database connection string cannot be resolved",
			Details:  err.Error(),
			FixHint:  "Set oracle.url, or oracle.host, oracle.service and oracle.user",
		})
		return false
	}
	report.AddCheck(CheckResult{
		Category: categoryConfig,
		Name:     "dsn",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Database target is %s", d.cfg.Target()),
	})

	sc, err := d.cfg.SessionConfig()
	if err != nil {
		report.AddCheck(CheckResult{
			Category: categoryConfig,
			Name:     "session",
			Status:   StatusFail,
			Message:  "Session settings are invalid",
			Details:  err.Error(),
			FixHint:  "session.schema and session.context_procedure must be plain identifiers",
		})
		return false
	}
	d.sessionCfg = sc

	details := sc.SetupSQL()
	report.AddCheck(CheckResult{
		Category: categoryConfig,
		Name:     "session",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Sessions switch to schema %s", d.cfg.Session.Schema),
		Details:  details,
	})
	if sc.ContextProcedure == "" {
		report.AddCheck(CheckResult{
			Category: categoryConfig,
			Name:     "context_procedure",
			Status:   StatusWarn,
			Message:  "No org context procedure is configured",
			Details:  "Views that depend on the multi-org context may return no rows",
			FixHint:  "Set session.context_procedure",
		})
	}

	if d.mgr == nil {
		mgr, err := session.Open(sc)
		if err != nil {
			report.AddCheck(CheckResult{
				Category: categoryConfig,
				Name:     "open",
				Status:   StatusFail,
				Message:  "Connection handle could not be created",
				Details:  err.Error(),
			})
			return false
		}
		d.mgr = mgr
		d.ownsMgr = true
	}
	return true
}

// checkConnectivity pings the database and then acquires a full session,
// which runs the setup block.
func (d *Doctor) checkConnectivity(ctx context.Context, report *Report) bool {
	if err := d.mgr.Ping(ctx); err != nil {
		report.AddCheck(CheckResult{
			Category: categoryConnect,
			Name:     "ping",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Cannot reach %s", d.cfg.Target()),
			Details:  err.Error(),
			FixHint:  "Check oracle.host, oracle.port, oracle.service and the credentials",
		})
		return false
	}
	report.AddCheck(CheckResult{
		Category: categoryConnect,
		Name:     "ping",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Connected to %s", d.cfg.Target()),
	})

	sess, err := d.mgr.Acquire(ctx)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: categoryConnect,
			Name:     "setup",
			Status:   StatusFail,
			Message:  "Session setup failed",
			Details:  err.Error(),
			FixHint:  "Verify the schema exists and the context procedure is granted to the user",
		})
		return false
	}
	_ = sess.Release()

	report.AddCheck(CheckResult{
		Category: categoryConnect,
		Name:     "setup",
		Status:   StatusPass,
		Message:  "Session setup block runs",
	})
	return true
}

// checkSessionContext reads back the schema a configured session runs
// under and the database banner.
func (d *Doctor) checkSessionContext(ctx context.Context, report *Report) {
	h, err := reports.NewService(d.mgr).DBHealth(ctx)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: categoryContext,
			Name:     "probe",
			Status:   StatusFail,
			Message:  "Session context could not be read",
			Details:  err.Error(),
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: categoryContext,
		Name:     "banner",
		Status:   StatusPass,
		Message:  h.DatabaseVersion,
	})

	want := strings.ToUpper(d.cfg.Session.Schema)
	if want == "" {
		want = session.DefaultSchema
	}
	if !strings.EqualFold(h.SessionContext, want) {
		report.AddCheck(CheckResult{
			Category: categoryContext,
			Name:     "schema",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Current schema is %s, expected %s", h.SessionContext, want),
			FixHint:  "The setup block did not take effect; check for logon triggers that reset CURRENT_SCHEMA",
		})
		return
	}
	report.AddCheck(CheckResult{
		Category: categoryContext,
		Name:     "schema",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Current schema is %s", h.SessionContext),
	})
}

// checkTemplates builds every report with its sample filters. It needs no
// database.
func (d *Doctor) checkTemplates(report *Report) {
	for _, e := range reports.Catalog() {
		var failures []string
		for _, fs := range e.Samples {
			if _, err := query.Build(e.Template, fs); err != nil {
				failures = append(failures, fmt.Sprintf("%v: %v", fs, err))
			}
		}
		if len(failures) > 0 {
			report.AddCheck(CheckResult{
				Category: categoryTemplates,
				Name:     e.Name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s does not build", e.Name),
				Details:  strings.Join(failures, "\n"),
			})
			continue
		}
		report.AddCheck(CheckResult{
			Category: categoryTemplates,
			Name:     e.Name,
			Status:   StatusPass,
			Message:  fmt.Sprintf("%s builds (%d filter sets)", e.Name, len(e.Samples)),
		})
	}
}

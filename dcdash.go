// Package dcdash is a reporting façade over the Oracle E-Business Suite
// schema used by the distribution-center dashboard.
//
// # Module Structure
//
// The data-access core is split into four packages:
//
//   - pkg/session: connection lifecycle with mandatory session context setup
//   - pkg/query: query templates, filter validation and bind/placeholder checks
//   - pkg/rowmap: row-to-record mapping with declared optionality per field
//   - pkg/reports: one query service per reporting domain
//
// This root package holds what every layer shares: the error taxonomy and
// the request correlation id carried in a context.Context.
//
// # Basic Usage
//
//	mgr, err := session.Open(cfg, session.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
//
//	svc := reports.NewService(mgr, reports.WithLogger(logger))
//	ctx = dcdash.WithRequestID(ctx, "a1b2c3d4")
//	env, err := svc.DCOnhand(ctx, 84)
//
// # Error Handling
//
// Failures are classified by sentinel errors:
//
//	switch {
//	case dcdash.IsInvalidFilterErr(err):      // caller input, 400
//	case dcdash.IsBackendUnavailableErr(err): // connect or session setup, 503
//	case dcdash.IsEngineQueryErr(err):        // engine rejected SQL, 500
//	case dcdash.IsMappingErr(err):            // schema drift, 500
//	}
//
// A session is always released before any of these errors reaches the caller.
package dcdash

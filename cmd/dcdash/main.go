// Command dcdash serves the DC dashboard reports.
//
// The CLI supports:
//   - serve: Run the HTTP API
//   - report: Run one report and print the envelope
//   - doctor: Check configuration, connectivity and session context
//   - config show: Print the effective configuration
//
// Usage:
//
//	dcdash [flags] <command>
//
// Connection settings come from dcdash.yaml, DCDASH_* environment variables
// or the ORACLE_* variables existing deployments already set.
package main

func main() {
	Execute()
}

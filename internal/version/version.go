package version

import (
	"fmt"
	"runtime"
)

// These variables are set via ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Service is the name reported by the health endpoint and the CLI.
const Service = "dcdash"

// Info returns formatted version information
func Info() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s) %s",
		Service, Version, Commit, Date, runtime.Version())
}

// Short returns just the version string
func Short() string {
	return Version
}

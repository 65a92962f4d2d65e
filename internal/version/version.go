// Package version carries build metadata stamped in by the linker:
//
//	go build -ldflags "-X github.com/dkoosis/rollup/internal/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime"
)

// These variables are populated by the Go linker (LDFLAGS) at build time.
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String is the one-line version banner.
func String() string {
	return fmt.Sprintf("rollup %s (commit %s, built %s, %s)", Version, CommitHash, BuildDate, runtime.Version())
}

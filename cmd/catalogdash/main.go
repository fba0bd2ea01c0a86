package main

import (
	"os"
)

// ============================================================================
// CATALOGDASH CLI — Netflix catalog dashboard
// ============================================================================

const version = "0.3.0"

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}

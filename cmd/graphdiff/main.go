// Command graphdiff compares, merges and tracks graph snapshots from the
// command line, sharing the service's configuration and stores.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// chatsweep - bulk conversation management for your chat history.
package main

import (
	"fmt"
	"os"

	"github.com/chatsweep/chatsweep/internal/cli"
	"github.com/chatsweep/chatsweep/internal/version"
)

// Version information, overridden by the Makefile via LDFLAGS for releases.
var (
	Version   = "v0.3.0"
	BuildTime = "unknown"
)

func main() {
	// Set version in version package (canonical source for all packages)
	version.Version = Version
	version.BuildTime = BuildTime
	cli.Version = Version
	cli.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

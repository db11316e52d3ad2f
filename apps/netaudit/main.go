// netaudit runs audit and maintenance tasks over SSH across a fleet of
// network devices listed in an inventory file.
package main

import "os"

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(execute(newRootCmd(buildInfo{version: version, commit: commit, date: date}), os.Args[1:]))
}

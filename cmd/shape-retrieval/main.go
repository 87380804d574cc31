// Command shape-retrieval builds bag-of-boundaries histogram databases from
// segmented image collections and answers nearest-shape queries against
// them, either from the command line or as an MCP server over stdio.
package main

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	Execute()
}

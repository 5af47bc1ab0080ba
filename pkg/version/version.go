// Package version records build identity, set at link time.
package version

var (
	// Version is the semantic version of the build.
	Version = "dev"

	// Commit is the VCS revision the binary was built from.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

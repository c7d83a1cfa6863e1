// Package version carries build identification, set via -ldflags at build
// time.
package version

var (
	// Version is the current relay version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the version with its commit for logs.
func String() string {
	return Version + " (" + GitSHA + ")"
}

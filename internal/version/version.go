// Package version carries the build identity stamped into the binary.
//
// Release builds overwrite the defaults with -ldflags, e.g.
//
//	-X .../internal/version.Version=$(git describe --tags)
//	-X .../internal/version.Commit=$(git rev-parse --short HEAD)
//	-X .../internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)
//
// A plain go build reports "dev".
package version

var (
	// Version is the release tag.
	Version = "dev"

	// Commit is the short git revision.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// String renders the full build identity for startup logs.
func String() string {
	return Version + "-" + Commit + " (" + BuildTime + ")"
}

// Package version reports the build's version, set via ldflags or read from the module
// build info embedded by "go install".
package version

import "runtime/debug"

// Version is set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/mdlinkcheck/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var readBuildInfo = debug.ReadBuildInfo

// Resolve returns Version, or the main module version recorded by the Go toolchain when
// no version was linked in.
func Resolve() string {
	if Version != "unknown" {
		return Version
	}
	info, ok := readBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return Version
	}
	return info.Main.Version
}

// String returns a one-line description of the build.
func String() string {
	return Resolve() + " (commit " + GitCommit + ", built " + BuildTime + ")"
}

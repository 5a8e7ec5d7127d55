package version

import (
	"fmt"
	"runtime"
)

// Version information that can be set at build time
var (
	// These can be set via ldflags during build:
	// go build -ldflags "-X .../internal/version.BuildVersion=v1.2.3"
	BuildVersion = "v1.0.0"
	BuildTime    = "unknown"
	BuildCommit  = "unknown"
)

// GetVersion returns the current version string.
func GetVersion() string {
	return BuildVersion
}

// GetBuildInfo returns version, build time, commit, and Go runtime version.
func GetBuildInfo() string {
	return fmt.Sprintf("%s (built: %s, commit: %s, go: %s)",
		BuildVersion, BuildTime, BuildCommit, runtime.Version())
}

// GetShortVersion returns the version number without the "v" prefix.
func GetShortVersion() string {
	if len(BuildVersion) > 0 && BuildVersion[0] == 'v' {
		return BuildVersion[1:]
	}
	return BuildVersion
}

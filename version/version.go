// Package version holds build information. Both values may be set with -ldflags.
package version

import "fmt"

var Version = "0.1.0"
var BuildDate = "unknown"

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}

// String returns the version line printed by --version.
func String() string {
	return fmt.Sprintf("%s (built %s)", Version, BuildDate)
}

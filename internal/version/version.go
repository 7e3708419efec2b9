// Package version carries build metadata injected via -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the binary name used in help and version output.
const Name = "tvremote"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("%s %s (commit=%s, date=%s, go=%s)", Name, resolved(), Commit, Date, runtime.Version())
}

// resolved falls back to the module version stamped by `go install` when no
// -ldflags value was given.
func resolved() string {
	if Version != "dev" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return Version
	}
	return info.Main.Version
}

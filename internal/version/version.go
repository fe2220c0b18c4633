package version

import "fmt"

// These variables are overridden at build time using -ldflags.
// Keep sensible defaults for local development.
var (
	Version = "dev"
	Commit  = "none"
	Date    = ""
	Dirty   = "false"
)

// String renders the build identity for the startup log and the version
// endpoint, e.g. "1.4.0 (9f2c1ab)" or "dev-dirty".
func String() string {
	s := Version
	if Commit != "" && Commit != "none" {
		short := Commit
		if len(short) > 7 {
			short = short[:7]
		}
		s = fmt.Sprintf("%s (%s)", s, short)
	}
	if Dirty == "true" {
		s += "-dirty"
	}
	return s
}

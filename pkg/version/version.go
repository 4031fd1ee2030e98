package version

import (
	"fmt"
	"runtime"
)

// These variables are set via ldflags during build.
var (
	Version   = "dev"
	Commit    = "none"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

const product = "studio-stream"

// Summary returns the version with a short commit hash when one is known.
func Summary() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if Commit != "" && Commit != "none" {
		short := Commit
		if len(short) > 7 {
			short = short[:7]
		}
		return fmt.Sprintf("%s (%s)", v, short)
	}
	return v
}

// UserAgent identifies this client in outbound request headers.
func UserAgent() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	return fmt.Sprintf("%s/%s (%s/%s; %s)", product, v, runtime.GOOS, runtime.GOARCH, GoVersion)
}

// Package version carries build metadata injected via ldflags.
package version

// Set at build time:
//
//	go build -ldflags "-X .../internal/version.Version=v1.2.3"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version, commit and build date.
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

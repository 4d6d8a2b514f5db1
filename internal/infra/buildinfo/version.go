// Package buildinfo exposes the binary's version identity.
//
// Release builds inject Version, Commit, and BuildTime via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/sasmint-go/internal/infra/buildinfo.Version=v1.0.0"
//
// A plain `go build` binary still reports something useful: Commit
// falls back to the VCS revision stamped into the module build info,
// and the Go version always comes from the runtime.
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// Injected at build time via ldflags.
var (
	// Version is the semantic release version.
	Version = "dev"

	// Commit is the git commit hash.
	Commit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info is the resolved version identity, as served by the status
// endpoints and the -version flag.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get resolves the build information, filling unset ldflags values
// from the embedded module build info where possible.
func Get() Info {
	commit := Commit
	if commit == "unknown" {
		if rev := vcsRevision(); rev != "" {
			commit = rev
		}
	}
	return Info{
		Version:   Version,
		Commit:    commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String returns a one-line version summary.
func String() string {
	info := Get()
	return info.Version + " (" + info.Commit + ") built at " + info.BuildTime
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

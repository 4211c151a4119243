// Package version reports the build of the ftsearch binaries.
package version

import (
	"fmt"
	"runtime/debug"
)

// Overridden with -ldflags "-X github.com/kailas-cloud/ftsearch/internal/version.Version=...".
//
//nolint:gochecknoglobals
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the resolved build metadata.
type Info struct {
	Version string
	Commit  string
	Date    string
}

// Get returns the ldflags values, falling back to the module and VCS data
// the Go toolchain embeds for `go install` builds.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return fillUnknown(info)
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		}
	}
	return fillUnknown(info)
}

func fillUnknown(info Info) Info {
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

func (i Info) String() string {
	commit := i.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, commit, i.Date)
}

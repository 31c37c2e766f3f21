// Package version reports the build version of octanews.
//
// Release builds stamp the version and commit with ldflags:
//
//	go build -ldflags="-X github.com/muurk/octanews/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/octanews/internal/version.Commit=abc123"
//
// Other builds fall back to the VCS stamp Go embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set with ldflags
var (
	Version = ""
	Commit  = ""
)

const shortCommitLen = 7

// Info describes the running binary
type Info struct {
	Version   string
	Commit    string
	Dirty     bool
	BuiltAt   time.Time
	GoVersion string
}

// Get returns the build information, filling gaps from the embedded VCS stamp
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = info.withSettings(bi.Settings)
	}

	if info.Version == "" {
		info.Version = "dev"
		if !info.BuiltAt.IsZero() {
			info.Version += "-" + info.BuiltAt.UTC().Format("20060102")
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	return info
}

func (i Info) withSettings(settings []debug.BuildSetting) Info {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "" {
				i.Commit = s.Value
				if len(i.Commit) > shortCommitLen {
					i.Commit = i.Commit[:shortCommitLen]
				}
			}
		case "vcs.modified":
			i.Dirty = s.Value == "true"
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				i.BuiltAt = t
			}
		}
	}
	return i
}

// String returns "version (commit: abc1234)" with a -dirty suffix for
// modified working trees
func (i Info) String() string {
	commit := i.Commit
	if i.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (commit: %s)", i.Version, commit)
}

// Full returns the version string of the running binary
func Full() string {
	return Get().String()
}

// Package version provides build version information and runtime metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

var (
	// These are set via ldflags at build time
	Version = ""
	Commit  = ""
	Date    = ""

	once sync.Once
)

// ensureInitialized fills in anything ldflags did not set, preferring the
// VCS metadata stamped into the binary by the Go toolchain.
func ensureInitialized() {
	once.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if ok {
			fillFromBuildInfo(info)
		}
		if Version == "" {
			Version = "dev"
		}
		if Commit == "" {
			Commit = "unknown"
		}
		if Date == "" {
			Date = time.Now().Format("2006-01-02")
		}
	})
}

func fillFromBuildInfo(info *debug.BuildInfo) {
	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		case "vcs.time":
			if Date == "" {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					Date = t.Format("2006-01-02")
				}
			}
		}
	}

	if Commit == "" && len(revision) >= 7 {
		Commit = revision[:7]
		if modified {
			Commit += "-dirty"
		}
	}
}

// Info returns a one-line build description for the version flag and info tab.
func Info() string {
	ensureInitialized()
	return fmt.Sprintf("stylist-chat-tui %s (commit: %s, built: %s, %s/%s)",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}

// Package version reports the build version of the checkout binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/checkout/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/checkout/internal/version.Commit=abc123"
//
// Unset values are filled from the VCS stamp in the build info, then "dev".
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
	// BuildTime is the commit time reported by the build info, if any
	BuildTime = ""
)

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			applyBuildSettings(info.Settings)
		}
	}

	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// applyBuildSettings fills unset values from VCS build settings
func applyBuildSettings(settings []debug.BuildSetting) {
	var revision, modified, vcsTime string
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = shortRevision(revision)
		if modified == "true" {
			Commit += "-dirty"
		}
	}

	if vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			BuildTime = t.UTC().Format(time.RFC3339)
			if Version == "" {
				Version = fmt.Sprintf("dev-%s", t.Format("20060102"))
			}
		}
	}
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Details returns a multi-line description for the version command
func Details(binary string) string {
	s := fmt.Sprintf("%s %s\n  commit: %s\n  go:     %s %s/%s\n",
		binary, Version, Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if BuildTime != "" {
		s += fmt.Sprintf("  built:  %s\n", BuildTime)
	}
	return s
}

// UserAgent returns the User-Agent sent to SDK gateways
func UserAgent() string {
	return "checkout/" + Version
}

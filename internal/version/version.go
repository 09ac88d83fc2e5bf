package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/haanna/anna/internal/version.Version=v0.3.0 \
//	                   -X github.com/haanna/anna/internal/version.Commit=abc1234"
//
// Otherwise they are filled from the VCS stamp in the build info, falling
// back to "dev" with a timestamp.
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			Version, Commit = fromSettings(Version, Commit, info.Settings)
		}
	}

	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromSettings fills empty version and commit values from VCS build settings
func fromSettings(version, commit string, settings []debug.BuildSetting) (string, string) {
	var vcsRevision, vcsModified, vcsTime string
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			vcsRevision = setting.Value
		case "vcs.modified":
			vcsModified = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	if commit == "" && vcsRevision != "" {
		commit = vcsRevision
		if len(commit) > 7 {
			commit = commit[:7]
		}
		if vcsModified == "true" {
			commit += "-dirty"
		}
	}

	// Build info has no tags, so the best available version is the commit date
	if version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			version = fmt.Sprintf("dev-%s", t.Format("20060102"))
		}
	}

	return version, commit
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Platform returns the Go version and target, e.g. "go1.24.10 linux/arm64"
func Platform() string {
	return fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

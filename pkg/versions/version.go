// Package versions reports build information for the plugin-index binary.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const unknown = "unknown"

// Set at link time with -ldflags "-X github.com/stacklok/plugin-index/pkg/versions.Version=..."
var (
	Version   = "dev"
	Commit    = unknown
	BuildDate = unknown
)

// Info describes the running build
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information, filling commit and date from the VCS
// stamp for development builds.
func Get() Info {
	return build(Version, Commit, BuildDate, vcsSettings())
}

// UserAgent is sent with every upstream registry request
func UserAgent() string {
	return fmt.Sprintf("plugin-index/%s (+https://github.com/stacklok/plugin-index)", Get().Version)
}

func vcsSettings() map[string]string {
	settings := map[string]string{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, s := range info.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			settings[s.Key] = s.Value
		}
	}
	return settings
}

func build(version, commit, date string, vcs map[string]string) Info {
	if strings.HasPrefix(version, "dev") {
		if commit == unknown && vcs["vcs.revision"] != "" {
			commit = vcs["vcs.revision"]
		}
		if date == unknown && vcs["vcs.time"] != "" {
			date = vcs["vcs.time"]
		}
	}

	if t, err := time.Parse(time.RFC3339, date); err == nil {
		date = t.UTC().Format("2006-01-02 15:04:05 MST")
	}

	if version == "dev" {
		version = fmt.Sprintf("build-%.8s", commit)
	}

	return Info{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

package version

import (
	"fmt"
	"runtime/debug"

	"github.com/calvinalkan/bigdir"
)

var (
	// These will be set by build flags or default to development values
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info contains version information
type Info struct {
	Version        string `json:"version"`
	Commit         string `json:"commit"`
	Date           string `json:"date"`
	Modified       bool   `json:"modified,omitempty"`
	Implementation string `json:"implementation"`
}

// GetVersion returns the version string, preferring compile-time version if available
func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}

	return "development"
}

// GetCommit returns the git commit hash, preferring compile-time commit if available
func GetCommit() string {
	if Commit != "unknown" && Commit != "" {
		return Commit
	}

	if v, ok := buildSetting("vcs.revision"); ok {
		return v
	}

	return "unknown"
}

// GetBuildDate returns the build date, preferring compile-time date if available
func GetBuildDate() string {
	if Date != "unknown" && Date != "" {
		return Date
	}

	if v, ok := buildSetting("vcs.time"); ok {
		return v
	}

	return "unknown"
}

// GetInfo returns complete version information
func GetInfo() Info {
	modified, _ := buildSetting("vcs.modified")

	return Info{
		Version:        GetVersion(),
		Commit:         GetCommit(),
		Date:           GetBuildDate(),
		Modified:       modified == "true",
		Implementation: bigdir.Implementation,
	}
}

// GetFullVersion returns a formatted version string with commit and date
func GetFullVersion() string {
	info := GetInfo()
	if info.Commit != "unknown" && len(info.Commit) > 7 {
		shortCommit := info.Commit[:7]
		if info.Date != "unknown" {
			return fmt.Sprintf("%s (%s, built %s, %s)", info.Version, shortCommit, info.Date, info.Implementation)
		}

		return fmt.Sprintf("%s (%s, %s)", info.Version, shortCommit, info.Implementation)
	}

	return fmt.Sprintf("%s (%s)", info.Version, info.Implementation)
}

func buildSetting(key string) (string, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "", false
	}

	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value, true
		}
	}

	return "", false
}

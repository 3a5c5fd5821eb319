// Package misc holds small helpers needed across the program which do not
// belong anywhere else.
package misc

import (
	"runtime/debug"
)

const appName = "folio"

// set by the linker during release builds
var (
	version = ""
	gitHash = ""
)

// GetAppName returns short program name used for logs, reports and temp files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version, falling back to module build info when
// the linker did not provide one.
func GetVersion() string {
	if len(version) != 0 {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) != 0 {
		return bi.Main.Version
	}
	return "unknown"
}

// GetGitHash returns VCS revision recorded in the build info.
func GetGitHash() string {
	if len(gitHash) != 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

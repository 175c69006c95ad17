package version

import (
	"fmt"
	"runtime/debug"
)

// Overridden at build time:
//
//	go build -ldflags "-X github.com/distantorigin/unreal-installer/internal/version.Number=1.1"
var (
	Number = "1.0"
	Commit = ""
	Date   = ""
)

// Info describes the running build
type Info struct {
	Number string
	Commit string
	Date   string
}

// Current returns the build information, filling the commit from the
// embedded VCS stamp when it was not set explicitly
func Current() Info {
	info := Info{Number: Number, Commit: Commit, Date: Date}
	if info.Commit == "" {
		info.Commit = vcsRevision()
	}
	return info
}

// String returns the version with the short commit appended when known
func (i Info) String() string {
	ver := i.Number
	if i.Commit != "" {
		commit := i.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		ver += "+" + commit
	}
	return ver
}

// Banner is the first line every run logs
func (i Info) Banner() string {
	return fmt.Sprintf("Installer v%s started.", i.Number)
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

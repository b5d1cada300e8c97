// Package version exposes the build metadata stamped into release
// binaries via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Stamped at build time:
//
//	go build -ldflags "-X github.com/teranos/storygraph/version.Number=v0.3.0 \
//	  -X github.com/teranos/storygraph/version.Commit=$(git rev-parse HEAD) \
//	  -X github.com/teranos/storygraph/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Number = "dev"
	Commit = "unknown"
	Date   = "unknown"
)

// Info is the full build record, JSON-ready for --json output.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuiltAt   string `json:"built_at"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get collects the stamped values plus runtime facts.
func Get() Info {
	return Info{
		Version:   Number,
		Commit:    Commit,
		BuiltAt:   Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("storygraph %s (commit %s, built %s)", i.Version, i.Commit, i.BuiltAt)
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// UserAgent identifies storygraph in outbound HTTP requests.
func UserAgent() string {
	return "storygraph/" + Number
}

// Package buildinfo holds release metadata set at link time, e.g.
//
//	go build -ldflags "-X github.com/aidanlsb/shopctl/internal/buildinfo.Version=v0.3.0"
package buildinfo

// Empty for local builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/shopctl/internal/buildinfo"
	"github.com/aidanlsb/shopctl/internal/config"
)

const defaultModulePath = "github.com/aidanlsb/shopctl"

type versionInfo struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	APIVersion string `json:"api_version"`
}

var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show shopctl version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()

		if jsonOutput {
			outputSuccess(info, nil, nil)
			return nil
		}

		fmt.Fprintf(stdout, "shopctl %s\n", info.Version)
		fmt.Fprintf(stdout, "module: %s\n", info.ModulePath)
		if info.Commit != "" {
			fmt.Fprintf(stdout, "commit: %s (modified: %t)\n", info.Commit, info.Modified)
		}
		if info.CommitTime != "" {
			fmt.Fprintf(stdout, "built: %s\n", info.CommitTime)
		}
		fmt.Fprintf(stdout, "go: %s %s\n", info.GoVersion, info.Platform)
		fmt.Fprintf(stdout, "default api version: %s\n", info.APIVersion)
		return nil
	},
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:    "devel",
		ModulePath: defaultModulePath,
		GoVersion:  runtime.Version(),
		APIVersion: defaultAPIVersion(),
	}
	goos, goarch := runtime.GOOS, runtime.GOARCH

	if bi, ok := readBuildInfo(); ok && bi != nil {
		settings := make(map[string]string, len(bi.Settings))
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
		if bi.Main.Path != "" {
			info.ModulePath = bi.Main.Path
		}
		info.Version = normalizeVersion(bi.Main.Version)
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
		if v := settings["GOOS"]; v != "" {
			goos = v
		}
		if v := settings["GOARCH"]; v != "" {
			goarch = v
		}
		info.Commit = settings["vcs.revision"]
		info.CommitTime = settings["vcs.time"]
		info.Modified = strings.EqualFold(settings["vcs.modified"], "true")
	}
	info.Platform = goos + "/" + goarch

	// Release binaries carry ldflags values.
	if info.Version == "devel" && buildinfo.Version != "" {
		info.Version = normalizeVersion(buildinfo.Version)
	}
	if info.Commit == "" {
		info.Commit = buildinfo.Commit
	}
	if info.CommitTime == "" {
		info.CommitTime = buildinfo.Date
	}
	return info
}

func normalizeVersion(version string) string {
	if version == "" || version == "(devel)" {
		return "devel"
	}
	return version
}

// defaultAPIVersion is the Admin API version requests use when the store
// does not pin one.
func defaultAPIVersion() string {
	if _, store, err := getConfig().GetStore(storeName); err == nil {
		return store.APIVersion
	}
	return config.DefaultAPIVersion
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version is the current version of bb (overridden by ldflags at build time)
	Version = "0.3.0"
	Build   = "dev"
	Commit  = ""
)

type versionInfo struct {
	Version string `json:"version"`
	Build   string `json:"build"`
	Commit  string `json:"commit,omitempty"`
}

func (v *versionInfo) Plain() string {
	if v.Commit != "" {
		return fmt.Sprintf("bb version %s (%s: %s)", v.Version, v.Build, v.Commit)
	}
	return fmt.Sprintf("bb version %s (%s)", v.Version, v.Build)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		commit := Commit
		if commit == "" {
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" {
						commit = s.Value
					}
				}
			}
		}
		if len(commit) > 12 {
			commit = commit[:12]
		}
		emit(&versionInfo{Version: Version, Build: Build, Commit: commit})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/langlyai/langly/internal/lessons"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version and lesson prompt version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		promptVersion := lessons.DefaultConfig().PromptVersion
		if appCfg != nil {
			promptVersion = appCfg.Lessons.PromptVersion
		}
		fmt.Fprintf(cmd.OutOrStdout(), "langly %s (prompt v%d)\n", buildVersion(), promptVersion)
	},
}

// buildVersion prefers the ldflags value, then the module version recorded
// by `go install`.
func buildVersion() string {
	if version != "(devel)" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return version
}

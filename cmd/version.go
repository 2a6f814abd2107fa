package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lingua version and build details",
	Run: func(cmd *cobra.Command, args []string) {
		v, rev, goVersion := version, "", ""
		if info, ok := debug.ReadBuildInfo(); ok {
			if v == "(devel)" && info.Main.Version != "" {
				v = info.Main.Version
			}
			goVersion = info.GoVersion
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					rev = s.Value[:7]
				}
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "lingua %s\n", v)
		if rev != "" {
			fmt.Fprintf(out, "  commit: %s\n", rev)
		}
		if goVersion != "" {
			fmt.Fprintf(out, "  go:     %s\n", goVersion)
		}
	},
}

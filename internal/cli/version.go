package cli

import (
	"fmt"

	"github.com/jakenelson/nwchemctl/internal/container"
	"github.com/spf13/cobra"
)

var (
	// These are set at build time via ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information and the configured image",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "nwchemctl %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)

		ref, err := container.ImageRef(cfg.Image.Name, cfg.Image.Tag)
		if err != nil {
			ref = fmt.Sprintf("invalid (%v)", err)
		}
		fmt.Fprintf(out, "  image:   %s\n", ref)
		fmt.Fprintf(out, "  backend: %s\n", cfg.Runtime.Backend)
	},
}

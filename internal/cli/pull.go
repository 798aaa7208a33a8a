package cli

import (
	"fmt"
	"os"

	"github.com/jakenelson/nwchemctl/internal/container"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(pullCmd)
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch or update the NWChem image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ref, err := container.ImageRef(cfg.Image.Name, cfg.Image.Tag)
		if err != nil {
			return err
		}

		inv, err := newInvoker(ctx)
		if err != nil {
			return err
		}
		defer inv.Close()

		fmt.Printf("Pulling %s...\n", ref)
		if err := inv.Pull(ctx, ref, os.Stdout); err != nil {
			return err
		}

		fmt.Printf("Image %s is up to date\n", ref)
		return nil
	},
}

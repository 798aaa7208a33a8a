package cli

import (
	"fmt"

	"github.com/jakenelson/nwchemctl/internal/convert"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <input-deck> [destination]",
	Short: "Convert an NWChem input deck to a Broombridge file",
	Long: `Convert copies the input deck into a private staging directory, runs the
NWChem image on it and copies the produced Broombridge file to the destination.

The destination defaults to the input path with its extension replaced by the
target extension (yaml). The file looked up inside the container is always
named after the input deck, whatever the destination is called.

Examples:
  nwchemctl convert caffeine.nw
  nwchemctl convert caffeine.nw ~/broombridge/caffeine.yaml
  nwchemctl convert --skip-pull --tag 7.2.2 caffeine.nw`,
	Args: cobra.RangeArgs(1, 2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return []string{"nw", "nwi"}, cobra.ShellCompDirectiveFilterFileExt
		}
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	},
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	opts := convert.Options{
		Input:    args[0],
		SkipPull: cfg.Image.SkipPull,
		Tag:      cfg.Image.Tag,
	}
	if len(args) == 2 {
		opts.Destination = args[1]
	}

	inv, err := newInvoker(ctx)
	if err != nil {
		return err
	}
	defer inv.Close()

	o := convert.New(inv,
		convert.WithLogger(logger),
		convert.WithImage(cfg.Image.Name),
		convert.WithTargetExtension(cfg.Convert.TargetExtension),
		convert.WithMountTarget(cfg.Convert.MountTarget),
		convert.WithRuntimeArgs(runtimeArgs(cfg)...),
	)

	res, err := o.Convert(ctx, opts)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	if !res.OutputFound {
		return fmt.Errorf("%w: %s", convert.ErrOutputNotFound, res.OutputName)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", res.Destination)
	return nil
}

package cli

import (
	"fmt"

	"github.com/jakenelson/nwchemctl/internal/container"
	"github.com/jakenelson/nwchemctl/internal/security"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(invokeCmd)

	invokeCmd.Flags().StringArrayP("mount", "m", nil, "bind mount host:container[:ro] (repeatable)")
	invokeCmd.Flags().StringArray("docker-arg", nil, "extra container runtime flag, passed through verbatim (repeatable)")
}

var invokeCmd = &cobra.Command{
	Use:   "invoke [flags] [-- image-args...]",
	Short: "Run the NWChem image with pass-through arguments",
	Long: `Invoke pulls the NWChem image (unless --skip-pull) and runs it interactively.
Arguments after -- are handed to the image entrypoint unchanged. The container's
exit status becomes the exit status of nwchemctl.

With the cli backend the image runs as "docker run ... -it <image>". When stdin
is not a terminal (a pipe or a redirected file) -i is used instead of -it,
since the runtime refuses to allocate a TTY for it.

Examples:
  nwchemctl invoke -m ~/decks:/opt/data -- h2.nw
  nwchemctl invoke --docker-arg=--memory=8g -m ./work:/opt/data -- caffeine.nw`,
	RunE: runInvoke,
}

func runInvoke(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	mountSpecs, _ := cmd.Flags().GetStringArray("mount")
	mounts, err := parseMountFlags(mountSpecs)
	if err != nil {
		return err
	}

	dockerArgs, _ := cmd.Flags().GetStringArray("docker-arg")

	inv, err := newInvoker(ctx)
	if err != nil {
		return err
	}
	defer inv.Close()

	result, err := inv.Invoke(ctx, container.Request{
		Image:      cfg.Image.Name,
		Tag:        cfg.Image.Tag,
		Mounts:     mounts,
		DockerArgs: append(runtimeArgs(cfg), dockerArgs...),
		Command:    args,
		SkipPull:   cfg.Image.SkipPull,
	})
	if err != nil {
		return err
	}
	if !result.Succeeded() {
		return &ExitCodeError{Code: result.ExitCode}
	}
	return nil
}

// parseMountFlags expands and validates host:container[:ro] specs.
func parseMountFlags(specs []string) ([]container.Mount, error) {
	var mounts []container.Mount
	for _, spec := range specs {
		m, err := container.ParseMount(spec)
		if err != nil {
			return nil, err
		}

		expanded, err := security.ExpandPath(m.Source)
		if err != nil {
			return nil, fmt.Errorf("invalid mount path %q: %w", m.Source, err)
		}
		if err := security.ValidateMountPath(expanded); err != nil {
			return nil, fmt.Errorf("mount path denied %q: %w", m.Source, err)
		}
		m.Source = expanded

		mounts = append(mounts, m)
	}
	return mounts, nil
}

package container

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docker/go-units"
	"github.com/spf13/pflag"
)

// RunFlags is the subset of "docker run" flags the API backend understands.
type RunFlags struct {
	Mounts  []Mount
	Env     []string
	WorkDir string
	User    string
	Network string
	Memory  int64
}

// ParseRunFlags translates pass-through docker run flags into RunFlags.
// Flags outside the supported subset, and stray positional arguments,
// are rejected with ErrUnsupportedFlag. --rm is accepted and ignored: the
// API backend always removes the container once its exit code is read.
func ParseRunFlags(args []string) (*RunFlags, error) {
	fs := pflag.NewFlagSet("docker run", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)

	volumes := fs.StringArrayP("volume", "v", nil, "bind mount a volume")
	env := fs.StringArrayP("env", "e", nil, "set environment variables")
	workDir := fs.StringP("workdir", "w", "", "working directory inside the container")
	user := fs.StringP("user", "u", "", "username or UID")
	network := fs.String("network", "", "connect a container to a network")
	memory := fs.StringP("memory", "m", "", "memory limit")
	fs.Bool("rm", false, "remove the container when it exits")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFlag, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", ErrUnsupportedFlag, fs.Arg(0))
	}

	flags := &RunFlags{
		WorkDir: *workDir,
		User:    *user,
		Network: *network,
	}

	for _, v := range *volumes {
		m, err := ParseMount(v)
		if err != nil {
			return nil, err
		}
		flags.Mounts = append(flags.Mounts, m)
	}

	for _, e := range *env {
		if strings.Contains(e, "=") {
			flags.Env = append(flags.Env, e)
			continue
		}
		// -e KEY copies the host value, as docker does
		if val, ok := os.LookupEnv(e); ok {
			flags.Env = append(flags.Env, e+"="+val)
		}
	}

	if *memory != "" {
		limit, err := units.RAMInBytes(*memory)
		if err != nil {
			return nil, fmt.Errorf("invalid memory limit %q: %w", *memory, err)
		}
		flags.Memory = limit
	}

	return flags, nil
}

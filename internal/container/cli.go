package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
	"github.com/moby/term"
)

// ExecCommandFunc creates an *exec.Cmd; tests substitute a fake.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// CLIInvoker drives the container runtime by shelling out to its binary.
type CLIInvoker struct {
	binary      string
	execCommand ExecCommandFunc
	isTerminal  func(io.Reader) bool
	logger      *log.Logger
}

// CLIOption configures a CLIInvoker.
type CLIOption func(*CLIInvoker)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) CLIOption {
	return func(c *CLIInvoker) {
		c.execCommand = fn
	}
}

// WithTerminalCheck overrides how stdin is detected as a terminal.
func WithTerminalCheck(fn func(io.Reader) bool) CLIOption {
	return func(c *CLIInvoker) {
		c.isTerminal = fn
	}
}

// NewCLIInvoker creates an invoker for the given runtime binary (docker, podman).
func NewCLIInvoker(binary string, logger *log.Logger, opts ...CLIOption) *CLIInvoker {
	if logger == nil {
		logger = log.Default()
	}
	c := &CLIInvoker{
		binary:      binary,
		execCommand: exec.CommandContext,
		isTerminal:  stdinIsTerminal,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the runtime binary name.
func (c *CLIInvoker) Name() string {
	return c.binary
}

// PullArgs builds the argv for fetching ref.
func (c *CLIInvoker) PullArgs(ref string) []string {
	return []string{"pull", ref}
}

// RunArgs builds the argv for running ref:
//
//	run -v <mounts>... <docker args>... -it <ref> <command>...
func (c *CLIInvoker) RunArgs(req Request, ref string) []string {
	args := make([]string, 0, 3+2*len(req.Mounts)+len(req.DockerArgs)+len(req.Command))
	args = append(args, "run")
	for _, m := range req.Mounts {
		args = append(args, "-v", m.String())
	}
	args = append(args, req.DockerArgs...)

	// -t against a non-terminal stdin makes the runtime refuse to start
	if c.isTerminal(req.stdin()) {
		args = append(args, "-it")
	} else {
		args = append(args, "-i")
	}

	args = append(args, ref)
	args = append(args, req.Command...)
	return args
}

// Pull runs "<binary> pull ref" with output going to out.
func (c *CLIInvoker) Pull(ctx context.Context, ref string, out io.Writer) error {
	cmd := c.execCommand(ctx, c.binary, c.PullArgs(ref)...)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr

	c.logger.Debug("pulling image", "image", ref)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s pull %s failed: %w", c.binary, ref, err)
	}
	return nil
}

// Invoke pulls (unless skipped) and runs the image synchronously with the
// request's standard streams.
func (c *CLIInvoker) Invoke(ctx context.Context, req Request) (*Result, error) {
	ref, err := ImageRef(req.Image, req.Tag)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if !req.SkipPull {
		if err := c.Pull(ctx, ref, req.stdout()); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("image pull failed, trying local copy", "image", ref, "error", err)
			result.PullFailed = true
		}
	}

	cmd := c.execCommand(ctx, c.binary, c.RunArgs(req, ref)...)
	cmd.Stdin = req.stdin()
	cmd.Stdout = req.stdout()
	cmd.Stderr = req.stderr()

	c.logger.Debug("running container", "argv", cmd.Args)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			c.logger.Debug("container exited", "image", ref, "code", result.ExitCode)
			return result, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", c.binary, err)
	}

	return result, nil
}

// Close is a no-op; the CLI backend holds no resources.
func (c *CLIInvoker) Close() error {
	return nil
}

func stdinIsTerminal(r io.Reader) bool {
	_, isTerm := term.GetFdInfo(r)
	return isTerm
}

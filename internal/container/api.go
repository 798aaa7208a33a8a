package container

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	containerTypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/moby/term"
)

// APIInvoker drives the Docker Engine API directly instead of the CLI.
type APIInvoker struct {
	client *client.Client
	logger *log.Logger
}

// NewAPIInvoker connects to the Docker daemon configured in the environment.
func NewAPIInvoker(ctx context.Context, logger *log.Logger) (*APIInvoker, error) {
	if logger == nil {
		logger = log.Default()
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Verify connection
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to connect to Docker: %w", err)
	}

	return &APIInvoker{client: cli, logger: logger}, nil
}

// Close closes the Docker client
func (a *APIInvoker) Close() error {
	return a.client.Close()
}

// Pull fetches ref and renders the daemon's progress stream to out.
func (a *APIInvoker) Pull(ctx context.Context, ref string, out io.Writer) error {
	a.logger.Debug("pulling image", "image", ref)

	rc, err := a.client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", ref, err)
	}
	defer rc.Close()

	fd, isTerm := term.GetFdInfo(out)
	if err := jsonmessage.DisplayJSONMessagesStream(rc, out, fd, isTerm, nil); err != nil {
		return fmt.Errorf("failed to pull %s: %w", ref, err)
	}
	return nil
}

// ImageExists checks if an image exists locally
func (a *APIInvoker) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, _, err := a.client.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Invoke pulls (unless skipped), creates, attaches to and waits for a
// container. The container is always removed afterwards.
func (a *APIInvoker) Invoke(ctx context.Context, req Request) (*Result, error) {
	ref, err := ImageRef(req.Image, req.Tag)
	if err != nil {
		return nil, err
	}

	flags, err := ParseRunFlags(req.DockerArgs)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if req.SkipPull {
		exists, err := a.ImageExists(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect image %s: %w", ref, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s; run 'nwchemctl pull' or drop --skip-pull", ErrImageNotFound, ref)
		}
	} else if err := a.Pull(ctx, ref, req.stdout()); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("image pull failed, trying local copy", "image", ref, "error", err)
		result.PullFailed = true
	}

	containerConfig, hostConfig := buildConfigs(req, flags, ref)

	// Determine if we should use TTY mode
	stdin := req.stdin()
	stdinFd, isTTY := term.GetFdInfo(stdin)
	containerConfig.Tty = isTTY

	resp, err := a.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, ref)
		}
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	containerID := resp.ID

	defer func() {
		if err := a.client.ContainerRemove(context.Background(), containerID, containerTypes.RemoveOptions{
			Force: true,
		}); err != nil {
			a.logger.Warn("failed to remove container", "id", containerID, "error", err)
		}
	}()

	attachResp, err := a.client.ContainerAttach(ctx, containerID, containerTypes.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to container: %w", err)
	}
	defer attachResp.Close()

	outputDone := make(chan error, 1)
	go func() {
		var err error
		if isTTY {
			_, err = io.Copy(req.stdout(), attachResp.Reader)
		} else {
			// Without a TTY the attach stream is multiplexed
			_, err = stdcopy.StdCopy(req.stdout(), req.stderr(), attachResp.Reader)
		}
		outputDone <- err
	}()

	if err := a.client.ContainerStart(ctx, containerID, containerTypes.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	if isTTY {
		a.resizeTty(ctx, containerID, stdinFd)

		oldState, err := term.SetRawTerminal(stdinFd)
		if err != nil {
			return nil, fmt.Errorf("failed to set raw terminal: %w", err)
		}
		defer term.RestoreTerminal(stdinFd, oldState)

		// Stopped before the container is removed
		resizeCtx, stopResize := context.WithCancel(ctx)
		defer stopResize()
		go a.monitorTtySize(resizeCtx, containerID, stdinFd)
	}

	go func() {
		io.Copy(attachResp.Conn, stdin)
		attachResp.CloseWrite()
	}()

	statusCh, errCh := a.client.ContainerWait(ctx, containerID, containerTypes.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			a.stop(containerID)
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("error waiting for container: %w", err)
	case status := <-statusCh:
		if err := <-outputDone; err != nil {
			a.logger.Debug("output stream closed with error", "error", err)
		}
		if status.Error != nil {
			return nil, fmt.Errorf("error waiting for container: %s", status.Error.Message)
		}
		result.ExitCode = int(status.StatusCode)
		a.logger.Debug("container exited", "image", ref, "code", result.ExitCode)
		return result, nil
	case <-ctx.Done():
		a.stop(containerID)
		return nil, ctx.Err()
	}
}

// stop gives the container a few seconds to exit after cancellation.
func (a *APIInvoker) stop(containerID string) {
	timeout := 5
	_ = a.client.ContainerStop(context.Background(), containerID, containerTypes.StopOptions{Timeout: &timeout})
}

// resizeTty resizes the container TTY to match the current terminal size
func (a *APIInvoker) resizeTty(ctx context.Context, containerID string, fd uintptr) {
	winsize, err := term.GetWinsize(fd)
	if err != nil {
		return
	}
	a.client.ContainerResize(ctx, containerID, containerTypes.ResizeOptions{
		Height: uint(winsize.Height),
		Width:  uint(winsize.Width),
	})
}

func buildConfigs(req Request, flags *RunFlags, ref string) (*containerTypes.Config, *containerTypes.HostConfig) {
	var mounts []mount.Mount
	for _, m := range append(append([]Mount{}, req.Mounts...), flags.Mounts...) {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	containerConfig := &containerTypes.Config{
		Image:        ref,
		Cmd:          strslice.StrSlice(req.Command),
		Env:          flags.Env,
		WorkingDir:   flags.WorkDir,
		User:         flags.User,
		OpenStdin:    true,
		StdinOnce:    true,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	}

	hostConfig := &containerTypes.HostConfig{
		Mounts:      mounts,
		NetworkMode: containerTypes.NetworkMode(flags.Network),
		AutoRemove:  false, // removed explicitly once the exit code is read
		Resources: containerTypes.Resources{
			Memory: flags.Memory,
		},
	}

	return containerConfig, hostConfig
}

var (
	_ Invoker = (*APIInvoker)(nil)
	_ Invoker = (*CLIInvoker)(nil)
)

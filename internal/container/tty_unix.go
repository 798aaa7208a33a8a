//go:build !windows

package container

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// monitorTtySize monitors terminal size changes and resizes the container TTY
func (a *APIInvoker) monitorTtySize(ctx context.Context, containerID string, fd uintptr) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-sigCh:
			a.resizeTty(ctx, containerID, fd)
		case <-ctx.Done():
			return
		}
	}
}

//go:build windows

package container

import "context"

// monitorTtySize is a no-op on Windows, which has no SIGWINCH.
func (a *APIInvoker) monitorTtySize(ctx context.Context, containerID string, fd uintptr) {}
